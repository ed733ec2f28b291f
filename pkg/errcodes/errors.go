package errcodes

import (
	"fmt"
	"net/http"
)

// Error is the single classified error kind that crosses the HTTP boundary.
// Code is the machine readable kind, HTTPCode is what Handle responds with.
type Error struct {
	HTTPCode int
	Message  string
	Code     string
}

func (err *Error) Error() string {
	return err.Message
}

func (err *Error) As(target interface{}) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	te.HTTPCode = err.HTTPCode
	te.Message = err.Message
	te.Code = err.Code
	return true
}

func (err *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.HTTPCode == err.HTTPCode &&
		te.Message == err.Message &&
		te.Code == err.Code
}

// Codes for the domain kinds.
const (
	CodeNotFound                = "not_found"
	CodeRequiredFieldsEmpty     = "required_fields_empty"
	CodeAlreadyExists           = "already_exists"
	CodeNotFree                 = "not_free"
	CodeCourseFree              = "course_free"
	CodeUnauthorized            = "unauthorized"
	CodeNotAdmin                = "not_admin"
	CodeWebhookSignatureInvalid = "webhook_signature_invalid"
	CodeWebhookProcessing       = "webhook_processing_error"
	CodeValidation              = "validation_error"
)

// NotFound returns a 404 error with a message indicating the given resource.
func NotFound(resource string) error {
	return &Error{
		http.StatusNotFound,
		resource + " not found.",
		CodeNotFound,
	}
}

// RequiredFieldsEmpty is returned when a publish guard rejects a resource.
func RequiredFieldsEmpty(resource string) error {
	return &Error{
		http.StatusBadRequest,
		resource + " has required fields that are empty.",
		CodeRequiredFieldsEmpty,
	}
}

func AlreadyExists(resource string) error {
	return &Error{
		http.StatusBadRequest,
		resource + " already exists.",
		CodeAlreadyExists,
	}
}

func CourseNotFree() error {
	return &Error{
		http.StatusBadRequest,
		"Course is not free.",
		CodeNotFree,
	}
}

// CourseFree is returned when a paid checkout is requested for a free course.
func CourseFree() error {
	return &Error{
		http.StatusBadRequest,
		"Course is free, use the free checkout.",
		CodeCourseFree,
	}
}

func Unauthorized(msg string) error {
	return &Error{
		http.StatusUnauthorized,
		msg,
		CodeUnauthorized,
	}
}

func NotAdmin() error {
	return &Error{
		http.StatusUnauthorized,
		"Admin access is required.",
		CodeNotAdmin,
	}
}

func WebhookSignatureInvalid() error {
	return &Error{
		http.StatusBadRequest,
		"Webhook signature is invalid.",
		CodeWebhookSignatureInvalid,
	}
}

// WebhookProcessingError is a verified event that could not be applied. The
// processor redelivers on 5xx, so this is deliberately a server error.
func WebhookProcessingError(msg string) error {
	return &Error{
		http.StatusInternalServerError,
		msg,
		CodeWebhookProcessing,
	}
}

func UnsupportedMediaType() error {
	return &Error{
		http.StatusUnsupportedMediaType,
		"Unsupported Media Type",
		"unsupported_media_type",
	}
}

func UnknownParameter(param string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		fmt.Sprintf("Unknown Parameter %q", param),
		"unknown_parameter",
	}
}

func ValidationTypeError(msg string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		msg,
		"validation_type_error",
	}
}

func ValidationError(msg string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		msg,
		CodeValidation,
	}
}

func MalformedPayload() error {
	return &Error{
		http.StatusBadRequest,
		"Malformed Payload",
		"malformed_payload",
	}
}

func EmptyRequestBody() error {
	return &Error{
		http.StatusBadRequest,
		"Request body can't be empty.",
		"empty_request_body",
	}
}

package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// SignatureHeader carries the webhook signature.
const SignatureHeader = "Stripe-Signature"

const EventCheckoutSessionCompleted = "checkout.session.completed"

const signatureSchemeKey = "v1"

var (
	ErrInvalidHeader  = errors.New("webhook signature header is malformed")
	ErrNoValidSig     = errors.New("no webhook signature matches the payload")
	ErrTooOld         = errors.New("webhook timestamp is outside the tolerance")
	ErrMalformedEvent = errors.New("webhook payload is not a valid event")
)

// Event is a verified webhook event.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// CheckoutSession decodes the event's object as a checkout session.
func (e *Event) CheckoutSession() (*CheckoutSession, error) {
	session := &CheckoutSession{}
	if err := json.Unmarshal(e.Data.Object, session); err != nil {
		return nil, errors.WithStack(err)
	}
	return session, nil
}

// ConstructEvent verifies the signature header against payload and decodes
// the event. A zero tolerance disables the timestamp check.
func ConstructEvent(payload []byte, header, secret string, tolerance time.Duration, now time.Time) (*Event, error) {
	timestamp, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return nil, err
	}

	expected := computeSignature(timestamp, payload, secret)
	matched := false
	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, ErrNoValidSig
	}

	if tolerance > 0 && now.Sub(timestamp).Abs() > tolerance {
		return nil, ErrTooOld
	}

	event := &Event{}
	if err := json.Unmarshal(payload, event); err != nil || event.ID == "" || event.Type == "" {
		return nil, ErrMalformedEvent
	}
	return event, nil
}

// SignPayload builds a signature header for payload, the way the provider
// signs its deliveries.
func SignPayload(payload []byte, secret string, at time.Time) string {
	sig := computeSignature(at, payload, secret)
	return "t=" + strconv.FormatInt(at.Unix(), 10) + "," + signatureSchemeKey + "=" + hex.EncodeToString(sig)
}

func computeSignature(t time.Time, payload []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(t.Unix(), 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

func parseSignatureHeader(header string) (time.Time, [][]byte, error) {
	var timestamp time.Time
	var signatures [][]byte

	if header == "" {
		return timestamp, nil, ErrInvalidHeader
	}

	for _, pair := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return timestamp, nil, ErrInvalidHeader
		}
		switch key {
		case "t":
			unix, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return timestamp, nil, ErrInvalidHeader
			}
			timestamp = time.Unix(unix, 0)
		case signatureSchemeKey:
			sig, err := hex.DecodeString(value)
			if err != nil {
				// Other schemes may share the header; skip what we can't read.
				continue
			}
			signatures = append(signatures, sig)
		}
	}

	if timestamp.IsZero() || len(signatures) == 0 {
		return timestamp, nil, ErrInvalidHeader
	}
	return timestamp, signatures, nil
}

package courses

type CreateCoursePayload struct {
	Title string `json:"title" mod:"trim" validate:"required,min=1,max=100"`
}

type UpdateTitlePayload struct {
	Title string `json:"title" mod:"trim" validate:"required,min=1,max=100"`
}

type UpdateDescriptionPayload struct {
	Description string `json:"description" mod:"trim" validate:"required,min=1,max=1000"`
}

type UpdateThumbnailPayload struct {
	ImageURL string `json:"image_url" mod:"trim" validate:"required,http_url"`
}

type UpdatePricePayload struct {
	Price *int `json:"price" validate:"required,min=0,max=1000000"`
}

type UpdateCategoryPayload struct {
	CategoryID string `json:"category_id" mod:"trim" validate:"required"`
}

type UpdateSourceURLPayload struct {
	SourceURL string `json:"source_url" mod:"trim" validate:"required,http_url"`
}

type ListPublishedCoursesQuery struct {
	Title      *string `query:"title" json:"title,omitempty" validate:"omitempty,max=100"`
	CategoryID *string `query:"category_id" json:"category_id,omitempty"`
}

package chapters

type CreateChapterPayload struct {
	Title string `json:"title" mod:"trim" validate:"required,min=1,max=100"`
}

type UpdateTitlePayload struct {
	Title string `json:"title" mod:"trim" validate:"required,min=1,max=100"`
}

type UpdateDescriptionPayload struct {
	Description string `json:"description" mod:"trim" validate:"required,min=1,max=1000"`
}

type UpdateVideoPayload struct {
	VideoURL string `json:"video_url" mod:"trim" validate:"required,http_url"`
}

type ReorderPayload struct {
	List []ReorderItem `json:"list" validate:"required,min=1,dive"`
}

package categories

type CreateCategoryPayload struct {
	Name string `json:"name" mod:"trim" validate:"required,min=1,max=100,category_name"`
}

type UpdateCategoryPayload struct {
	Name string `json:"name" mod:"trim" validate:"required,min=1,max=100,category_name"`
}

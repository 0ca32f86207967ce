package models

// Response is the envelope of every non-render endpoint.
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

type CreateCategoryRequest struct {
	Name       string           `json:"name" validate:"required,max=100"`
	ParentID   *string          `json:"parentId" validate:"omitempty"`
	Attributes []AttributeInput `json:"attributes" validate:"omitempty,dive"`
}

// UpdateCategoryRequest changes any combination of name, placement and
// attributes. MoveToRoot detaches the category from its parent; a ParentID
// moves it under another category.
type UpdateCategoryRequest struct {
	Name       *string          `json:"name" validate:"omitempty,max=100"`
	ParentID   *string          `json:"parentId" validate:"omitempty"`
	MoveToRoot bool             `json:"moveToRoot"`
	Attributes []AttributeInput `json:"attributes" validate:"omitempty,dive"`
}

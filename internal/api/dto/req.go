package dto

type CreateTenantRequest struct {
	Name   string `json:"name" binding:"required" example:"Acme Corp"`
	Domain string `json:"domain" example:"acme.example.com"`
}

type CreateSubTenantRequest struct {
	Name   string `json:"name" binding:"required" example:"Acme West"`
	Domain string `json:"domain" example:"west.acme.example.com"`
}

type CreateBranchRequest struct {
	Name        string `json:"name" binding:"required" example:"Downtown"`
	Description string `json:"description" example:"Downtown location"`
}

type UpdateTenantStatusRequest struct {
	Status string `json:"status" binding:"required" example:"suspended"`
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email" example:"jane@acme.example.com"`
	Name     string `json:"name" binding:"required" example:"Jane Doe"`
	Password string `json:"password" binding:"required,min=8" example:"s3cret-pass"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"jane@acme.example.com"`
	Password string `json:"password" binding:"required" example:"s3cret-pass"`
}

package transport

import "github.com/google/uuid"

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ImagePayload struct {
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	MIME        string `json:"mime"`
	Size        int64  `json:"size"`
	IsThumbnail bool   `json:"is_thumbnail"`
	Position    int    `json:"position"`
}

type EscrowPayload struct {
	RequiresCfxID        bool   `json:"requires_cfx_id"`
	RequiresEmail        bool   `json:"requires_email"`
	RequiresUsername     bool   `json:"requires_username"`
	DeliveryInstructions string `json:"delivery_instructions"`
}

type CreateResourceRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Type        string         `json:"resource_type"`
	Framework   string         `json:"framework"`
	Category    string         `json:"category"`
	Images      []ImagePayload `json:"images"`
	Escrow      *EscrowPayload `json:"escrow"`
}

type PatchResourceRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Framework   *string  `json:"framework"`
	Category    *string  `json:"category"`
}

type AttachFileRequest struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	MIME     string `json:"mime"`
	Size     int64  `json:"size"`
}

type AddToCartRequest struct {
	ResourceID uuid.UUID `json:"resource_id"`
}

type CheckoutLineRequest struct {
	ResourceID uuid.UUID `json:"resource_id"`
	CfxID      string    `json:"cfx_id"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
}

type CheckoutRequest struct {
	Items []CheckoutLineRequest `json:"items"`
}

type SellerRequestPayload struct {
	BusinessName string `json:"business_name"`
	BusinessType string `json:"business_type"`
	Motivation   string `json:"motivation"`
}

type ResolveRequestPayload struct {
	Approve bool `json:"approve"`
}

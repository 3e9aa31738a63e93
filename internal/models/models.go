package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

type ResourceStatus string

const (
	StatusDraft     ResourceStatus = "draft"
	StatusPending   ResourceStatus = "pending"
	StatusApproved  ResourceStatus = "approved"
	StatusRejected  ResourceStatus = "rejected"
	StatusSuspended ResourceStatus = "suspended"
)

type ResourceType string

const (
	TypeEscrow ResourceType = "escrow"
	TypeDirect ResourceType = "direct"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Actor is the authenticated identity every service operation takes
// explicitly. Services never read ambient session state.
type Actor struct {
	ID   uuid.UUID
	Role string
}

func (a Actor) IsAdmin() bool  { return a.Role == RoleAdmin }
func (a Actor) IsSeller() bool { return a.Role == RoleSeller || a.Role == RoleAdmin }

type User struct {
	ID           uuid.UUID `gorm:"primaryKey"          json:"id"`
	Username     string    `gorm:"unique;not null"     json:"username"`
	Email        string    `gorm:"unique;not null"     json:"email"`
	PasswordHash string    `gorm:"not null"            json:"-"`
	Role         string    `gorm:"not null;default:buyer" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (User) TableName() string { return "users" }

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"      json:"id"`
	JTI       string    `gorm:"unique;not null" json:"jti"`
	UserID    uuid.UUID `gorm:"index;not null"  json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"        json:"expires_at"`
	Revoked   bool      `gorm:"default:false"   json:"revoked"`
}

func (RefreshToken) TableName() string { return "refresh_tokens" }

type Resource struct {
	ID          uuid.UUID      `gorm:"primaryKey"              json:"id"`
	AuthorID    uuid.UUID      `gorm:"index;not null"          json:"author_id"`
	Title       string         `gorm:"not null"                json:"title"`
	Description string         `gorm:"type:text;not null"      json:"description"`
	Price       float64        `gorm:"not null"                json:"price"`
	Type        ResourceType   `gorm:"type:varchar(10);not null" json:"resource_type"`
	Framework   string         `gorm:"index"                   json:"framework"`
	Category    string         `gorm:"index"                   json:"category"`
	Status      ResourceStatus `gorm:"type:varchar(10);not null;default:draft;index" json:"status"`
	FileURL     string         `json:"file_url,omitempty"`
	Downloads   uint           `gorm:"default:0"               json:"downloads"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	ApprovedAt  *time.Time     `json:"approved_at,omitempty"`
	ApprovedBy  *uuid.UUID     `json:"approved_by,omitempty"`

	Images []ResourceImage `gorm:"foreignKey:ResourceID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
	Escrow *EscrowInfo     `gorm:"foreignKey:ResourceID;constraint:OnDelete:CASCADE" json:"escrow,omitempty"`
}

func (r *Resource) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (Resource) TableName() string { return "resources" }

type ResourceImage struct {
	ID          uuid.UUID `gorm:"primaryKey"     json:"id"`
	ResourceID  uuid.UUID `gorm:"index;not null" json:"resource_id"`
	URL         string    `gorm:"not null"       json:"url"`
	IsThumbnail bool      `gorm:"default:false"  json:"is_thumbnail"`
	Position    int       `gorm:"not null"       json:"position"`
}

func (i *ResourceImage) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (ResourceImage) TableName() string { return "resource_images" }

// EscrowInfo declares which buyer fields the seller needs to fulfil an
// escrow resource out of band, one row per escrow resource.
type EscrowInfo struct {
	ID                   uuid.UUID `gorm:"primaryKey"            json:"id"`
	ResourceID           uuid.UUID `gorm:"uniqueIndex;not null"  json:"resource_id"`
	RequiresCfxID        bool      `gorm:"default:false"         json:"requires_cfx_id"`
	RequiresEmail        bool      `gorm:"default:false"         json:"requires_email"`
	RequiresUsername     bool      `gorm:"default:false"         json:"requires_username"`
	DeliveryInstructions string    `gorm:"type:text"             json:"delivery_instructions"`
}

func (e *EscrowInfo) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (EscrowInfo) TableName() string { return "escrow_infos" }

type Order struct {
	ID         uuid.UUID   `gorm:"primaryKey"     json:"id"`
	BuyerID    uuid.UUID   `gorm:"index;not null" json:"buyer_id"`
	ResourceID uuid.UUID   `gorm:"index;not null" json:"resource_id"`
	SellerID   uuid.UUID   `gorm:"index;not null" json:"seller_id"`
	// Amount is the resource price at the moment of checkout, never
	// re-read from the live resource afterwards.
	Amount      float64     `gorm:"not null" json:"amount"`
	Status      OrderStatus `gorm:"type:varchar(10);not null;default:pending" json:"status"`
	CfxID       string      `json:"cfx_id,omitempty"`
	Email       string      `json:"email,omitempty"`
	Username    string      `json:"username,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	DeliveredAt *time.Time  `json:"delivered_at,omitempty"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (Order) TableName() string { return "orders" }

type CartItem struct {
	ID         uuid.UUID `gorm:"primaryKey"                             json:"id"`
	UserID     uuid.UUID `gorm:"uniqueIndex:idx_user_resource;not null" json:"user_id"`
	ResourceID uuid.UUID `gorm:"uniqueIndex:idx_user_resource;not null" json:"resource_id"`
	Quantity   uint      `gorm:"default:1;check:quantity>0"             json:"quantity"`
	UnitPrice  float64   `gorm:"not null"                               json:"unit_price"`
	CreatedAt  time.Time `json:"created_at"`
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (CartItem) TableName() string { return "cart_items" }

func (c CartItem) Subtotal() float64 { return c.UnitPrice * float64(c.Quantity) }

type SellerRequest struct {
	ID           uuid.UUID     `gorm:"primaryKey"           json:"id"`
	UserID       uuid.UUID     `gorm:"uniqueIndex;not null" json:"user_id"`
	BusinessName string        `gorm:"not null"             json:"business_name"`
	BusinessType string        `json:"business_type"`
	Motivation   string        `gorm:"type:text"            json:"motivation"`
	Status       RequestStatus `gorm:"type:varchar(10);not null;default:pending" json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	ResolvedAt   *time.Time    `json:"resolved_at,omitempty"`
}

func (s *SellerRequest) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (SellerRequest) TableName() string { return "seller_requests" }

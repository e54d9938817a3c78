package models

import "time"

const (
	DefaultCategory  = "Umum"
	PlaceholderImage = "/placeholder-product.png"

	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

type Product struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Price       int64      `json:"price"`
	Category    string     `json:"category"`
	Stock       int        `json:"stock"`
	Image       string     `json:"image"`
	Images      []string   `json:"images"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

// CartLine is one product in the local cart. Stock is nil when the ceiling is unknown.
type CartLine struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Image    string `json:"image,omitempty"`
	Stock    *int   `json:"stock,omitempty"`
}

func (l CartLine) Subtotal() int64 {
	return l.Price * int64(l.Quantity)
}

type Session struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

type OrderItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type OrderRequest struct {
	UserID        int64       `json:"userId"`
	TotalPrice    int64       `json:"totalPrice"`
	PaymentMethod string      `json:"paymentMethod"`
	Items         []OrderItem `json:"items"`
}

// ProductForm carries the admin create/update fields. Image is optional on update.
type ProductForm struct {
	Name        string
	Description string
	Price       string
	Category    string
	Stock       string
	ImageName   string
	Image       []byte
}

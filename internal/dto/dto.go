package dto

import "time"

// Page is the list envelope the bot paginates over.
type Page struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

type RegisterRequest struct {
	ChatID      int64  `json:"chat_id"`
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
}

type VerifyRequest struct {
	PhoneNumber string `json:"phone_number"`
	Code        string `json:"code"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type UserResponse struct {
	ID          int64  `json:"id"`
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
	Locale      string `json:"language_code"`
}

type ProfilePatchRequest struct {
	FirstName *string `json:"first_name"`
	Locale    *string `json:"language_code"`
}

type CategoryResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"`
}

type ProductResponse struct {
	ID          int64  `json:"id"`
	CategoryID  int64  `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       int64  `json:"price"`
	ImageURL    string `json:"image_url,omitempty"`
}

type BranchResponse struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	IsOpen    bool    `json:"is_open"`
}

type CartItemResponse struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	LineTotal int64  `json:"line_total"`
}

type CartResponse struct {
	ID         int64              `json:"id"`
	Items      []CartItemResponse `json:"items"`
	TotalPrice int64              `json:"total_price"`
}

type CartAddRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type CartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type CheckoutRequest struct {
	DeliveryType   string   `json:"delivery_type"`
	Address        string   `json:"address,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	PaymentType    string   `json:"payment_type"`
	PickupBranchID *int64   `json:"pickup_branch_id,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

type OrderItemResponse struct {
	ProductID    *int64 `json:"product_id"`
	Quantity     int    `json:"quantity"`
	PricePerUnit int64  `json:"price_per_unit"`
	LineTotal    int64  `json:"line_total"`
}

type OrderResponse struct {
	ID           int64               `json:"id"`
	Status       string              `json:"status"`
	TotalPrice   int64               `json:"total_price"`
	DeliveryType string              `json:"delivery_type"`
	PaymentType  string              `json:"payment_type"`
	Address      string              `json:"address,omitempty"`
	ReadyAt      *time.Time          `json:"estimated_ready_at"`
	DeliveredAt  *time.Time          `json:"estimated_delivery_at"`
	CreatedAt    time.Time           `json:"created_at"`
	Items        []OrderItemResponse `json:"items,omitempty"`
}

type StatusPatchRequest struct {
	Status string `json:"status"`
}

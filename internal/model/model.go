package model

import (
	"time"
)

// Supported locales. Anything else falls back to LocaleUZ.
const (
	LocaleUZ = "uz"
	LocaleRU = "ru"
)

// NormalizeLocale maps an arbitrary language code onto a supported locale.
func NormalizeLocale(code string) string {
	if code == LocaleRU {
		return LocaleRU
	}
	return LocaleUZ
}

// Order statuses.
const (
	StatusNew       = "new"
	StatusPreparing = "preparing"
	StatusOnTheWay  = "on_the_way"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// Delivery types.
const (
	DeliveryTypeDelivery = "delivery"
	DeliveryTypePickup   = "pickup"
)

// Payment types. Only the type is recorded, no processing.
const (
	PaymentTypeCash = "cash"
	PaymentTypeCard = "card"
)

// User is an end customer addressed by their chat identity.
// Inactive until the OTP is verified.
type User struct {
	ID          int64  `gorm:"primaryKey"`
	ChatID      int64  `gorm:"uniqueIndex;not null"`
	PhoneNumber string `gorm:"size:20;uniqueIndex;not null"`
	FirstName   string `gorm:"size:150"`
	Locale      string `gorm:"size:2;not null;default:uz"`
	IsActive    bool   `gorm:"not null;default:false"`

	OTPCode      string `gorm:"size:6"`
	OTPCreatedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

const otpValidity = 5 * time.Minute

// OTPValid reports whether code matches the issued OTP and it has not expired.
func (u *User) OTPValid(code string, now time.Time) bool {
	if u.OTPCode == "" || u.OTPCreatedAt == nil {
		return false
	}
	if u.OTPCreatedAt.Before(now.Add(-otpValidity)) {
		return false
	}
	return u.OTPCode == code
}

type Category struct {
	ID       int64  `gorm:"primaryKey"`
	NameUZ   string `gorm:"size:100;not null"`
	NameRU   string `gorm:"size:100;not null"`
	ImageURL string `gorm:"size:255"`
	IsActive bool   `gorm:"not null;default:true"`
	Ordering int    `gorm:"not null;default:0"`
}

// Name returns the category name for the given locale.
func (c *Category) Name(locale string) string {
	if NormalizeLocale(locale) == LocaleRU && c.NameRU != "" {
		return c.NameRU
	}
	return c.NameUZ
}

type Product struct {
	ID            int64  `gorm:"primaryKey"`
	CategoryID    int64  `gorm:"index;not null"`
	NameUZ        string `gorm:"size:150;not null"`
	NameRU        string `gorm:"size:150;not null"`
	DescriptionUZ string
	DescriptionRU string
	// Price in whole UZS.
	Price       int64  `gorm:"not null"`
	ImageURL    string `gorm:"size:255"`
	IsAvailable bool   `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Product) Name(locale string) string {
	if NormalizeLocale(locale) == LocaleRU && p.NameRU != "" {
		return p.NameRU
	}
	return p.NameUZ
}

// Branch is a physical outlet. Opening hours are clock times in the
// branch's local day; an overnight window (OpensAt > ClosesAt) wraps
// past midnight.
type Branch struct {
	ID        int64   `gorm:"primaryKey"`
	NameUZ    string  `gorm:"size:150;not null"`
	NameRU    string  `gorm:"size:150;not null"`
	Address   string  `gorm:"size:255"`
	Latitude  float64 `gorm:"not null"`
	Longitude float64 `gorm:"not null"`

	// "15:04" clock times.
	OpensAt  string `gorm:"size:5;not null"`
	ClosesAt string `gorm:"size:5;not null"`

	AvgPreparationMinutes   int  `gorm:"not null;default:20"`
	AvgDeliveryExtraMinutes int  `gorm:"not null;default:30"`
	IsActive                bool `gorm:"not null;default:true"`
}

func (b *Branch) Name(locale string) string {
	if NormalizeLocale(locale) == LocaleRU && b.NameRU != "" {
		return b.NameRU
	}
	return b.NameUZ
}

// IsOpenAt reports whether the branch accepts orders at t.
func (b *Branch) IsOpenAt(t time.Time) bool {
	if !b.IsActive {
		return false
	}
	open, err := time.Parse("15:04", b.OpensAt)
	if err != nil {
		return false
	}
	closeT, err := time.Parse("15:04", b.ClosesAt)
	if err != nil {
		return false
	}
	minutes := t.Hour()*60 + t.Minute()
	openM := open.Hour()*60 + open.Minute()
	closeM := closeT.Hour()*60 + closeT.Minute()
	if openM == closeM {
		return false
	}
	if openM < closeM {
		return minutes >= openM && minutes < closeM
	}
	// Overnight window, e.g. 18:00-03:00.
	return minutes >= openM || minutes < closeM
}

// Cart holds a user's in-progress selection. One cart per user, created
// lazily on first mutation and drained at checkout.
type Cart struct {
	ID     int64 `gorm:"primaryKey"`
	UserID int64 `gorm:"uniqueIndex;not null"`

	Items []CartItem `gorm:"foreignKey:CartID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem is one line in a cart. A product appears at most once per cart;
// adds merge into the existing line.
type CartItem struct {
	ID        int64 `gorm:"primaryKey"`
	CartID    int64 `gorm:"index:idx_cart_product,unique;not null"`
	ProductID int64 `gorm:"index:idx_cart_product,unique;not null"`
	Quantity  int   `gorm:"not null;default:1"`

	Product Product `gorm:"foreignKey:ProductID"`

	CreatedAt time.Time
}

// Order is an immutable snapshot created at checkout. Only the status
// changes afterwards. References to user/branch/product null out on delete
// so history survives.
type Order struct {
	ID     int64  `gorm:"primaryKey"`
	UserID *int64 `gorm:"index"`
	Status string `gorm:"size:20;index;not null;default:new"`
	// Copied from the cart at creation time, never recomputed.
	TotalPrice   int64  `gorm:"not null"`
	DeliveryType string `gorm:"size:10;not null"`

	Address   string `gorm:"size:255"`
	Latitude  *float64
	Longitude *float64

	PaymentType    string `gorm:"size:10;not null"`
	PickupBranchID *int64 `gorm:"index"`
	Notes          string

	ReadyAt     *time.Time
	DeliveredAt *time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Terminal reports whether no further status transition is allowed.
func (o *Order) Terminal() bool {
	return o.Status == StatusDelivered || o.Status == StatusCancelled
}

// OrderItem freezes the unit price and line total at checkout time.
type OrderItem struct {
	ID        int64  `gorm:"primaryKey"`
	OrderID   int64  `gorm:"index;not null"`
	ProductID *int64 `gorm:"index"`
	Quantity  int    `gorm:"not null"`
	// Product price at checkout time. Catalog changes never touch this.
	PricePerUnit int64 `gorm:"not null"`
	LineTotal    int64 `gorm:"not null"`

	CreatedAt time.Time
}

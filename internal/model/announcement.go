package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle stage of an announcement. The numeric values are
// stored in the database and must not be renumbered.
type Status int

// Announcement statuses.
const (
	StatusNew      Status = 1
	StatusAccepted Status = 2
	StatusRejected Status = 3
	StatusReserved Status = 4
	StatusSold     Status = 5
)

// Statuses lists every status in workflow order.
var Statuses = []Status{StatusNew, StatusAccepted, StatusRejected, StatusReserved, StatusSold}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s >= StatusNew && s <= StatusSold
}

// String returns the status identifier used in logs, metrics and events.
func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	case StatusReserved:
		return "reserved"
	case StatusSold:
		return "sold"
	default:
		return "unknown"
	}
}

// Label returns the user-facing status name.
func (s Status) Label() string {
	switch s {
	case StatusNew:
		return "Čaka na odobritev"
	case StatusAccepted:
		return "Aktualno"
	case StatusRejected:
		return "Zavrnjeno"
	case StatusReserved:
		return "Rezervirano"
	case StatusSold:
		return "Prodano"
	default:
		return "Neznano"
	}
}

// Announcement is a single marketplace listing.
type Announcement struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  int64           `json:"category_id"`
	OwnerID     int64           `json:"owner_id"`
	Status      Status          `json:"status"`
	Image       string          `json:"image,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Joined fields (not always populated).
	CategoryName  string `json:"category_name,omitempty"`
	OwnerUsername string `json:"owner_username,omitempty"`
}

// Category groups announcements.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

package model

import "time"

// Reservation records a user's intent to buy an announcement.
type Reservation struct {
	ID             int64     `json:"id"`
	AnnouncementID int64     `json:"announcement_id"`
	UserID         int64     `json:"user_id"`
	CreatedAt      time.Time `json:"created_at"`

	// Joined fields (not always populated).
	AnnouncementTitle  string `json:"announcement_title,omitempty"`
	AnnouncementStatus Status `json:"announcement_status,omitempty"`
}

// Transaction records a completed sale.
type Transaction struct {
	ID             int64     `json:"id"`
	SellerID       int64     `json:"seller_id"`
	BuyerID        int64     `json:"buyer_id"`
	AnnouncementID *int64    `json:"announcement_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

package model

// Profile holds the contact and address data of a user. Every user has
// exactly one profile.
type Profile struct {
	UserID  int64  `json:"user_id"`
	City    string `json:"city,omitempty"`
	Street  string `json:"street,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

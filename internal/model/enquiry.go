package model

import "time"

// Enquiry statuses, in order of the usual follow-up flow.
const (
	EnquiryStatusNew       = "new"
	EnquiryStatusContacted = "contacted"
	EnquiryStatusCompleted = "completed"
)

// Enquiry is a customer contact request submitted through the public site.
// Visitors create enquiries; only the administrator may change their status
// or delete them.
type Enquiry struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	Place     string    `json:"place" db:"place"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ValidEnquiryStatus reports whether s is one of the recognized enquiry statuses.
func ValidEnquiryStatus(s string) bool {
	switch s {
	case EnquiryStatusNew, EnquiryStatusContacted, EnquiryStatusCompleted:
		return true
	}
	return false
}

// EnquiryStats holds the aggregate counts shown on the admin dashboard.
type EnquiryStats struct {
	Total     int64 `json:"total"`
	New       int64 `json:"new"`
	Contacted int64 `json:"contacted"`
	Completed int64 `json:"completed"`
}

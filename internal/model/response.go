package model

// ErrorResponse is the standard envelope for error responses. Validation
// failures additionally carry per-field errors.
type ErrorResponse struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// BlogListResponse is the envelope for blog list endpoints. Stats is only
// populated on the admin listing.
type BlogListResponse struct {
	Blogs       []Blog     `json:"blogs"`
	CurrentPage int        `json:"currentPage"`
	TotalPages  int        `json:"totalPages"`
	Total       int64      `json:"total"`
	Stats       *BlogStats `json:"stats,omitempty"`
}

// EnquiryListResponse is the envelope for the admin enquiry listing.
type EnquiryListResponse struct {
	Enquiries   []Enquiry `json:"enquiries"`
	CurrentPage int       `json:"currentPage"`
	TotalPages  int       `json:"totalPages"`
	Total       int64     `json:"total"`
}

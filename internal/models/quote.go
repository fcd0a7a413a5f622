package models

import "time"

// Status is the canonical quote status. Upstream status names are mapped onto
// this closed set; anything unrecognized resolves to StatusPending.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusApproved   Status = "approved"
	StatusDenied     Status = "denied"
)

// Valid reports whether s is one of the four canonical statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusApproved, StatusDenied:
		return true
	}
	return false
}

// QuoteRequest is the canonical quote entity delivered to the UI. Every string
// field is non-null: absent upstream data normalizes to an empty string (or a
// placeholder for ClientEmail/ClientName). EstimatedCost is nil when the
// upstream value is missing or non-numeric, never zero-by-default.
type QuoteRequest struct {
	ID                 string    `json:"id"`
	ClientName         string    `json:"clientName"`
	ClientEmail        string    `json:"clientEmail"`
	ClientPhone        string    `json:"clientPhone"`
	ProjectType        string    `json:"projectType"`
	ProjectDescription string    `json:"projectDescription"`
	Budget             string    `json:"budget"`
	Timeline           string    `json:"timeline"`
	Location           string    `json:"location"`
	Status             Status    `json:"status"`
	SubmittedAt        time.Time `json:"submittedAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
	EstimatedCost      *float64  `json:"estimatedCost,omitempty"`
	Notes              string    `json:"notes"`
	Comments           []Comment `json:"comments"`
}

// AuthorType values for Comment.
const (
	AuthorClient     = "client"
	AuthorContractor = "contractor"
)

// Comment is one entry in a quote's append-only comment log. The upstream
// system has no native comment primitive; the full log round-trips through a
// single text field as a JSON array.
type Comment struct {
	ID         string    `json:"id"`
	Author     string    `json:"author"`
	AuthorType string    `json:"authorType"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// QuoteDraft carries the caller-supplied fields for creating a quote.
type QuoteDraft struct {
	ClientName         string   `json:"clientName"`
	ClientEmail        string   `json:"clientEmail"`
	ClientPhone        string   `json:"clientPhone"`
	ProjectType        string   `json:"projectType"`
	ProjectDescription string   `json:"projectDescription"`
	Budget             string   `json:"budget"`
	Timeline           string   `json:"timeline"`
	Location           string   `json:"location"`
	EstimatedCost      *float64 `json:"estimatedCost,omitempty"`
	Notes              string   `json:"notes"`
}

// QuoteUpdate carries a partial update; nil fields are left untouched.
type QuoteUpdate struct {
	ClientName         *string  `json:"clientName,omitempty"`
	ClientEmail        *string  `json:"clientEmail,omitempty"`
	ClientPhone        *string  `json:"clientPhone,omitempty"`
	ProjectType        *string  `json:"projectType,omitempty"`
	ProjectDescription *string  `json:"projectDescription,omitempty"`
	Budget             *string  `json:"budget,omitempty"`
	Timeline           *string  `json:"timeline,omitempty"`
	Location           *string  `json:"location,omitempty"`
	Status             *Status  `json:"status,omitempty"`
	EstimatedCost      *float64 `json:"estimatedCost,omitempty"`
	Notes              *string  `json:"notes,omitempty"`
}

// Stats aggregates the quote list for the dashboard header.
type Stats struct {
	Total              int     `json:"total"`
	Pending            int     `json:"pending"`
	Processing         int     `json:"processing"`
	Approved           int     `json:"approved"`
	Denied             int     `json:"denied"`
	TotalEstimatedCost float64 `json:"totalEstimatedCost"`
}

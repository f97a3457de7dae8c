// Package complaint provides the complaint record, its fingerprint and the
// worksheet column layout shared by the read and write paths.
package complaint

// Complaint statuses reported by the partner portal.
const (
	StatusOpen      = "OPEN"
	StatusResolved  = "RESOLVED"
	StatusDismissed = "DISMISSED"
)

// Record is one complaint as interpreted from a detail page.
//
// Fields map to the extraction schema keys:
//   - Outlet ID: attached by the interpreter, never scraped
//   - Reason, Status, Complaint ID, Timestamp, Description, Customer History:
//     always present, empty string when the page did not show them
//   - Refund Amount, Customer Name: present only when found
//
// A Record is built once by the interpreter and never mutated afterwards.
type Record struct {
	OutletID        string `json:"Outlet ID"`
	Reason          string `json:"Reason"`
	Status          string `json:"Status"`
	ComplaintID     string `json:"Complaint ID"`
	Timestamp       string `json:"Timestamp"`
	Description     string `json:"Description"`
	CustomerHistory string `json:"Customer History"`
	RefundAmount    string `json:"Refund Amount,omitempty"`
	CustomerName    string `json:"Customer Name,omitempty"`
}

// Actionable reports whether the record should be persisted.
// Only complaints with status exactly OPEN qualify.
func (r Record) Actionable() bool {
	return r.Status == StatusOpen
}

// IsBlank reports whether every field is empty.
func (r Record) IsBlank() bool {
	return r == Record{}
}

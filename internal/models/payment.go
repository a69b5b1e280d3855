package models

// Payment is an amount one person contributed toward the whole session.
// Payments are not scoped to a bill.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string `json:"id"`

	// PersonID is the person who paid.
	PersonID string `json:"person_id"`

	// Amount is the amount paid.
	Amount float64 `json:"amount"`

	// Note is free text (e.g., "cash", "paid the deposit").
	Note string `json:"note,omitempty"`

	// CreatedAt is the Unix timestamp when the payment was recorded.
	CreatedAt int64 `json:"created_at"`
}

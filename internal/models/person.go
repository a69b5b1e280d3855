package models

// Person is one member of a session.
type Person struct {
	// ID is the unique identifier for the person (UUID format).
	ID string `json:"id"`

	// Name is the display name shown in totals and settlements.
	Name string `json:"name"`

	// Color is a cosmetic display tag chosen by the UI.
	Color string `json:"color,omitempty"`
}

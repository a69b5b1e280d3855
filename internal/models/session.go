package models

// Session is the complete snapshot the UI edits and the store persists.
type Session struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	People   []Person  `json:"people"`
	Bills    []Bill    `json:"bills"`
	Payments []Payment `json:"payments"`

	// Step is the UI navigation position, restored on reload.
	Step int `json:"step"`

	// Version increments on every save.
	Version int64 `json:"version"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`

	// PasscodeHash is the bcrypt hash of the optional session passcode.
	// It is stored next to the snapshot, never inside it.
	PasscodeHash string `json:"-"`
}

// FindPerson returns the index of the person with the given ID, or -1.
func (s *Session) FindPerson(personID string) int {
	for i, p := range s.People {
		if p.ID == personID {
			return i
		}
	}
	return -1
}

// FindBill returns the index of the bill with the given ID, or -1.
func (s *Session) FindBill(billID string) int {
	for i, b := range s.Bills {
		if b.ID == billID {
			return i
		}
	}
	return -1
}

// FindPayment returns the index of the payment with the given ID, or -1.
func (s *Session) FindPayment(paymentID string) int {
	for i, p := range s.Payments {
		if p.ID == paymentID {
			return i
		}
	}
	return -1
}

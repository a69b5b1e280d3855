package models

// Epsilon is the magnitude below which a money amount is treated as zero.
const Epsilon = 0.01

// PersonTotals is one person's derived aggregate across every bill in a session.
type PersonTotals struct {
	PersonID string `json:"person_id"`
	Name     string `json:"name"`

	// ItemTotal is the sum of this person's item shares across all bills.
	ItemTotal float64 `json:"item_total"`

	// TaxShare and ServiceShare are proportional to ItemTotal, bill by bill.
	TaxShare     float64 `json:"tax_share"`
	ServiceShare float64 `json:"service_share"`

	// FinalTotal is ItemTotal + TaxShare + ServiceShare.
	FinalTotal float64 `json:"final_total"`

	// AmountPaid sums the person's payments for the session.
	AmountPaid float64 `json:"amount_paid"`

	// Balance is AmountPaid - FinalTotal.
	// Positive = owed money, Negative = owes money.
	Balance float64 `json:"balance"`
}

// Settlement is one suggested transfer that helps zero out balances.
type Settlement struct {
	From   string  `json:"from"`    // Person who owes
	To     string  `json:"to"`      // Person who is owed
	FromID string  `json:"from_id"`
	ToID   string  `json:"to_id"`
	Amount float64 `json:"amount"`
}

// Summary is everything the UI needs to show the result screen.
type Summary struct {
	// Totals are in people-list order.
	Totals []PersonTotals `json:"totals"`

	// Settlements are in the order the solver produced them.
	Settlements []Settlement `json:"settlements"`

	// UnassignedItems counts items nobody has been assigned to.
	// The UI warns before trusting the settlements when this is non-zero.
	UnassignedItems int `json:"unassigned_items"`
}

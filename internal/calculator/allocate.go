// Package calculator holds the allocation and settlement arithmetic.
// Every function here is pure: inputs are never mutated and a fresh result is
// returned on each call, so callers may invoke them concurrently.
package calculator

import (
	"github.com/kndrckm/splitbill/internal/models"
)

// Allocate distributes every bill across people and folds in payments.
//
// Algorithm, per bill:
//   - Each assigned item's price is split equally among its SharedBy members
//   - Items with no assignees contribute nothing and are left out of the base
//   - base = assigned subtotal, or the stored Subtotal when nothing is assigned
//   - taxShare = person's item total for the bill / base × bill.Tax (same for service)
//
// Shares sum across bills, then FinalTotal = ItemTotal + TaxShare + ServiceShare,
// and Balance = AmountPaid - FinalTotal. Every person gets an entry, even one
// who appears in no assignment.
func Allocate(bills []models.Bill, people []models.Person, payments []models.Payment) map[string]*models.PersonTotals {
	totals := make(map[string]*models.PersonTotals, len(people))
	for _, p := range people {
		totals[p.ID] = &models.PersonTotals{PersonID: p.ID, Name: p.Name}
	}

	for _, bill := range bills {
		billItems := make(map[string]float64)

		for _, item := range bill.Items {
			if item.Unassigned() {
				continue
			}

			perPersonAmount := item.Price / float64(len(item.SharedBy))
			for _, personID := range item.SharedBy {
				if _, exists := totals[personID]; exists {
					billItems[personID] += perPersonAmount
				}
			}
		}

		base := AssignedSubtotal(bill)
		if base <= 0 {
			base = bill.Subtotal
		}

		for personID, itemTotal := range billItems {
			t := totals[personID]
			t.ItemTotal += itemTotal
			if base == 0 {
				continue
			}
			proportion := itemTotal / base
			t.TaxShare += bill.Tax * proportion
			t.ServiceShare += bill.ServiceCharge * proportion
		}
	}

	for _, payment := range payments {
		if t, exists := totals[payment.PersonID]; exists {
			t.AmountPaid += payment.Amount
		}
	}

	for _, t := range totals {
		t.FinalTotal = t.ItemTotal + t.TaxShare + t.ServiceShare
		t.Balance = t.AmountPaid - t.FinalTotal
	}

	return totals
}

// Totals is Allocate with the result laid out in people-list order.
func Totals(bills []models.Bill, people []models.Person, payments []models.Payment) []models.PersonTotals {
	byID := Allocate(bills, people, payments)
	ordered := make([]models.PersonTotals, 0, len(people))
	for _, p := range people {
		if t, ok := byID[p.ID]; ok {
			ordered = append(ordered, *t)
			// Duplicate IDs in people must not yield a second row.
			delete(byID, p.ID)
		}
	}
	return ordered
}

// AssignedSubtotal sums the prices of items that have at least one assignee.
func AssignedSubtotal(bill models.Bill) float64 {
	var sum float64
	for _, item := range bill.Items {
		if !item.Unassigned() {
			sum += item.Price
		}
	}
	return sum
}

// CountUnassigned returns how many items across all bills have no assignees.
func CountUnassigned(bills []models.Bill) int {
	count := 0
	for _, bill := range bills {
		for _, item := range bill.Items {
			if item.Unassigned() {
				count++
			}
		}
	}
	return count
}

// ChargesFromRates resolves percentage rates into absolute tax and service
// amounts on the given subtotal. Rates are percentages (10 means 10%).
func ChargesFromRates(subtotal, taxRate, serviceRate float64) (tax, service float64) {
	return subtotal * taxRate / 100, subtotal * serviceRate / 100
}

// Summarize computes the full result screen for a session snapshot.
func Summarize(session *models.Session) models.Summary {
	totals := Totals(session.Bills, session.People, session.Payments)
	return models.Summary{
		Totals:          totals,
		Settlements:     Settle(totals),
		UnassignedItems: CountUnassigned(session.Bills),
	}
}

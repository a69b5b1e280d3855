package calculator

import "github.com/kndrckm/splitbill/internal/models"

type party struct {
	id        string
	name      string
	remaining float64
}

// Settle computes transfers that clear the given balances.
//
// Debtors (balance < -Epsilon) and creditors (balance > Epsilon) keep their
// input order; they are not sorted by magnitude. Two cursors walk the lists,
// each step moving min(debtor remaining, creditor remaining) from the current
// debtor to the current creditor. A cursor advances once its remaining amount
// drops below Epsilon, and both may advance in the same step. The sweep stops
// when either list runs out, so residue caused by floating drift is left as is.
func Settle(totals []models.PersonTotals) []models.Settlement {
	var debtors, creditors []party
	for _, t := range totals {
		if t.Balance < -models.Epsilon {
			debtors = append(debtors, party{id: t.PersonID, name: t.Name, remaining: -t.Balance})
		} else if t.Balance > models.Epsilon {
			creditors = append(creditors, party{id: t.PersonID, name: t.Name, remaining: t.Balance})
		}
	}

	settlements := []models.Settlement{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := &debtors[i]
		creditor := &creditors[j]

		amount := debtor.remaining
		if creditor.remaining < amount {
			amount = creditor.remaining
		}

		settlements = append(settlements, models.Settlement{
			From:   debtor.name,
			To:     creditor.name,
			FromID: debtor.id,
			ToID:   creditor.id,
			Amount: amount,
		})

		debtor.remaining -= amount
		creditor.remaining -= amount

		if debtor.remaining < models.Epsilon {
			i++
		}
		if creditor.remaining < models.Epsilon {
			j++
		}
	}

	return settlements
}

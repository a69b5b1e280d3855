// Package extraction talks to the external receipt extraction service and
// turns its structured guess into a Bill.
package extraction

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/kndrckm/splitbill/internal/models"
)

var (
	ErrEmptyImage    = errors.New("receipt image is empty")
	ErrNotConfigured = errors.New("receipt extraction is not configured")
)

// Extractor returns a structured guess of the receipt in an image.
type Extractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) (*Receipt, error)
}

// Receipt is the extraction service's guess. Amounts may be missing (zero).
type Receipt struct {
	Name          string        `json:"name"`
	Items         []ReceiptItem `json:"items"`
	Subtotal      float64       `json:"subtotal"`
	Tax           float64       `json:"tax"`
	ServiceCharge float64       `json:"service_charge"`
	Total         float64       `json:"total"`
}

// ReceiptItem is one extracted line. Price is the line total.
type ReceiptItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// ToBill converts the guess into an unassigned Bill with fresh IDs.
// Quantity defaults to 1, a missing subtotal falls back to the item sum and
// Total is recomputed; the service's own total is only a hint.
func (r *Receipt) ToBill() models.Bill {
	bill := models.Bill{
		ID:            uuid.New().String(),
		Name:          r.Name,
		Items:         make([]models.Item, 0, len(r.Items)),
		Subtotal:      r.Subtotal,
		Tax:           r.Tax,
		ServiceCharge: r.ServiceCharge,
	}
	if bill.Name == "" {
		bill.Name = "Receipt"
	}

	for _, line := range r.Items {
		quantity := line.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		bill.Items = append(bill.Items, models.Item{
			ID:       uuid.New().String(),
			Name:     line.Name,
			Price:    line.Price,
			Quantity: quantity,
			SharedBy: []string{},
		})
	}

	if bill.Subtotal == 0 {
		bill.Subtotal = bill.ItemsSum()
	}
	bill.ComputeTotal()
	return bill
}

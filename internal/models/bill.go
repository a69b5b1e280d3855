package models

// Bill is one receipt's worth of items plus tax and service charge.
type Bill struct {
	// ID is the unique identifier for the bill (UUID format).
	ID string `json:"id"`

	// Name is the human-readable label, usually the restaurant name.
	Name string `json:"name"`

	// Items are the line items on the receipt.
	Items []Item `json:"items"`

	// Subtotal is the stored pre-tax amount used for display.
	// It includes unassigned items.
	Subtotal float64 `json:"subtotal"`

	// Tax is an absolute amount, already resolved from any percentage.
	Tax float64 `json:"tax"`

	// ServiceCharge is an absolute amount, already resolved from any percentage.
	ServiceCharge float64 `json:"service_charge"`

	// Total is Subtotal + Tax + ServiceCharge. See ComputeTotal.
	Total float64 `json:"total"`
}

// Item is a single line on a bill.
type Item struct {
	// ID is the unique identifier for the item (UUID format).
	ID string `json:"id"`

	// Name is the description printed on the receipt (e.g., "Nasi Goreng").
	Name string `json:"name"`

	// Price is the total price of the line. It is never divided by Quantity.
	Price float64 `json:"price"`

	// Quantity is informational only.
	Quantity int `json:"quantity"`

	// SharedBy holds the IDs of the people splitting this item equally.
	// An empty set means the item is unassigned.
	SharedBy []string `json:"shared_by"`
}

// Unassigned reports whether nobody has been assigned to the item.
func (i Item) Unassigned() bool {
	return len(i.SharedBy) == 0
}

// ItemsSum returns the sum of all item prices, assigned or not.
func (b Bill) ItemsSum() float64 {
	var sum float64
	for _, item := range b.Items {
		sum += item.Price
	}
	return sum
}

// ComputeTotal sets Total from Subtotal, Tax and ServiceCharge.
func (b *Bill) ComputeTotal() {
	b.Total = b.Subtotal + b.Tax + b.ServiceCharge
}

// FindItem returns the index of the item with the given ID, or -1.
func (b Bill) FindItem(itemID string) int {
	for i, item := range b.Items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

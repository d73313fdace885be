package models

// ItemStatus is the delivery state of an order line as reported by the orders API.
// Values not listed here are kept as is so the order round-trips to the update API unchanged.
type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "Pending"
	ItemStatusDelivered ItemStatus = "Delivered"
)

type Order struct {
	OrderID string `json:"orderId"`
	Items   []Item `json:"items"`
}

type Item struct {
	Description string     `json:"description"`
	Status      ItemStatus `json:"status"`

	// How many times an alert was sent for the item across runs
	DeliveryNotification int `json:"deliveryNotification"`
}

// IsDelivered reports whether the item status is exactly Delivered
func (i Item) IsDelivered() bool {
	return i.Status == ItemStatusDelivered
}

// OrdersPage is a single page of the orders API response
type OrdersPage struct {
	Orders []Order `json:"orders"`

	// Nil or empty on the last page
	NextPageURL *string `json:"nextPageUrl"`
}

// Next returns the next page URL and whether there is one
func (p OrdersPage) Next() (string, bool) {
	if p.NextPageURL == nil || *p.NextPageURL == "" {
		return "", false
	}
	return *p.NextPageURL, true
}

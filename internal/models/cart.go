package models

// CartItem is a cart line joined with current product data.
type CartItem struct {
	Product   Product `json:"product"`
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"line_total"`
}

// Cart is the persisted set of items a shopper intends to buy. It is keyed
// by the authenticated user ID, or by a client-supplied cart ID for
// anonymous sessions.
type Cart struct {
	ID       string     `json:"id"`
	Items    []CartItem `json:"items"`
	Subtotal float64    `json:"subtotal"`
}

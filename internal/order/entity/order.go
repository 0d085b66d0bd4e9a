package entity

import "time"

// MenuItem is a row in the global menu catalog. No owner; visible to all.
type MenuItem struct {
	ID          int64   `json:"id" db:"id"`
	Title       string  `json:"title" db:"title"`
	Description string  `json:"description" db:"description"`
	Image       string  `json:"image" db:"image"`
	Price       float64 `json:"price" db:"price"`
}

// Item is one order line. Description and price are snapshots taken at
// order time so later menu changes never alter historical orders.
type Item struct {
	ID          int64   `json:"id,omitempty" db:"id"`
	MenuID      int64   `json:"menuId" db:"menu_id"`
	Description string  `json:"description" db:"description"`
	Price       float64 `json:"price" db:"price"`
}

// Order is immutable once created: there is no update operation, only
// creation and listing.
type Order struct {
	ID          int64     `json:"id" db:"id"`
	FranchiseID int64     `json:"franchiseId" db:"franchise_id"`
	StoreID     int64     `json:"storeId" db:"store_id"`
	Reference   string    `json:"reference,omitempty" db:"reference"`
	Date        time.Time `json:"date" db:"created_at"`
	Items       []Item    `json:"items" db:"-"`
}

// Total is the sum of the line item price snapshots.
func (o *Order) Total() float64 {
	var sum float64
	for _, it := range o.Items {
		sum += it.Price
	}
	return sum
}

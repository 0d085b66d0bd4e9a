package entity

// Admin is a franchise admin association expanded with the resolved user's
// id and name.
type Admin struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`
}

// Store belongs to exactly one franchise. TotalRevenue is the accumulated
// value of orders placed against it, denormalized at order time.
type Store struct {
	ID           int64   `json:"id" db:"id"`
	FranchiseID  int64   `json:"franchiseId,omitempty" db:"franchise_id"`
	Name         string  `json:"name" db:"name"`
	TotalRevenue float64 `json:"totalRevenue,omitempty" db:"revenue"`
}

// Franchise carries its admin associations and stores.
type Franchise struct {
	ID     int64   `json:"id" db:"id"`
	Name   string  `json:"name" db:"name"`
	Admins []Admin `json:"admins,omitempty" db:"-"`
	Stores []Store `json:"stores" db:"-"`
}

package model

import "time"

// PersonalList is a private named board owned by exactly one user.
type PersonalList struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Sector is the top-level organizational grouping for activities.
type Sector struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Subsector is a subdivision of a sector; each subsector renders as one
// board column.
type Subsector struct {
	ID        string    `json:"id" db:"id"`
	SectorID  string    `json:"sector_id" db:"sector_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

package model

import "time"

// Collaborator role constants.
const (
	RoleManager      = "manager"
	RoleCollaborator = "collaborator"
)

// Profile is the identity of a collaborator as joined onto activity rows.
// Authentication is out of scope; boards only consume id, name, and role.
type Profile struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Role      string    `json:"role" db:"role"`
	SectorID  string    `json:"sector_id" db:"sector_id"`
	AvatarURL string    `json:"avatar_url,omitempty" db:"avatar_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

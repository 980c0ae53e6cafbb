package entity

import "time"

// Profile identifies an actor and the role credential checked against the
// transition table. Profiles come from the identity collaborator; actors
// seen for the first time are bootstrapped with the Staff role.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

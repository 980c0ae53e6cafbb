package workflow

// Role identifies what an actor is allowed to do in the routing chain.
// Admin is a superuser role permitted wherever TU or Coordinator is.
type Role string

const (
	RoleTU          Role = "TU"
	RoleAdmin       Role = "Admin"
	RoleCoordinator Role = "Coordinator"
	RoleStaff       Role = "Staff"
)

var validRoles = map[Role]bool{
	RoleTU:          true,
	RoleAdmin:       true,
	RoleCoordinator: true,
	RoleStaff:       true,
}

// IsValid returns true if the role is a known role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// In returns true if the role appears in the given set
func (r Role) In(roles []Role) bool {
	for _, candidate := range roles {
		if r == candidate {
			return true
		}
	}
	return false
}

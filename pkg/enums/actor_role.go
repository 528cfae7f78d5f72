package enums

import "fmt"

// ActorRole identifies who performed an action against a rental or item.
type ActorRole string

const (
	ActorRoleRenter   ActorRole = "renter"
	ActorRoleProvider ActorRole = "provider"
	ActorRoleOperator ActorRole = "operator"
	ActorRoleSystem   ActorRole = "system"
)

var validActorRoles = []ActorRole{
	ActorRoleRenter,
	ActorRoleProvider,
	ActorRoleOperator,
	ActorRoleSystem,
}

// String implements fmt.Stringer.
func (a ActorRole) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActorRole.
func (a ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}

package domain

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleDriver      Role = "driver"
	RoleOperator    Role = "operator"
	RoleResidential Role = "residential"
)

// ParseRole accepts the role claim carried on a credential. "user" is the
// name older tokens use for drivers.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleDriver, RoleOperator, RoleResidential:
		return r, nil
	case "user":
		return RoleDriver, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
}

// Identity is the authenticated caller attached to every engine call.
type Identity struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

func (i Identity) IsOwner() bool {
	return i.Role == RoleOperator || i.Role == RoleResidential
}

// Contact is the notification address of a user, read from the user
// directory.
type Contact struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	PushToken string `json:"push_token"`
}

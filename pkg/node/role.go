package node

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the function of a node.
type Role string

const (
	RoleLight  Role = "light"
	RoleSwitch Role = "switch"
	RoleSensor Role = "sensor"
	RoleProxy  Role = "proxy"
)

// ErrUnknownRole is returned for roles other than the four above.
var ErrUnknownRole = errors.New("unknown node role")

// Roles lists every role.
var Roles = []Role{RoleLight, RoleSwitch, RoleSensor, RoleProxy}

// ParseRole parses a role name, case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Roles {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r Role) String() string { return string(r) }

package domain

import (
	"strings"

	dErrors "custody/pkg/domain-errors"
)

// Role is the closed set of custody-chain positions. RoleNone is the sentinel
// for "no role" and is never granted.
type Role uint8

const (
	RoleNone Role = iota
	RoleManufacturer
	RoleDistributor
	RoleRetailer
	RoleCustomer
)

var roleNames = map[Role]string{
	RoleNone:         "None",
	RoleManufacturer: "Manufacturer",
	RoleDistributor:  "Distributor",
	RoleRetailer:     "Retailer",
	RoleCustomer:     "Customer",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "Unknown"
}

// IsValid reports whether r is a grantable role.
func (r Role) IsValid() bool {
	switch r {
	case RoleManufacturer, RoleDistributor, RoleRetailer, RoleCustomer:
		return true
	default:
		return false
	}
}

// ParseRole accepts role names case-insensitively. Unknown names and "None"
// both yield RoleNone so callers report a single invalid_role failure.
func ParseRole(s string) Role {
	s = strings.TrimSpace(s)
	for role, name := range roleNames {
		if strings.EqualFold(name, s) {
			return role
		}
	}
	return RoleNone
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed := ParseRole(string(text))
	if parsed == RoleNone && !strings.EqualFold(strings.TrimSpace(string(text)), "none") {
		return dErrors.New(dErrors.CodeInvalidRole, "unknown role: "+string(text))
	}
	*r = parsed
	return nil
}

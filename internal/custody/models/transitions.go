package models

import id "custody/pkg/domain"

// roleHandoffs lists the legal holder-to-recipient role pairs. It is checked
// independently of statusSteps; both must pass.
var roleHandoffs = map[id.Role]id.Role{
	id.RoleManufacturer: id.RoleDistributor,
	id.RoleDistributor:  id.RoleRetailer,
	id.RoleRetailer:     id.RoleCustomer,
}

// statusSteps lists the legal status advances. No skips, no reversals.
var statusSteps = map[Status]Status{
	StatusManufactured: StatusInTransit,
	StatusInTransit:    StatusDelivered,
	StatusDelivered:    StatusSold,
}

// IsLegalHandoff reports whether an item may pass from a holder with role from
// to a recipient with role to.
func IsLegalHandoff(from, to id.Role) bool {
	next, ok := roleHandoffs[from]
	return ok && next == to
}

// IsLegalStep reports whether status may advance from one value to the next.
func IsLegalStep(from, to Status) bool {
	next, ok := statusSteps[from]
	return ok && next == to
}

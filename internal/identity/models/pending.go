package models

import id "custody/pkg/domain"

// PendingIndex is the active-pending list of identities.
//
// Order is insertion order until the first removal. Remove swaps the removed
// entry with the last element and truncates, so after any removal the
// remaining order is NOT insertion order. Callers must not rely on FIFO order.
type PendingIndex []id.Identity

// Add appends identity at the end.
func (p PendingIndex) Add(identity id.Identity) PendingIndex {
	return append(p, identity)
}

// Remove performs swap-and-pop. It returns the updated index and the position
// that was vacated (or -1 when identity was not present).
func (p PendingIndex) Remove(identity id.Identity) (PendingIndex, int) {
	for i, entry := range p {
		if entry != identity {
			continue
		}
		last := len(p) - 1
		p[i] = p[last]
		return p[:last], i
	}
	return p, -1
}

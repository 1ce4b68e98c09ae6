package models

import (
	"time"

	id "custody/pkg/domain"
)

// HistoryEntry is one immutable custody event. From is the zero identity on
// the manufacture entry. Seq is assigned on append, starting at 1 per item.
type HistoryEntry struct {
	ItemID    int64
	Seq       int
	From      id.Identity
	To        id.Identity
	Status    Status
	Timestamp time.Time
	Notes     string
}

// ManufactureEntry is the first entry of every item's history.
func ManufactureEntry(item *Item) *HistoryEntry {
	return &HistoryEntry{
		ItemID:    item.ID,
		To:        item.OriginManufacturer,
		Status:    StatusManufactured,
		Timestamp: item.CreatedAt,
		Notes:     ManufacturedNote,
	}
}

// TransferEntry records a completed handoff.
func TransferEntry(itemID int64, from, to id.Identity, status Status, at time.Time, notes string) *HistoryEntry {
	return &HistoryEntry{
		ItemID:    itemID,
		From:      from,
		To:        to,
		Status:    status,
		Timestamp: at,
		Notes:     notes,
	}
}

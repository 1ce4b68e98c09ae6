package handler

import (
	"time"

	"custody/internal/custody/models"
	id "custody/pkg/domain"
)

type RegisterItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type TransferRequest struct {
	To     string `json:"to"`
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

type ItemResponse struct {
	ID                 int64         `json:"id"`
	Name               string        `json:"name"`
	Description        string        `json:"description"`
	CurrentHolder      id.Identity   `json:"current_holder"`
	OriginManufacturer id.Identity   `json:"origin_manufacturer"`
	Status             models.Status `json:"status"`
	CreatedAt          time.Time     `json:"created_at"`
	LastUpdated        time.Time     `json:"last_updated"`
}

// HistoryEntryResponse is one custody event. From is null on the manufacture
// entry.
type HistoryEntryResponse struct {
	Seq       int           `json:"seq"`
	From      *id.Identity  `json:"from"`
	To        id.Identity   `json:"to"`
	Status    models.Status `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Notes     string        `json:"notes"`
}

type HistoryResponse struct {
	ItemID  int64                  `json:"item_id"`
	Entries []HistoryEntryResponse `json:"entries"`
}

type CountResponse struct {
	Total int64 `json:"total"`
}

func toItemResponse(item *models.Item) ItemResponse {
	return ItemResponse{
		ID:                 item.ID,
		Name:               item.Name,
		Description:        item.Description,
		CurrentHolder:      item.CurrentHolder,
		OriginManufacturer: item.OriginManufacturer,
		Status:             item.Status,
		CreatedAt:          item.CreatedAt,
		LastUpdated:        item.LastUpdated,
	}
}

func toHistoryResponse(itemID int64, entries []*models.HistoryEntry) HistoryResponse {
	out := HistoryResponse{ItemID: itemID, Entries: make([]HistoryEntryResponse, 0, len(entries))}
	for _, e := range entries {
		entry := HistoryEntryResponse{
			Seq:       e.Seq,
			To:        e.To,
			Status:    e.Status,
			Timestamp: e.Timestamp,
			Notes:     e.Notes,
		}
		if !e.From.IsZero() {
			from := e.From
			entry.From = &from
		}
		out.Entries = append(out.Entries, entry)
	}
	return out
}

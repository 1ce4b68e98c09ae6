package models

import (
	"strings"
	"time"
	"unicode/utf8"

	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
)

const (
	MaxNameLength        = 256
	MaxDescriptionLength = 4096
	MaxNotesLength       = 1024

	// ManufacturedNote is the note on every item's first history entry.
	ManufacturedNote = "Product manufactured"
)

// Item is a tracked physical good.
//
// Invariants:
//   - ID is assigned from a counter starting at 1 and never reused
//   - CurrentHolder is always a registered participant
//   - OriginManufacturer never changes
//   - Status only moves forward one step at a time
type Item struct {
	ID                 int64
	Name               string
	Description        string
	CurrentHolder      id.Identity
	OriginManufacturer id.Identity
	Status             Status
	CreatedAt          time.Time
	LastUpdated        time.Time
}

// NewItem validates and builds a freshly manufactured item held by maker.
func NewItem(itemID int64, name, description string, maker id.Identity, now time.Time) (*Item, error) {
	name, description, err := ValidateItemDetails(name, description)
	if err != nil {
		return nil, err
	}
	if itemID <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "item id must be positive")
	}
	return &Item{
		ID:                 itemID,
		Name:               name,
		Description:        description,
		CurrentHolder:      maker,
		OriginManufacturer: maker,
		Status:             StatusManufactured,
		CreatedAt:          now,
		LastUpdated:        now,
	}, nil
}

// ValidateItemDetails trims and bounds item name and description.
func ValidateItemDetails(name, description string) (string, string, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	switch {
	case name == "":
		return "", "", dErrors.New(dErrors.CodeValidation, "name is required")
	case description == "":
		return "", "", dErrors.New(dErrors.CodeValidation, "description is required")
	case utf8.RuneCountInString(name) > MaxNameLength:
		return "", "", dErrors.New(dErrors.CodeValidation, "name must be 256 characters or less")
	case utf8.RuneCountInString(description) > MaxDescriptionLength:
		return "", "", dErrors.New(dErrors.CodeValidation, "description must be 4096 characters or less")
	}
	return name, description, nil
}

// ValidateNotes bounds transfer notes. Empty notes are allowed.
func ValidateNotes(notes string) error {
	if utf8.RuneCountInString(notes) > MaxNotesLength {
		return dErrors.New(dErrors.CodeValidation, "notes must be 1024 characters or less")
	}
	return nil
}

// CanTransfer checks the holder, role and status gates for handing the item
// from caller to recipient, in that order.
func (i *Item) CanTransfer(caller id.Identity, callerRole, recipientRole id.Role, next Status) error {
	if caller != i.CurrentHolder {
		return dErrors.New(dErrors.CodeUnauthorized, "not current holder")
	}
	if recipientRole == id.RoleNone {
		return dErrors.New(dErrors.CodeNotRegistered, "recipient is not a registered participant")
	}
	if !IsLegalHandoff(callerRole, recipientRole) {
		return dErrors.New(dErrors.CodeInvalidRoleTransition,
			"cannot hand off from "+callerRole.String()+" to "+recipientRole.String())
	}
	if !IsLegalStep(i.Status, next) {
		return dErrors.New(dErrors.CodeInvalidStatusTransition,
			"cannot move from "+i.Status.String()+" to "+next.String())
	}
	return nil
}

// ApplyTransfer moves the item to recipient. Call CanTransfer first.
func (i *Item) ApplyTransfer(recipient id.Identity, next Status, now time.Time) {
	i.CurrentHolder = recipient
	i.Status = next
	i.LastUpdated = now
}

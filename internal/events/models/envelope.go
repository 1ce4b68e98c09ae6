// Package models defines the notifications the custody service emits and the
// envelope they travel in.
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	id "custody/pkg/domain"
)

// Type names a notification.
type Type string

const (
	TypeRequested      Type = "Requested"
	TypeApproved       Type = "Approved"
	TypeRejected       Type = "Rejected"
	TypeRegistered     Type = "Registered"
	TypeItemRegistered Type = "ItemRegistered"
	TypeTransferred    Type = "Transferred"
)

// Envelope carries one notification through the outbox.
//
// Key groups notifications that must stay ordered relative to each other: the
// identity for registration notifications, the item id for ledger ones.
// Seq is assigned by the outbox on append and orders delivery.
type Envelope struct {
	ID          uuid.UUID       `json:"id"`
	Seq         int64           `json:"seq"`
	Type        Type            `json:"type"`
	Key         string          `json:"key"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
	PublishedAt *time.Time      `json:"-"`
}

type Requested struct {
	Identity id.Identity `json:"identity"`
	Role     id.Role     `json:"role"`
	Name     string      `json:"name"`
}

type Approved struct {
	Identity id.Identity `json:"identity"`
	Role     id.Role     `json:"role"`
}

type Rejected struct {
	Identity id.Identity `json:"identity"`
}

type Registered struct {
	Identity id.Identity `json:"identity"`
	Role     id.Role     `json:"role"`
	Name     string      `json:"name"`
}

type ItemRegistered struct {
	ItemID       int64       `json:"id"`
	Name         string      `json:"name"`
	Manufacturer id.Identity `json:"manufacturer"`
}

type Transferred struct {
	ItemID int64       `json:"id"`
	From   id.Identity `json:"from"`
	To     id.Identity `json:"to"`
	Status string      `json:"status"`
}

func NewRequested(identity id.Identity, role id.Role, name string, at time.Time) (*Envelope, error) {
	return newEnvelope(TypeRequested, identity.Hex(), at, Requested{Identity: identity, Role: role, Name: name})
}

func NewApproved(identity id.Identity, role id.Role, at time.Time) (*Envelope, error) {
	return newEnvelope(TypeApproved, identity.Hex(), at, Approved{Identity: identity, Role: role})
}

func NewRejected(identity id.Identity, at time.Time) (*Envelope, error) {
	return newEnvelope(TypeRejected, identity.Hex(), at, Rejected{Identity: identity})
}

func NewRegistered(identity id.Identity, role id.Role, name string, at time.Time) (*Envelope, error) {
	return newEnvelope(TypeRegistered, identity.Hex(), at, Registered{Identity: identity, Role: role, Name: name})
}

func NewItemRegistered(itemID int64, name string, manufacturer id.Identity, at time.Time) (*Envelope, error) {
	return newEnvelope(TypeItemRegistered, ItemKey(itemID), at, ItemRegistered{ItemID: itemID, Name: name, Manufacturer: manufacturer})
}

func NewTransferred(itemID int64, from, to id.Identity, status string, at time.Time) (*Envelope, error) {
	return newEnvelope(TypeTransferred, ItemKey(itemID), at, Transferred{ItemID: itemID, From: from, To: to, Status: status})
}

// ItemKey is the ordering key for an item's notifications.
func ItemKey(itemID int64) string {
	return "item-" + strconv.FormatInt(itemID, 10)
}

func newEnvelope(t Type, key string, at time.Time, payload any) (*Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return &Envelope{
		ID:         uuid.New(),
		Type:       t,
		Key:        key,
		OccurredAt: at.UTC(),
		Payload:    raw,
	}, nil
}

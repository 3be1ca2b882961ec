// Package domain holds the typed identifiers shared across modules.
//
// Every identifier is a distinct UUID wrapper so the compiler rejects the
// classic cross-wiring bugs (passing a user id where a barangay id is
// expected). Parse constructors validate at trust boundaries; internal code
// passes the typed values around without re-checking.
package domain

import (
	"github.com/google/uuid"

	dErrors "baranex/pkg/domain-errors"
)

type (
	// BarangayID identifies a tenant barangay.
	BarangayID uuid.UUID

	// UserID identifies a platform user.
	UserID uuid.UUID

	// RequestID identifies a transfer request in the nexus ledger.
	RequestID uuid.UUID

	// RecordID identifies a transferable record (resident, household, ...).
	RecordID uuid.UUID
)

func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be the nil UUID")
	}
	return parsed, nil
}

// ParseBarangayID validates and converts a raw string into a BarangayID.
func ParseBarangayID(raw string) (BarangayID, error) {
	parsed, err := parseUUID(raw, "barangay")
	return BarangayID(parsed), err
}

// ParseUserID validates and converts a raw string into a UserID.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw, "user")
	return UserID(parsed), err
}

// ParseRequestID validates and converts a raw string into a RequestID.
func ParseRequestID(raw string) (RequestID, error) {
	parsed, err := parseUUID(raw, "request")
	return RequestID(parsed), err
}

// ParseRecordID validates and converts a raw string into a RecordID.
func ParseRecordID(raw string) (RecordID, error) {
	parsed, err := parseUUID(raw, "record")
	return RecordID(parsed), err
}

func (i BarangayID) String() string { return uuid.UUID(i).String() }
func (i UserID) String() string     { return uuid.UUID(i).String() }
func (i RequestID) String() string  { return uuid.UUID(i).String() }
func (i RecordID) String() string   { return uuid.UUID(i).String() }

func (i BarangayID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }
func (i UserID) IsNil() bool     { return uuid.UUID(i) == uuid.Nil }
func (i RequestID) IsNil() bool  { return uuid.UUID(i) == uuid.Nil }
func (i RecordID) IsNil() bool   { return uuid.UUID(i) == uuid.Nil }

// Ids travel as canonical UUID strings in JSON and other text encodings.

func (i BarangayID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }
func (i UserID) MarshalText() ([]byte, error)     { return []byte(i.String()), nil }
func (i RequestID) MarshalText() ([]byte, error)  { return []byte(i.String()), nil }
func (i RecordID) MarshalText() ([]byte, error)   { return []byte(i.String()), nil }

func (i *BarangayID) UnmarshalText(text []byte) error {
	parsed, err := ParseBarangayID(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

func (i *UserID) UnmarshalText(text []byte) error {
	parsed, err := ParseUserID(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

func (i *RequestID) UnmarshalText(text []byte) error {
	parsed, err := ParseRequestID(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

func (i *RecordID) UnmarshalText(text []byte) error {
	parsed, err := ParseRecordID(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// NewBarangayID returns a fresh random BarangayID.
func NewBarangayID() BarangayID { return BarangayID(uuid.New()) }

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewRequestID returns a fresh random RequestID.
func NewRequestID() RequestID { return RequestID(uuid.New()) }

// NewRecordID returns a fresh random RecordID.
func NewRecordID() RecordID { return RecordID(uuid.New()) }

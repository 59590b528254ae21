package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/hybridrank/hybridrank/helper"
)

// Metadata holds free-form candidate annotations, stored as JSONB in
// PostgreSQL.
type Metadata map[string]interface{}

// Marshal serializes the metadata to JSON
func (m Metadata) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal deserializes metadata from JSON bytes. A nil value yields
// an empty metadata map; an existing Metadata value is taken as is.
func (m *Metadata) Unmarshal(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}

	if existing, ok := value.(Metadata); ok {
		*m = existing
		return nil
	}

	raw, ok := value.([]byte)
	if !ok {
		return helper.NewError("byte assertion", errors.New("type assertion to []byte failed"))
	}

	return json.Unmarshal(raw, m)
}

// Value implements driver.Valuer for database storage
func (m Metadata) Value() (driver.Value, error) {
	return m.Marshal()
}

// Scan implements sql.Scanner for database retrieval
func (m *Metadata) Scan(value interface{}) error {
	return m.Unmarshal(value)
}

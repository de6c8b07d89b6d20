package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ExtraFields carries extension-registered columns as a JSONB bag.
type ExtraFields map[string]string

// Value implements driver.Valuer for JSONB storage.
func (e ExtraFields) Value() (driver.Value, error) {
	if len(e) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(e)
}

// Scan implements sql.Scanner.
func (e *ExtraFields) Scan(src interface{}) error {
	if src == nil {
		*e = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported extra fields type %T", src)
	}
	if len(raw) == 0 {
		*e = nil
		return nil
	}
	return json.Unmarshal(raw, e)
}

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is a backend identifier. The API is not consistent about sending ids
// as JSON numbers or as numeric strings, so ID accepts both and keeps the
// textual form. Comparisons between ids are plain string equality.
type ID string

// String returns the textual form of the id.
func (id ID) String() string { return string(id) }

// IsZero reports whether the id is unset.
func (id ID) IsZero() bool { return strings.TrimSpace(string(id)) == "" }

// UnmarshalJSON accepts a JSON number, a JSON string, or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding id: %w", err)
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decoding id %s: %w", string(data), err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON emits integer ids as JSON numbers, which is what the backend
// stores, and anything else as a string.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(id))
}

// Decimal is a numeric field that the backend may send as a number, a
// numeric string (Postgres NUMERIC columns), or null. Null and empty
// strings decode to zero.
type Decimal float64

// Float returns the value as a float64.
func (d Decimal) Float() float64 { return float64(d) }

// UnmarshalJSON accepts numbers, numeric strings, and null.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = 0
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding decimal: %w", err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*d = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("decoding decimal %q: %w", s, err)
		}
		*d = Decimal(f)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decoding decimal %s: %w", string(data), err)
	}
	*d = Decimal(f)
	return nil
}

// DecimalPtr returns a pointer to a Decimal holding f.
func DecimalPtr(f float64) *Decimal {
	d := Decimal(f)
	return &d
}

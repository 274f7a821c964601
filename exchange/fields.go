package exchange

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

var jsonNull = []byte("null")

func unquote(data []byte) ([]byte, bool) {
	data = bytes.TrimSpace(data)
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return data, false
		}
		return []byte(s), true
	}
	return data, false
}

// Decimal is a response field that may arrive as a JSON string or number.
// Absent, null and empty-string values leave Set false. Anything else must
// parse as a decimal or unmarshalling fails.
type Decimal struct {
	Value decimal.Decimal
	Set   bool
}

func (d *Decimal) UnmarshalJSON(data []byte) error {
	*d = Decimal{}
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		return nil
	}
	s, _ := unquote(data)
	if len(s) == 0 {
		return nil
	}
	v, err := decimal.NewFromString(string(s))
	if err != nil {
		return fmt.Errorf("invalid decimal %s: %w", data, err)
	}
	d.Value, d.Set = v, true
	return nil
}

// Null converts the field into an optional decimal.
func (d Decimal) Null() decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d.Value, Valid: d.Set}
}

// Require returns the value or a missing-field error naming field.
func (d Decimal) Require(field string) (decimal.Decimal, error) {
	if !d.Set {
		return decimal.Zero, MissingField(field)
	}
	return d.Value, nil
}

// Text is a response field holding an identifier that some exchanges send as
// a number and others as a string.
type Text struct {
	Value string
	Set   bool
}

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = Text{}
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		return nil
	}
	s, quoted := unquote(data)
	if !quoted {
		if _, err := strconv.ParseFloat(string(s), 64); err != nil {
			return fmt.Errorf("invalid text value %s", data)
		}
	}
	t.Value, t.Set = string(s), true
	return nil
}

func (t Text) Require(field string) (string, error) {
	if !t.Set || t.Value == "" {
		return "", MissingField(field)
	}
	return t.Value, nil
}

// Int is an integer field sent either as a JSON number or a numeric string.
type Int struct {
	Value int64
	Set   bool
}

func (i *Int) UnmarshalJSON(data []byte) error {
	*i = Int{}
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		return nil
	}
	s, _ := unquote(data)
	if len(s) == 0 {
		return nil
	}
	v, err := strconv.ParseInt(string(s), 10, 64)
	if err != nil {
		// Tolerate integral floats such as 1609459200.0.
		d, derr := decimal.NewFromString(string(s))
		if derr != nil || !d.Equal(d.Truncate(0)) {
			return fmt.Errorf("invalid integer %s", data)
		}
		v = d.IntPart()
	}
	i.Value, i.Set = v, true
	return nil
}

func (i Int) Require(field string) (int64, error) {
	if !i.Set {
		return 0, MissingField(field)
	}
	return i.Value, nil
}

package exchange

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDecimalField(t *testing.T) {
	tests := []struct {
		in      string
		set     bool
		want    string
		wantErr bool
	}{
		{`"100.5"`, true, "100.5", false},
		{`100.5`, true, "100.5", false},
		{`"1e-8"`, true, "0.00000001", false},
		{`null`, false, "0", false},
		{`""`, false, "0", false},
		{`"abc"`, false, "0", true},
		{`true`, false, "0", true},
	}
	for _, tt := range tests {
		var d Decimal
		err := json.Unmarshal([]byte(tt.in), &d)
		if (err != nil) != tt.wantErr {
			t.Fatalf("%s: err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err != nil {
			continue
		}
		if d.Set != tt.set || !d.Value.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("%s: got %+v", tt.in, d)
		}
	}
}

func TestDecimalRequire(t *testing.T) {
	var d Decimal
	if _, err := d.Require("price"); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
	if d.Null().Valid {
		t.Fatalf("absent field should be unknown, not zero")
	}
}

func TestTextField(t *testing.T) {
	var r struct {
		A Text `json:"a"`
		B Text `json:"b"`
		C Text `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a": 42, "b": "x-1", "c": null}`), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.A.Value != "42" || r.B.Value != "x-1" || r.C.Set {
		t.Errorf("unexpected %+v", r)
	}
	var bad Text
	if err := json.Unmarshal([]byte(`{}`), &bad); err == nil {
		t.Errorf("expected error for object")
	}
}

func TestIntField(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{`0`, 0, false},
		{`"1609459200"`, 1609459200, false},
		{`1609459200.0`, 1609459200, false},
		{`"1.5"`, 0, true},
		{`"x"`, 0, true},
	}
	for _, tt := range tests {
		var i Int
		err := json.Unmarshal([]byte(tt.in), &i)
		if (err != nil) != tt.wantErr {
			t.Fatalf("%s: err = %v", tt.in, err)
		}
		if err == nil && (!i.Set || i.Value != tt.want) {
			t.Errorf("%s: got %+v", tt.in, i)
		}
	}
}

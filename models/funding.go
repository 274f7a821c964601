package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Withdrawal is the exchange's acknowledgement of a withdrawal request.
type Withdrawal struct {
	ID       string          `json:"id"`
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
	Address  string          `json:"address"`
	TxHash   string          `json:"txHash,omitempty"`
	Info     json.RawMessage `json:"info,omitempty"`
}

type DepositAddress struct {
	Currency string          `json:"currency"`
	Address  string          `json:"address"`
	Label    string          `json:"label,omitempty"`
	Info     json.RawMessage `json:"info,omitempty"`
}

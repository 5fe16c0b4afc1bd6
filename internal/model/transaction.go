// Package model defines the domain types shared by the client packages.
package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType says whether money came in or went out.
type TransactionType string

const (
	// TypeIncome represents money received. Amounts are positive.
	TypeIncome TransactionType = "INCOME"
	// TypeExpense represents money spent. Amounts are negative.
	TypeExpense TransactionType = "EXPENSE"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Sign returns +1 for income and -1 for expenses.
func (t TransactionType) Sign() int {
	if t == TypeExpense {
		return -1
	}
	return 1
}

// TimestampLayout is the ISO-8601 form the REST service expects for dates.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// DateLayout is the short date form accepted from users.
const DateLayout = "2006-01-02"

// Transaction is a server-confirmed financial record.
type Transaction struct {
	TransactionDate time.Time
	BalanceAfter    *decimal.Decimal
	ID              string
	Type            TransactionType
	CategoryID      string
	UserID          string
	Comment         string
	Amount          decimal.Decimal
}

type transactionJSON struct {
	BalanceAfter    *decimal.Decimal `json:"balanceAfter,omitempty"`
	ID              string           `json:"id"`
	TransactionDate string           `json:"transactionDate"`
	Type            TransactionType  `json:"type"`
	CategoryID      string           `json:"categoryId"`
	UserID          string           `json:"userId,omitempty"`
	Comment         string           `json:"comment"`
	Amount          decimal.Decimal  `json:"amount"`
}

// MarshalJSON writes the transaction in the service's wire format.
func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionJSON{
		ID:              t.ID,
		TransactionDate: FormatTimestamp(t.TransactionDate),
		Type:            t.Type,
		CategoryID:      t.CategoryID,
		UserID:          t.UserID,
		Comment:         t.Comment,
		Amount:          t.Amount,
		BalanceAfter:    t.BalanceAfter,
	})
}

// UnmarshalJSON accepts full timestamps as well as bare dates.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var raw transactionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	date, err := ParseTimestamp(raw.TransactionDate)
	if err != nil {
		return fmt.Errorf("transaction %s: %w", raw.ID, err)
	}

	*t = Transaction{
		ID:              raw.ID,
		TransactionDate: date,
		Type:            raw.Type,
		CategoryID:      raw.CategoryID,
		UserID:          raw.UserID,
		Comment:         raw.Comment,
		Amount:          raw.Amount,
		BalanceAfter:    raw.BalanceAfter,
	}
	return nil
}

// FormatTimestamp renders a time in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses RFC 3339 timestamps and plain YYYY-MM-DD dates.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date '%s': %w", s, err)
	}
	return t, nil
}

package model

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Veraticus/walletflow/internal/common"
	"github.com/shopspring/decimal"
)

// MaxCommentLength is the longest comment the service accepts.
const MaxCommentLength = 30

// Validation messages shown to the user.
const (
	MsgAmountRequired   = "Amount is required."
	MsgAmountInvalid    = "The amount must be a valid number."
	MsgAmountPositive   = "The amount must be positive."
	MsgTypeRequired     = "Type is required."
	MsgDateRequired     = "Date is required."
	MsgDateInFuture     = "Transaction date cannot be in the future."
	MsgCategoryRequired = "Expense category is required."
	MsgIncomeCategory   = "No income category is available."
	MsgCommentTooLong   = "Comment cannot exceed 30 characters."
)

// TransactionDraft is user input for a new or edited transaction.
// Amount is kept as typed; its sign is ignored and replaced by the type's.
type TransactionDraft struct {
	TransactionDate time.Time
	Type            TransactionType
	Amount          string
	CategoryID      string
	Comment         string
}

// TransactionPatch carries the edited fields of an existing transaction.
// It is normalized with the same rules as a new draft.
type TransactionPatch = TransactionDraft

// TransactionPayload is a normalized draft ready to be sent to the service.
type TransactionPayload struct {
	TransactionDate time.Time
	Type            TransactionType
	CategoryID      string
	Comment         string
	Amount          decimal.Decimal
}

// MarshalJSON encodes the amount as a JSON number and the date as ISO-8601.
func (p TransactionPayload) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TransactionDate string          `json:"transactionDate"`
		Type            TransactionType `json:"type"`
		CategoryID      string          `json:"categoryId"`
		Comment         string          `json:"comment"`
		Amount          json.Number     `json:"amount"`
	}{
		TransactionDate: FormatTimestamp(p.TransactionDate),
		Type:            p.Type,
		CategoryID:      p.CategoryID,
		Comment:         p.Comment,
		Amount:          json.Number(p.Amount.String()),
	})
}

// ParseAmount parses a user-typed amount. Both "12.34" and "12,34" are accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, common.NewValidationError("amount", MsgAmountRequired)
	}
	s = strings.ReplaceAll(s, ",", ".")

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, common.NewValidationError("amount", MsgAmountInvalid)
	}
	return amount, nil
}

// Normalize validates the draft and produces the payload sent to the service.
// Income transactions always use the first income category; expenses require
// an explicit category. No network call should happen if this fails.
func (d TransactionDraft) Normalize(incomeCategories []Category, now time.Time) (TransactionPayload, error) {
	if !d.Type.Valid() {
		return TransactionPayload{}, common.NewValidationError("type", MsgTypeRequired)
	}

	amount, err := ParseAmount(d.Amount)
	if err != nil {
		return TransactionPayload{}, err
	}
	amount = amount.Abs()
	if amount.IsZero() {
		return TransactionPayload{}, common.NewValidationError("amount", MsgAmountPositive)
	}
	if d.Type == TypeExpense {
		amount = amount.Neg()
	}

	if d.TransactionDate.IsZero() {
		return TransactionPayload{}, common.NewValidationError("transactionDate", MsgDateRequired)
	}
	if d.TransactionDate.After(now) {
		return TransactionPayload{}, common.NewValidationError("transactionDate", MsgDateInFuture)
	}

	// The limit applies to the comment as typed.
	if utf8.RuneCountInString(d.Comment) > MaxCommentLength {
		return TransactionPayload{}, common.NewValidationError("comment", MsgCommentTooLong)
	}
	comment := strings.TrimSpace(d.Comment)

	var categoryID string
	switch d.Type {
	case TypeIncome:
		if len(incomeCategories) == 0 {
			return TransactionPayload{}, common.NewValidationError("categoryId", MsgIncomeCategory)
		}
		categoryID = incomeCategories[0].ID
	case TypeExpense:
		categoryID = strings.TrimSpace(d.CategoryID)
		if categoryID == "" {
			return TransactionPayload{}, common.NewValidationError("categoryId", MsgCategoryRequired)
		}
	}

	return TransactionPayload{
		TransactionDate: d.TransactionDate,
		Type:            d.Type,
		CategoryID:      categoryID,
		Comment:         comment,
		Amount:          amount,
	}, nil
}

// DraftFrom pre-fills a draft from an existing transaction for editing.
func DraftFrom(tx Transaction) TransactionDraft {
	draft := TransactionDraft{
		TransactionDate: tx.TransactionDate,
		Type:            tx.Type,
		Amount:          tx.Amount.Abs().String(),
		Comment:         tx.Comment,
	}
	if tx.Type == TypeExpense {
		draft.CategoryID = tx.CategoryID
	}
	return draft
}

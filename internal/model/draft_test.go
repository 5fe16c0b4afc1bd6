package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/walletflow/internal/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testNow          = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	incomeCategories = []Category{
		{ID: "inc-1", Name: "Salary", Kind: TypeIncome},
		{ID: "inc-2", Name: "Gifts", Kind: TypeIncome},
	}
)

func TestTransactionDraft_Normalize_Sign(t *testing.T) {
	tests := []struct {
		name       string
		draftType  TransactionType
		amount     string
		wantAmount string
	}{
		{name: "income positive stays positive", draftType: TypeIncome, amount: "100", wantAmount: "100"},
		{name: "income typed negative becomes positive", draftType: TypeIncome, amount: "-100.25", wantAmount: "100.25"},
		{name: "expense positive becomes negative", draftType: TypeExpense, amount: "45.50", wantAmount: "-45.5"},
		{name: "expense negative stays negative", draftType: TypeExpense, amount: "-3", wantAmount: "-3"},
		{name: "comma decimal separator", draftType: TypeExpense, amount: "12,34", wantAmount: "-12.34"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := TransactionDraft{
				Type:            tt.draftType,
				Amount:          tt.amount,
				CategoryID:      "cat-1",
				TransactionDate: testNow.AddDate(0, 0, -1),
			}

			payload, err := draft.Normalize(incomeCategories, testNow)
			require.NoError(t, err)

			assert.True(t, payload.Amount.Equal(decimal.RequireFromString(tt.wantAmount)),
				"got %s want %s", payload.Amount, tt.wantAmount)
			assert.Equal(t, tt.draftType.Sign(), payload.Amount.Sign())
		})
	}
}

func TestTransactionDraft_Normalize_Categories(t *testing.T) {
	income := TransactionDraft{Type: TypeIncome, Amount: "10", CategoryID: "ignored", TransactionDate: testNow}
	payload, err := income.Normalize(incomeCategories, testNow)
	require.NoError(t, err)
	assert.Equal(t, "inc-1", payload.CategoryID)

	_, err = income.Normalize(nil, testNow)
	assertValidation(t, err, "categoryId", MsgIncomeCategory)

	expense := TransactionDraft{Type: TypeExpense, Amount: "10", TransactionDate: testNow}
	_, err = expense.Normalize(incomeCategories, testNow)
	assertValidation(t, err, "categoryId", MsgCategoryRequired)
}

func TestTransactionDraft_Normalize_Validation(t *testing.T) {
	valid := TransactionDraft{
		Type:            TypeExpense,
		Amount:          "5",
		CategoryID:      "cat-1",
		Comment:         "ok",
		TransactionDate: testNow,
	}

	tests := []struct {
		mutate    func(d *TransactionDraft)
		name      string
		wantField string
		wantMsg   string
	}{
		{name: "missing type", mutate: func(d *TransactionDraft) { d.Type = "" }, wantField: "type", wantMsg: MsgTypeRequired},
		{name: "empty amount", mutate: func(d *TransactionDraft) { d.Amount = " " }, wantField: "amount", wantMsg: MsgAmountRequired},
		{name: "garbage amount", mutate: func(d *TransactionDraft) { d.Amount = "ten" }, wantField: "amount", wantMsg: MsgAmountInvalid},
		{name: "zero amount", mutate: func(d *TransactionDraft) { d.Amount = "0.00" }, wantField: "amount", wantMsg: MsgAmountPositive},
		{name: "missing date", mutate: func(d *TransactionDraft) { d.TransactionDate = time.Time{} }, wantField: "transactionDate", wantMsg: MsgDateRequired},
		{name: "future date", mutate: func(d *TransactionDraft) { d.TransactionDate = testNow.Add(time.Minute) }, wantField: "transactionDate", wantMsg: MsgDateInFuture},
		{name: "31 character comment", mutate: func(d *TransactionDraft) { d.Comment = strings.Repeat("a", 31) }, wantField: "comment", wantMsg: MsgCommentTooLong},
		{name: "30 characters plus trailing space", mutate: func(d *TransactionDraft) { d.Comment = strings.Repeat("a", 30) + " " }, wantField: "comment", wantMsg: MsgCommentTooLong},
		{name: "30 characters plus leading space", mutate: func(d *TransactionDraft) { d.Comment = " " + strings.Repeat("a", 30) }, wantField: "comment", wantMsg: MsgCommentTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := valid
			tt.mutate(&draft)
			_, err := draft.Normalize(incomeCategories, testNow)
			assertValidation(t, err, tt.wantField, tt.wantMsg)
		})
	}

	t.Run("30 character comment is accepted", func(t *testing.T) {
		draft := valid
		draft.Comment = strings.Repeat("é", 30)
		_, err := draft.Normalize(incomeCategories, testNow)
		assert.NoError(t, err)
	})
}

func TestTransactionPayload_MarshalJSON(t *testing.T) {
	draft := TransactionDraft{
		Type:            TypeExpense,
		Amount:          "45.50",
		CategoryID:      "cat-1",
		Comment:         "lunch",
		TransactionDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	payload, err := draft.Normalize(incomeCategories, testNow)
	require.NoError(t, err)

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"amount": -45.5,
		"categoryId": "cat-1",
		"type": "EXPENSE",
		"comment": "lunch",
		"transactionDate": "2024-05-01T00:00:00.000Z"
	}`, string(data))
}

func TestTransaction_UnmarshalJSON(t *testing.T) {
	var txs []Transaction
	err := json.Unmarshal([]byte(`[
		{"id":"t1","transactionDate":"2024-05-01T10:30:00.000Z","type":"EXPENSE","categoryId":"c1","comment":"x","amount":-20.5,"balanceAfter":79.5},
		{"id":"t2","transactionDate":"2024-05-02","type":"INCOME","categoryId":"c2","comment":"","amount":"100"}
	]`), &txs)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC), txs[0].TransactionDate.UTC())
	assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("-20.5")))
	require.NotNil(t, txs[0].BalanceAfter)
	assert.True(t, txs[0].BalanceAfter.Equal(decimal.RequireFromString("79.5")))

	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), txs[1].TransactionDate)
	assert.Nil(t, txs[1].BalanceAfter)

	var bad Transaction
	assert.Error(t, json.Unmarshal([]byte(`{"id":"t3","transactionDate":"yesterday"}`), &bad))
}

func TestDraftFrom(t *testing.T) {
	expense := Transaction{
		ID:              "t1",
		Type:            TypeExpense,
		Amount:          decimal.RequireFromString("-12.5"),
		CategoryID:      "c1",
		Comment:         "taxi",
		TransactionDate: testNow,
	}
	draft := DraftFrom(expense)
	assert.Equal(t, "12.5", draft.Amount)
	assert.Equal(t, "c1", draft.CategoryID)

	income := expense
	income.Type = TypeIncome
	income.Amount = decimal.NewFromInt(40)
	assert.Empty(t, DraftFrom(income).CategoryID)
}

func TestPartitionCategories(t *testing.T) {
	income, expense := PartitionCategories([]Category{
		{ID: "1", Name: "Salary", Kind: TypeIncome},
		{ID: "2", Name: "Food", Kind: TypeExpense},
		{ID: "3", Name: "Car", Kind: TypeExpense},
		{ID: "4", Name: "Mystery", Kind: "OTHER"},
	})

	assert.Equal(t, []Category{{ID: "1", Name: "Salary", Kind: TypeIncome}}, income)
	require.Len(t, expense, 2)
	assert.Equal(t, "2", expense[0].ID)
	assert.Equal(t, "3", expense[1].ID)

	found, ok := FindCategory(expense, "3")
	assert.True(t, ok)
	assert.Equal(t, "Car", found.Name)
	_, ok = FindCategory(expense, "9")
	assert.False(t, ok)
}

func assertValidation(t *testing.T, err error, field, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrValidation))

	var vErr *common.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, field, vErr.Field)
	assert.Equal(t, msg, vErr.Message)
}

// Package aggregate derives category totals and balances from cached transactions.
// Everything here is pure: no I/O and no shared state.
package aggregate

import (
	"sort"
	"time"

	"github.com/Veraticus/walletflow/internal/model"
	"github.com/shopspring/decimal"
)

// UncategorizedName labels transactions that carry no category.
const UncategorizedName = "Uncategorized"

// CategoryTotal is the signed sum of one category's transactions.
type CategoryTotal struct {
	CategoryID string
	Name       string
	Type       model.TransactionType
	Total      decimal.Decimal
	Count      int
}

// Summary is the derived view of a set of transactions.
type Summary struct {
	AsOf              time.Time
	CategoriesSummary []CategoryTotal
	BalanceAfter      decimal.Decimal
	IncomeTotal       decimal.Decimal
	ExpenseTotal      decimal.Decimal
}

// Summarize totals every transaction dated at or before asOf by category.
// Output is sorted by category ID.
func Summarize(transactions []model.Transaction, categories []model.Category, asOf time.Time) Summary {
	names := make(map[string]model.Category, len(categories))
	for _, c := range categories {
		names[c.ID] = c
	}

	summary := Summary{
		AsOf:         asOf,
		BalanceAfter: decimal.Zero,
		IncomeTotal:  decimal.Zero,
		ExpenseTotal: decimal.Zero,
	}
	totals := make(map[string]*CategoryTotal)

	for _, tx := range transactions {
		if tx.TransactionDate.After(asOf) {
			continue
		}

		summary.BalanceAfter = summary.BalanceAfter.Add(tx.Amount)
		if tx.Amount.IsNegative() {
			summary.ExpenseTotal = summary.ExpenseTotal.Add(tx.Amount)
		} else {
			summary.IncomeTotal = summary.IncomeTotal.Add(tx.Amount)
		}

		total, ok := totals[tx.CategoryID]
		if !ok {
			total = &CategoryTotal{
				CategoryID: tx.CategoryID,
				Name:       categoryName(names, tx.CategoryID),
				Type:       categoryType(names, tx),
				Total:      decimal.Zero,
			}
			totals[tx.CategoryID] = total
		}
		total.Total = total.Total.Add(tx.Amount)
		total.Count++
	}

	summary.CategoriesSummary = make([]CategoryTotal, 0, len(totals))
	for _, total := range totals {
		summary.CategoriesSummary = append(summary.CategoriesSummary, *total)
	}
	sort.Slice(summary.CategoriesSummary, func(i, j int) bool {
		return summary.CategoriesSummary[i].CategoryID < summary.CategoriesSummary[j].CategoryID
	})

	return summary
}

// SummarizeRange totals only transactions dated within [from, to).
// The balance covers the same window.
func SummarizeRange(transactions []model.Transaction, categories []model.Category, from, to time.Time) Summary {
	window := make([]model.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if !tx.TransactionDate.Before(from) && tx.TransactionDate.Before(to) {
			window = append(window, tx)
		}
	}
	return Summarize(window, categories, to.Add(-time.Nanosecond))
}

// MonthlyRange returns the half-open interval covering a calendar month in loc.
func MonthlyRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 1, 0)
}

// Expenses returns the expense categories of a summary.
func (s Summary) Expenses() []CategoryTotal {
	var out []CategoryTotal
	for _, t := range s.CategoriesSummary {
		if t.Type == model.TypeExpense {
			out = append(out, t)
		}
	}
	return out
}

func categoryName(names map[string]model.Category, id string) string {
	if id == "" {
		return UncategorizedName
	}
	if c, ok := names[id]; ok {
		return c.Name
	}
	return id
}

func categoryType(names map[string]model.Category, tx model.Transaction) model.TransactionType {
	if c, ok := names[tx.CategoryID]; ok && c.Kind.Valid() {
		return c.Kind
	}
	if tx.Type.Valid() {
		return tx.Type
	}
	if tx.Amount.IsNegative() {
		return model.TypeExpense
	}
	return model.TypeIncome
}

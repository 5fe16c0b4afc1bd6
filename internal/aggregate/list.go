package aggregate

import (
	"sort"
	"time"

	"github.com/Veraticus/walletflow/internal/model"
)

// Filter returns the transactions dated at or before asOf. The input is not modified.
func Filter(transactions []model.Transaction, asOf time.Time) []model.Transaction {
	out := make([]model.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if !tx.TransactionDate.After(asOf) {
			out = append(out, tx)
		}
	}
	return out
}

// SortByDate returns a copy sorted by transaction date. Ties keep their input order.
func SortByDate(transactions []model.Transaction, desc bool) []model.Transaction {
	out := append([]model.Transaction(nil), transactions...)
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return out[i].TransactionDate.After(out[j].TransactionDate)
		}
		return out[i].TransactionDate.Before(out[j].TransactionDate)
	})
	return out
}

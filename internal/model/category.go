package model

// Category is a named grouping of transactions. Kind reuses the transaction
// type values to split categories into income and expense sets.
type Category struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Kind TransactionType `json:"type"`
}

// PartitionCategories splits categories into income and expense lists,
// preserving server order. Categories of unknown kind are dropped.
func PartitionCategories(categories []Category) (income, expense []Category) {
	income = make([]Category, 0, len(categories))
	expense = make([]Category, 0, len(categories))
	for _, c := range categories {
		switch c.Kind {
		case TypeIncome:
			income = append(income, c)
		case TypeExpense:
			expense = append(expense, c)
		}
	}
	return income, expense
}

// FindCategory returns the category with the given ID.
func FindCategory(categories []Category, id string) (Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

package tui

import (
	"net/mail"
	"strings"
	"time"

	"github.com/Veraticus/walletflow/internal/common"
	"github.com/Veraticus/walletflow/internal/model"
	"github.com/Veraticus/walletflow/internal/tui/themes"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 12
)

const (
	authEmail = iota
	authPassword
	authName
)

// authForm is the login or registration form.
type authForm struct {
	err      string
	inputs   []textinput.Model
	focus    int
	register bool
	busy     bool
}

func newAuthForm(register bool) authForm {
	email := textinput.New()
	email.Placeholder = "E-mail"
	email.CharLimit = 64
	email.Focus()

	password := textinput.New()
	password.Placeholder = "Password"
	password.EchoMode = textinput.EchoPassword
	password.CharLimit = maxPasswordLength

	name := textinput.New()
	name.Placeholder = "First name"
	name.CharLimit = 32

	inputs := []textinput.Model{email, password}
	if register {
		inputs = append(inputs, name)
	}
	return authForm{inputs: inputs, register: register}
}

func (f authForm) credentials() model.Credentials {
	creds := model.Credentials{
		Email:    strings.TrimSpace(f.inputs[authEmail].Value()),
		Password: f.inputs[authPassword].Value(),
	}
	if f.register {
		creds.Name = strings.TrimSpace(f.inputs[authName].Value())
	}
	return creds
}

func (f authForm) validate() error {
	creds := f.credentials()
	if creds.Email == "" {
		return common.NewValidationError("email", "E-mail is required.")
	}
	if _, err := mail.ParseAddress(creds.Email); err != nil {
		return common.NewValidationError("email", "Enter a valid e-mail address.")
	}
	if creds.Password == "" {
		return common.NewValidationError("password", "Password is required.")
	}
	if f.register {
		if n := len([]rune(creds.Password)); n < minPasswordLength || n > maxPasswordLength {
			return common.NewValidationError("password", "Password must be 6 to 12 characters.")
		}
		if creds.Name == "" {
			return common.NewValidationError("name", "Name is required.")
		}
	}
	return nil
}

func (f authForm) update(msg tea.Msg, keys KeyMap) (authForm, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, keys.NextField):
			return f.setFocus((f.focus + 1) % len(f.inputs)), nil
		case key.Matches(k, keys.PrevField):
			return f.setFocus((f.focus + len(f.inputs) - 1) % len(f.inputs)), nil
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f authForm) setFocus(i int) authForm {
	for j := range f.inputs {
		if j == i {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
	f.focus = i
	return f
}

func (f authForm) view(theme themes.Theme, keys KeyMap) string {
	title := "Log in"
	alt := "No account? " + keys.SwitchAuth.Help().Key + " to register"
	if f.register {
		title = "Registration"
		alt = "Have an account? " + keys.SwitchAuth.Help().Key + " to log in"
	}

	lines := []string{theme.Title.Render("👛 Wallet · " + title)}
	for _, in := range f.inputs {
		lines = append(lines, in.View())
	}
	lines = append(lines, "")
	switch {
	case f.busy:
		lines = append(lines, theme.StatusInfo.Render("Please wait..."))
	case f.err != "":
		lines = append(lines, theme.StatusError.Render(f.err))
	default:
		lines = append(lines, theme.Muted.Render(keys.Submit.Help().Key+" to submit"))
	}
	lines = append(lines, theme.Muted.Render(alt))

	return theme.Modal.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

const (
	fieldType = iota
	fieldAmount
	fieldDate
	fieldCategory
	fieldComment
	fieldCount
)

// txForm adds or edits a transaction.
type txForm struct {
	err        string
	editingID  string
	txType     model.TransactionType
	categories []model.Category
	amount     textinput.Model
	date       textinput.Model
	comment    textinput.Model
	category   int
	focus      int
	busy       bool
}

func newTxForm(expense []model.Category, now time.Time) txForm {
	f := txForm{
		txType:     model.TypeExpense,
		categories: expense,
		amount:     textinput.New(),
		date:       textinput.New(),
		comment:    textinput.New(),
	}
	f.amount.Placeholder = "0.00"
	f.amount.CharLimit = 16
	f.date.Placeholder = model.DateLayout
	f.date.CharLimit = len(model.DateLayout)
	f.date.SetValue(now.Format(model.DateLayout))
	f.comment.Placeholder = "Comment"
	f.comment.CharLimit = model.MaxCommentLength
	return f.setFocus(fieldAmount)
}

func editTxForm(tx model.Transaction, expense []model.Category, now time.Time) txForm {
	draft := model.DraftFrom(tx)
	f := newTxForm(expense, now)
	f.editingID = tx.ID
	f.txType = draft.Type
	f.amount.SetValue(draft.Amount)
	f.date.SetValue(draft.TransactionDate.In(now.Location()).Format(model.DateLayout))
	f.comment.SetValue(draft.Comment)
	for i, c := range expense {
		if c.ID == draft.CategoryID {
			f.category = i
		}
	}
	return f
}

func (f txForm) editing() bool {
	return f.editingID != ""
}

// draft converts the form into a transaction draft. Only the date is
// checked here; everything else is validated by the store.
func (f txForm) draft(loc *time.Location) (model.TransactionDraft, error) {
	date, err := time.ParseInLocation(model.DateLayout, strings.TrimSpace(f.date.Value()), loc)
	if err != nil {
		return model.TransactionDraft{}, common.NewValidationError("transactionDate", "Date must look like 2024-01-31.")
	}

	d := model.TransactionDraft{
		TransactionDate: date,
		Type:            f.txType,
		Amount:          f.amount.Value(),
		Comment:         f.comment.Value(),
	}
	if f.txType == model.TypeExpense && len(f.categories) > 0 {
		d.CategoryID = f.categories[f.category].ID
	}
	return d, nil
}

func (f txForm) update(msg tea.Msg, keys KeyMap) (txForm, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, keys.NextField):
			return f.setFocus(f.step(1)), nil
		case key.Matches(k, keys.PrevField):
			return f.setFocus(f.step(-1)), nil
		}

		switch f.focus {
		case fieldType:
			switch k.String() {
			case "left", "right", " ", "h", "l":
				if f.txType == model.TypeExpense {
					f.txType = model.TypeIncome
				} else {
					f.txType = model.TypeExpense
				}
			}
			return f, nil
		case fieldCategory:
			if n := len(f.categories); n > 0 {
				switch k.String() {
				case "left", "h":
					f.category = (f.category + n - 1) % n
				case "right", "l", " ":
					f.category = (f.category + 1) % n
				}
			}
			return f, nil
		}
	}

	var cmd tea.Cmd
	switch f.focus {
	case fieldAmount:
		f.amount, cmd = f.amount.Update(msg)
	case fieldDate:
		f.date, cmd = f.date.Update(msg)
	case fieldComment:
		f.comment, cmd = f.comment.Update(msg)
	}
	return f, cmd
}

// step moves focus by delta, skipping the category field for income.
func (f txForm) step(delta int) int {
	next := f.focus
	for {
		next = (next + delta + fieldCount) % fieldCount
		if next != fieldCategory || f.txType == model.TypeExpense {
			return next
		}
	}
}

func (f txForm) setFocus(i int) txForm {
	f.amount.Blur()
	f.date.Blur()
	f.comment.Blur()
	switch i {
	case fieldAmount:
		f.amount.Focus()
	case fieldDate:
		f.date.Focus()
	case fieldComment:
		f.comment.Focus()
	}
	f.focus = i
	return f
}

func (f txForm) view(theme themes.Theme, keys KeyMap) string {
	title := "Add transaction"
	if f.editing() {
		title = "Edit transaction"
	}

	label := func(field int, text string) string {
		if f.focus == field {
			return theme.Focused.Render("› " + text)
		}
		return theme.Blurred.Render("  " + text)
	}

	income, expense := theme.Muted.Render("Income"), theme.Muted.Render("Expense")
	if f.txType == model.TypeIncome {
		income = theme.Income.Bold(true).Render("Income")
	} else {
		expense = theme.Expense.Bold(true).Render("Expense")
	}

	lines := []string{
		theme.Title.Render(title),
		label(fieldType, "Type      ") + income + " / " + expense,
		label(fieldAmount, "Amount    ") + f.amount.View(),
		label(fieldDate, "Date      ") + f.date.View(),
	}
	if f.txType == model.TypeExpense {
		name := theme.Muted.Render("no expense categories")
		if len(f.categories) > 0 {
			name = "‹ " + f.categories[f.category].Name + " ›"
		}
		lines = append(lines, label(fieldCategory, "Category  ")+name)
	}
	lines = append(lines, label(fieldComment, "Comment   ")+f.comment.View(), "")

	switch {
	case f.busy:
		lines = append(lines, theme.StatusInfo.Render("Saving..."))
	case f.err != "":
		lines = append(lines, theme.StatusError.Render(f.err))
	}
	lines = append(lines, theme.Muted.Render(keys.Submit.Help().Key+" save · "+keys.Cancel.Help().Key+" cancel"))

	return theme.Modal.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

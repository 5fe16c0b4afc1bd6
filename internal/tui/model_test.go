package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/walletflow/internal/common"
	"github.com/Veraticus/walletflow/internal/market"
	"github.com/Veraticus/walletflow/internal/model"
	"github.com/Veraticus/walletflow/internal/router"
	"github.com/Veraticus/walletflow/internal/session"
	"github.com/Veraticus/walletflow/internal/store"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type fakeAuthAPI struct {
	signInErr  error
	currentErr error
	token      string
	mu         sync.Mutex
}

func (f *fakeAuthAPI) SignIn(_ context.Context, creds model.Credentials) (model.AuthResponse, error) {
	if f.signInErr != nil {
		return model.AuthResponse{}, f.signInErr
	}
	return model.AuthResponse{Token: "tok", User: model.User{ID: "u1", Name: "Ann", Email: creds.Email}}, nil
}

func (f *fakeAuthAPI) SignUp(_ context.Context, creds model.Credentials) (model.AuthResponse, error) {
	return model.AuthResponse{Token: "tok", User: model.User{ID: "u2", Name: creds.Name, Email: creds.Email}}, nil
}

func (f *fakeAuthAPI) SignOut(_ context.Context) error { return nil }

func (f *fakeAuthAPI) CurrentUser(_ context.Context) (model.User, error) {
	if f.currentErr != nil {
		return model.User{}, f.currentErr
	}
	return model.User{ID: "u1", Name: "Ann"}, nil
}

func (f *fakeAuthAPI) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

type fakeTxAPI struct {
	created      []model.TransactionPayload
	deleted      []string
	transactions []model.Transaction
	categories   []model.Category
	listCalls    int
	mu           sync.Mutex
}

func newFakeTxAPI() *fakeTxAPI {
	return &fakeTxAPI{
		categories: []model.Category{
			{ID: "c-salary", Name: "Income", Kind: model.TypeIncome},
			{ID: "c-food", Name: "Products", Kind: model.TypeExpense},
			{ID: "c-car", Name: "Car", Kind: model.TypeExpense},
		},
		transactions: []model.Transaction{
			{ID: "t1", Type: model.TypeIncome, CategoryID: "c-salary", Comment: "June salary",
				Amount: decimal.NewFromInt(1000), TransactionDate: testNow.AddDate(0, 0, -10)},
			{ID: "t2", Type: model.TypeExpense, CategoryID: "c-food", Comment: "Groceries",
				Amount: decimal.NewFromInt(-40), TransactionDate: testNow.AddDate(0, 0, -1)},
		},
	}
}

func (f *fakeTxAPI) ListTransactions(_ context.Context) ([]model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return append([]model.Transaction(nil), f.transactions...), nil
}

func (f *fakeTxAPI) CreateTransaction(_ context.Context, p model.TransactionPayload) (model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, p)
	return model.Transaction{ID: "new", Type: p.Type, CategoryID: p.CategoryID, Comment: p.Comment,
		Amount: p.Amount, TransactionDate: p.TransactionDate}, nil
}

func (f *fakeTxAPI) UpdateTransaction(_ context.Context, id string, p model.TransactionPayload) (model.Transaction, error) {
	return model.Transaction{ID: id, Type: p.Type, CategoryID: p.CategoryID, Comment: p.Comment,
		Amount: p.Amount, TransactionDate: p.TransactionDate}, nil
}

func (f *fakeTxAPI) DeleteTransaction(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeTxAPI) ListCategories(_ context.Context) ([]model.Category, error) {
	return append([]model.Category(nil), f.categories...), nil
}

type fakeMarket struct {
	err      error
	ratesErr error
	cleared  int
}

func (f *fakeMarket) Rates(_ context.Context, currencies []string) ([]market.Rate, error) {
	if f.ratesErr != nil {
		return nil, f.ratesErr
	}
	out := make([]market.Rate, 0, len(currencies))
	for i, c := range currencies {
		out = append(out, market.Rate{
			Currency: c,
			Buy:      decimal.NewFromInt(int64(40 + i)),
			Sell:     decimal.RequireFromString(fmt.Sprintf("%d.5", 40+i)),
		})
	}
	return out, nil
}

func (f *fakeMarket) MultiKlines(_ context.Context, symbols []string, _ string, _ int) ([]market.Series, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]market.Series, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, market.Series{Symbol: s, Klines: []market.Kline{
			{Close: decimal.NewFromInt(100)},
			{Close: decimal.NewFromInt(110)},
		}})
	}
	return out, nil
}

func (f *fakeMarket) ClearCache() { f.cleared++ }

type harness struct {
	authAPI *fakeAuthAPI
	txAPI   *fakeTxAPI
	market  *fakeMarket
	tokens  *session.MemoryTokenStore
	session *session.Session
	store   *store.Store
	coord   *router.Coordinator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		authAPI: &fakeAuthAPI{},
		txAPI:   newFakeTxAPI(),
		market:  &fakeMarket{},
		tokens:  session.NewMemoryTokenStore(),
	}
	h.session = session.New(h.authAPI, h.tokens)
	h.store = store.New(h.txAPI, store.WithClock(func() time.Time { return testNow }))
	h.coord = router.NewCoordinator(h.session, router.Home, nil)
	t.Cleanup(func() {
		h.coord.Close()
		h.session.Close()
		h.store.Close()
	})
	return h
}

func (h *harness) model(opts ...Option) Model {
	opts = append([]Option{WithClock(func() time.Time { return testNow }), WithSymbols("BTCUSDT", "ETHUSDT"), WithSize(120, 40)}, opts...)
	return New(context.Background(), h.session, h.store, h.market, h.coord, opts...)
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// drain runs cmd and feeds every resulting message back into the model.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, c := range batch {
				m = drain(t, m, c)
			}
			return m
		}
		if msg == nil {
			return m
		}
		m, cmd = update(m, msg)
	}
	return m
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "ctrl+g":
			msg = tea.KeyMsg{Type: tea.KeyCtrlG}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var cmd tea.Cmd
		m, cmd = update(m, msg)
		m = drain(t, m, cmd)
	}
	return m
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m = press(t, m, string(r))
	}
	return m
}

func loggedIn(t *testing.T, h *harness, opts ...Option) Model {
	t.Helper()
	m := h.model(opts...)
	m = typeText(t, m, "ann@example.com")
	m = press(t, m, "tab")
	m = typeText(t, m, "secret1")
	m = press(t, m, "enter")
	require.Equal(t, router.Home, m.route)
	return m
}

func TestModel_StartsOnLogin(t *testing.T) {
	h := newHarness(t)
	m := h.model()

	assert.Equal(t, router.Login, m.route)
	assert.Contains(t, m.View(), "Log in")
}

func TestModel_LoginLoadsDashboard(t *testing.T) {
	h := newHarness(t)
	m := loggedIn(t, h)

	assert.True(t, m.session.Authenticated())
	require.Len(t, m.data.Transactions, 2)
	assert.Len(t, m.data.IncomeCategories, 1)
	assert.Len(t, m.data.ExpenseCategories, 2)

	view := m.View()
	assert.Contains(t, view, "Ann")
	assert.Contains(t, view, "Groceries")
	assert.Contains(t, view, "960.00", "balance")
}

func TestModel_LoginValidation(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		pass    string
		wantErr string
	}{
		{name: "missing email", wantErr: "E-mail is required."},
		{name: "bad email", email: "nope", pass: "x", wantErr: "Enter a valid e-mail address."},
		{name: "missing password", email: "ann@example.com", wantErr: "Password is required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			m := h.model()
			m = typeText(t, m, tt.email)
			m = press(t, m, "tab")
			m = typeText(t, m, tt.pass)
			m = press(t, m, "enter")

			assert.Equal(t, tt.wantErr, m.authForm.err)
			assert.Equal(t, router.Login, m.route)
			assert.Equal(t, session.StateAnonymous, h.session.State())
		})
	}
}

func TestModel_LoginFailureShowsServerMessage(t *testing.T) {
	h := newHarness(t)
	h.authAPI.signInErr = &common.APIError{
		Kind:        common.KindClient,
		Status:      401,
		UserMessage: "Incorrect email or password, or your session has expired.",
	}
	m := h.model()
	m = typeText(t, m, "ann@example.com")
	m = press(t, m, "tab")
	m = typeText(t, m, "wrong")
	m = press(t, m, "enter")

	assert.Equal(t, router.Login, m.route)
	assert.False(t, m.authForm.busy)
	assert.Equal(t, "Incorrect email or password, or your session has expired.", m.authForm.err)
}

func TestModel_SwitchToRegister(t *testing.T) {
	h := newHarness(t)
	m := press(t, h.model(), "ctrl+g")

	assert.Equal(t, router.Register, m.route)
	assert.True(t, m.authForm.register)
	assert.Len(t, m.authForm.inputs, 3)

	m = typeText(t, m, "bo@example.com")
	m = press(t, m, "tab")
	m = typeText(t, m, "secret1")
	m = press(t, m, "tab")
	m = typeText(t, m, "Bo")
	m = press(t, m, "enter")

	assert.Equal(t, router.Home, m.route)
	require.NotNil(t, m.session.User)
	assert.Equal(t, "Bo", m.session.User.Name)
}

func TestModel_AddTransaction(t *testing.T) {
	h := newHarness(t)
	m := loggedIn(t, h)

	m = press(t, m, "a")
	require.True(t, m.data.IsAddModalOpen)
	assert.Contains(t, m.View(), "Add transaction")

	m = typeText(t, m, "12,5")
	m = press(t, m, "enter")

	assert.False(t, m.data.IsAddModalOpen)
	assert.Len(t, m.data.Transactions, 3)
	require.Len(t, h.txAPI.created, 1)
	created := h.txAPI.created[0]
	assert.Equal(t, model.TypeExpense, created.Type)
	assert.Equal(t, "c-food", created.CategoryID)
	assert.True(t, created.Amount.Equal(decimal.RequireFromString("-12.5")), "amount %s", created.Amount)
}

func TestModel_AddIncomeUsesFirstIncomeCategory(t *testing.T) {
	h := newHarness(t)
	m := loggedIn(t, h)

	m = press(t, m, "a")
	m = press(t, m, "tab", "tab", "tab", "tab") // wrap around to the type field
	require.Equal(t, fieldType, m.txForm.focus)
	m = press(t, m, " ")
	require.Equal(t, model.TypeIncome, m.txForm.txType)

	m = press(t, m, "tab")
	m = typeText(t, m, "300")
	m = press(t, m, "enter")

	require.Len(t, h.txAPI.created, 1)
	assert.Equal(t, "c-salary", h.txAPI.created[0].CategoryID)
	assert.True(t, h.txAPI.created[0].Amount.Equal(decimal.NewFromInt(300)))
}

func TestModel_AddValidationStaysOpen(t *testing.T) {
	h := newHarness(t)
	m := loggedIn(t, h)

	m = press(t, m, "a", "enter")

	assert.True(t, m.data.IsAddModalOpen)
	assert.Equal(t, model.MsgAmountRequired, m.txForm.err)
	assert.Empty(t, h.txAPI.created)

	m = press(t, m, "esc")
	assert.False(t, m.data.IsAddModalOpen)
}

func TestModel_EditTransaction(t *testing.T) {
	h := newHarness(t)
	m := loggedIn(t, h)

	// Newest first: t2 is under the cursor.
	m = press(t, m, "e")
	require.True(t, m.data.IsEditModalOpen)
	require.NotNil(t, m.data.EditingTransaction)
	assert.Equal(t, "t2", m.data.EditingTransaction.ID)
	assert.Equal(t, "40", m.txForm.amount.Value())

	m = press(t, m, "enter")
	assert.False(t, m.data.IsEditModalOpen)
}

func TestModel_DeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	m := loggedIn(t, h)

	m = press(t, m, "d", "n")
	assert.Empty(t, h.txAPI.deleted)
	assert.Len(t, m.data.Transactions, 2)

	m = press(t, m, "j", "d")
	assert.Contains(t, m.View(), "Delete this transaction?")
	m = press(t, m, "y")

	assert.Equal(t, []string{"t1"}, h.txAPI.deleted)
	assert.Len(t, m.data.Transactions, 1)
}

func TestModel_ToggleSort(t *testing.T) {
	h := newHarness(t)
	m := loggedIn(t, h)

	assert.Equal(t, "t2", m.visible()[0].ID)
	m = press(t, m, "s")
	assert.Equal(t, "t1", m.visible()[0].ID)
}

func TestModel_TabsActivateLazily(t *testing.T) {
	h := newHarness(t)
	m := loggedIn(t, h)
	require.Equal(t, 1, h.txAPI.listCalls)

	m = press(t, m, "2")
	assert.Equal(t, router.Statistics, m.route)
	assert.Equal(t, 1, h.txAPI.listCalls, "statistics reuses the loaded data")
	view := m.View()
	assert.Contains(t, view, "June 2024")
	assert.Contains(t, view, "Products")

	m = press(t, m, "3")
	assert.Equal(t, router.Currency, m.route)
	require.Len(t, m.performance, 2)
	assert.Contains(t, m.View(), "BTCUSDT")
	assert.Contains(t, m.View(), "10.00%")

	m = press(t, m, "1", "3")
	assert.Equal(t, 0, h.market.cleared)
	m = press(t, m, "r")
	assert.Equal(t, 1, h.market.cleared)
	assert.Equal(t, router.Currency, m.route)
}

func TestModel_MarketError(t *testing.T) {
	h := newHarness(t)
	h.market.err = &common.APIError{Kind: common.KindServer, UserMessage: market.UserMessage}
	m := loggedIn(t, h)

	m = press(t, m, "3")
	assert.Equal(t, market.UserMessage, m.marketErr)
	view := m.View()
	assert.Contains(t, view, market.UserMessage)
	assert.Contains(t, view, "USD/UAH", "rates still load when klines fail")
}

func TestModel_CurrencyRates(t *testing.T) {
	h := newHarness(t)
	m := loggedIn(t, h, WithCurrencies("USD", "EUR"))

	m = press(t, m, "3")
	require.Len(t, m.rates, 2)
	view := m.View()
	assert.Contains(t, view, "USD/UAH")
	assert.Contains(t, view, "40.00")
	assert.Contains(t, view, "41.50")
	assert.Contains(t, view, "EUR/UAH")
}

func TestModel_RatesErrorKeepsPerformance(t *testing.T) {
	h := newHarness(t)
	h.market.ratesErr = &common.APIError{Kind: common.KindClient, Status: 429, UserMessage: market.RatesUserMessage}
	m := loggedIn(t, h)

	m = press(t, m, "3")
	assert.Equal(t, market.RatesUserMessage, m.ratesErr)
	assert.Empty(t, m.marketErr)
	view := m.View()
	assert.Contains(t, view, market.RatesUserMessage)
	assert.Contains(t, view, "BTCUSDT")
}

func TestModel_StatisticsMonthNavigation(t *testing.T) {
	h := newHarness(t)
	m := loggedIn(t, h)
	m = press(t, m, "2", "[")

	assert.Contains(t, m.View(), "May 2024")
	assert.Contains(t, m.View(), "No expenses this month.")
}

func TestModel_LogoutResetsData(t *testing.T) {
	h := newHarness(t)
	m := loggedIn(t, h)

	m = press(t, m, "L")

	assert.Equal(t, router.Login, m.route)
	assert.False(t, m.session.Authenticated())
	assert.Empty(t, m.data.Transactions)
	_, err := h.tokens.LoadSession(context.Background())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestModel_RestoreSession(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.tokens.SaveSession(context.Background(), model.Session{Token: "tok"}))
	h.coord.Hold()

	m := h.model(WithRestore(true))
	assert.Contains(t, m.View(), "Restoring your session")

	m = press(t, m, "a")
	assert.False(t, m.data.IsAddModalOpen, "keys are ignored while pending")

	m = drain(t, m, m.restoreSession())
	assert.False(t, m.coord.Pending())
	assert.Equal(t, router.Home, m.route)
	assert.Len(t, m.data.Transactions, 2)
}

func TestModel_RestoreRejected(t *testing.T) {
	h := newHarness(t)
	h.authAPI.currentErr = &common.APIError{Kind: common.KindClient, Status: 401}
	require.NoError(t, h.tokens.SaveSession(context.Background(), model.Session{Token: "stale"}))
	h.coord.Hold()

	m := h.model(WithRestore(true))
	m = drain(t, m, m.restoreSession())

	assert.Equal(t, router.Login, m.route)
	assert.Equal(t, "Your session has expired. Please log in again.", m.notice)
	assert.Equal(t, session.StateRefreshFailed, h.session.State())
}

func TestModel_StoreErrorShownInStatus(t *testing.T) {
	h := newHarness(t)
	m := loggedIn(t, h)

	m, _ = update(m, storeDoneMsg{op: "delete", err: errors.New("boom"), snap: h.store.Snapshot()})
	assert.NotEmpty(t, m.notice)
}

func TestModel_Quit(t *testing.T) {
	h := newHarness(t)
	m := loggedIn(t, h)

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
	assert.Empty(t, m.View())
}

func TestSparkline(t *testing.T) {
	points := []market.Point{
		{Percent: decimal.NewFromInt(0)},
		{Percent: decimal.NewFromInt(5)},
		{Percent: decimal.NewFromInt(10)},
	}
	assert.Equal(t, "▁▅█", sparkline(points))
	assert.Equal(t, "▁▁", sparkline([]market.Point{points[1], points[1]}), "flat series")
	assert.Empty(t, sparkline(nil))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, 5, len([]rune(truncate(strings.Repeat("ж", 9), 5))))
}

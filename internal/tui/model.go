// Package tui implements the interactive wallet dashboard with bubbletea.
package tui

import (
	"context"
	"time"

	"github.com/Veraticus/walletflow/internal/aggregate"
	"github.com/Veraticus/walletflow/internal/common"
	"github.com/Veraticus/walletflow/internal/market"
	"github.com/Veraticus/walletflow/internal/model"
	"github.com/Veraticus/walletflow/internal/router"
	"github.com/Veraticus/walletflow/internal/session"
	"github.com/Veraticus/walletflow/internal/store"
	"github.com/Veraticus/walletflow/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// AuthController is the session surface the TUI drives.
type AuthController interface {
	router.AuthSource
	Login(ctx context.Context, creds model.Credentials) error
	Register(ctx context.Context, creds model.Credentials) error
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
}

// TransactionController is the store surface the TUI drives.
type TransactionController interface {
	Snapshot() store.Snapshot
	Subscribe(fn func(store.Snapshot)) func()
	Load(ctx context.Context) error
	Reset()
	AddTransaction(ctx context.Context, draft model.TransactionDraft) (model.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, patch model.TransactionPatch) (model.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	OpenAddModal()
	CloseAddModal()
	OpenEditModal(tx model.Transaction)
	CloseEditModal()
}

// MarketSource provides exchange rates and price series for the currency view.
type MarketSource interface {
	Rates(ctx context.Context, currencies []string) ([]market.Rate, error)
	MultiKlines(ctx context.Context, symbols []string, interval string, limit int) ([]market.Series, error)
	ClearCache()
}

// Model holds the TUI state.
type Model struct {
	ctx           context.Context
	auth          AuthController
	transactions  TransactionController
	market        MarketSource
	coord         *router.Coordinator
	month         time.Time
	theme         themes.Theme
	config        Config
	deleting      string
	notice        string
	marketErr     string
	ratesErr      string
	route         router.Route
	performance   []market.Performance
	rates         []market.Rate
	txForm        txForm
	authForm      authForm
	session       session.Snapshot
	data          store.Snapshot
	keymap        KeyMap
	help          help.Model
	spinner       spinner.Model
	cursor        int
	width         int
	height        int
	sortAsc       bool
	marketLoading bool
	quitting      bool
}

// New creates the TUI model. mkt may be nil, in which case the currency view
// shows no data.
func New(ctx context.Context, auth AuthController, transactions TransactionController, mkt MarketSource, coord *router.Coordinator, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	now := cfg.Now()
	m := Model{
		ctx:          ctx,
		auth:         auth,
		transactions: transactions,
		market:       mkt,
		coord:        coord,
		config:       cfg,
		theme:        cfg.Theme,
		keymap:       DefaultKeyMap(),
		help:         help.New(),
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		width:        cfg.Width,
		height:       cfg.Height,
		month:        time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()),
		session:      auth.Snapshot(),
		data:         transactions.Snapshot(),
		route:        coord.Current(),
	}
	m.authForm = newAuthForm(m.route == router.Register)
	return m
}

// Init starts the spinner and, when configured, the session restore.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if m.config.Restore {
		cmds = append(cmds, m.restoreSession())
	}
	cmds = append(cmds, m.activate(m.route))
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionMsg:
		return m.applySession(msg.snap)

	case authDoneMsg:
		m.authForm.busy = false
		if msg.err != nil {
			switch msg.op {
			case "login", "register":
				m.authForm.err = common.UserMessage(msg.err)
			case "refresh":
				m.notice = "Your session has expired. Please log in again."
			}
		}
		return m.applySession(msg.snap)

	case routeMsg:
		return m.syncRoute()

	case storeMsg:
		m.applyStore(msg.snap)
		return m, nil

	case storeDoneMsg:
		m.txForm.busy = false
		m.applyStore(msg.snap)
		if msg.err != nil {
			if (msg.op == "add" && m.data.IsAddModalOpen) || (msg.op == "update" && m.data.IsEditModalOpen) {
				m.txForm.err = common.UserMessage(msg.err)
			} else {
				m.notice = common.UserMessage(msg.err)
			}
		}
		return m, nil

	case marketLoadedMsg:
		m.marketLoading = false
		m.marketErr, m.ratesErr = "", ""
		if msg.err != nil {
			m.marketErr = common.UserMessage(msg.err)
		} else {
			m.performance = msg.performance
		}
		if msg.ratesErr != nil {
			m.ratesErr = common.UserMessage(msg.ratesErr)
		} else {
			m.rates = msg.rates
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// applySession records a session snapshot and moves to the route the
// coordinator chooses for it.
func (m Model) applySession(snap session.Snapshot) (tea.Model, tea.Cmd) {
	wasAuthenticated := m.session.Authenticated()
	m.session = snap
	m.coord.SetAuth(snap)

	if wasAuthenticated && !snap.Authenticated() && snap.State != session.StateAuthenticating {
		m.transactions.Reset()
		m.data = m.transactions.Snapshot()
		m.performance = nil
		m.rates = nil
		m.marketErr = ""
		m.ratesErr = ""
		m.cursor = 0
		m.deleting = ""
	}
	return m.syncRoute()
}

func (m Model) syncRoute() (tea.Model, tea.Cmd) {
	route := m.coord.Current()
	if route != m.route && route.IsPublic() {
		m.authForm = newAuthForm(route == router.Register)
	}
	m.route = route
	cmd := m.activate(route)
	if cmd != nil && route == router.Currency {
		m.marketLoading = true
	}
	return m, cmd
}

// activate loads a dashboard view's data the first time it is shown.
func (m Model) activate(route router.Route) tea.Cmd {
	if !route.IsDashboard() || !m.coord.Activate(route) {
		return nil
	}
	switch route {
	case router.Home, router.Statistics:
		if route == router.Statistics && m.coord.Activated(router.Home) {
			return nil
		}
		return m.loadData()
	case router.Currency:
		return m.loadMarket()
	}
	return nil
}

func (m *Model) applyStore(snap store.Snapshot) {
	m.data = snap
	if n := len(m.visible()); m.cursor >= n {
		m.cursor = max(0, n-1)
	}
}

func (m Model) navigate(route router.Route) (tea.Model, tea.Cmd) {
	m.coord.Navigate(route)
	m.notice = ""
	return m.syncRoute()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keymap.ForceQuit) {
		m.quitting = true
		return m, tea.Quit
	}

	switch {
	case m.coord.Pending():
		if key.Matches(msg, m.keymap.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	case m.route.IsPublic():
		return m.handleAuthKey(msg)
	case m.data.IsAddModalOpen || m.data.IsEditModalOpen:
		return m.handleFormKey(msg)
	case m.deleting != "":
		return m.handleDeleteKey(msg)
	}
	return m.handleDashboardKey(msg)
}

func (m Model) handleAuthKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.authForm.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keymap.SwitchAuth):
		if m.route == router.Login {
			return m.navigate(router.Register)
		}
		return m.navigate(router.Login)

	case key.Matches(msg, m.keymap.Cancel):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Submit):
		if err := m.authForm.validate(); err != nil {
			m.authForm.err = common.UserMessage(err)
			return m, nil
		}
		m.authForm.err = ""
		m.authForm.busy = true
		m.notice = ""
		if m.authForm.register {
			return m, m.register(m.authForm.credentials())
		}
		return m, m.login(m.authForm.credentials())
	}

	var cmd tea.Cmd
	m.authForm, cmd = m.authForm.update(msg, m.keymap)
	return m, cmd
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.txForm.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keymap.Cancel):
		if m.data.IsEditModalOpen {
			m.transactions.CloseEditModal()
		} else {
			m.transactions.CloseAddModal()
		}
		m.applyStore(m.transactions.Snapshot())
		return m, nil

	case key.Matches(msg, m.keymap.Submit):
		draft, err := m.txForm.draft(m.config.Now().Location())
		if err != nil {
			m.txForm.err = common.UserMessage(err)
			return m, nil
		}
		m.txForm.err = ""
		m.txForm.busy = true
		if m.txForm.editing() {
			return m, m.updateTransaction(m.txForm.editingID, draft)
		}
		return m, m.addTransaction(draft)
	}

	var cmd tea.Cmd
	m.txForm, cmd = m.txForm.update(msg, m.keymap)
	return m, cmd
}

func (m Model) handleDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.deleting
	m.deleting = ""
	if key.Matches(msg, m.keymap.Confirm) {
		return m, m.deleteTransaction(id)
	}
	return m, nil
}

func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keymap.Logout):
		return m, m.logout()
	case key.Matches(msg, m.keymap.Home):
		return m.navigate(router.Home)
	case key.Matches(msg, m.keymap.Stats):
		return m.navigate(router.Statistics)
	case key.Matches(msg, m.keymap.Market):
		return m.navigate(router.Currency)
	case key.Matches(msg, m.keymap.NextTab):
		return m.navigate(m.tabAt(1))
	case key.Matches(msg, m.keymap.PrevTab):
		return m.navigate(m.tabAt(-1))
	case key.Matches(msg, m.keymap.Refresh):
		m.notice = ""
		if m.route == router.Currency {
			if m.market == nil {
				return m, nil
			}
			m.market.ClearCache()
			m.marketLoading = true
			return m, m.loadMarket()
		}
		return m, m.loadData()
	}

	switch m.route {
	case router.Home:
		return m.handleHomeKey(msg)
	case router.Statistics:
		switch {
		case key.Matches(msg, m.keymap.PrevMonth):
			m.month = m.month.AddDate(0, -1, 0)
		case key.Matches(msg, m.keymap.NextMonth):
			m.month = m.month.AddDate(0, 1, 0)
		}
	}
	return m, nil
}

func (m Model) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.visible()

	switch {
	case key.Matches(msg, m.keymap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keymap.Down):
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keymap.ToggleSort):
		m.sortAsc = !m.sortAsc
		m.cursor = 0
	case key.Matches(msg, m.keymap.Add):
		m.transactions.OpenAddModal()
		m.applyStore(m.transactions.Snapshot())
		m.txForm = newTxForm(m.data.ExpenseCategories, m.config.Now())
	case key.Matches(msg, m.keymap.Edit):
		if len(visible) == 0 {
			return m, nil
		}
		tx := visible[m.cursor]
		m.transactions.OpenEditModal(tx)
		m.applyStore(m.transactions.Snapshot())
		m.txForm = editTxForm(tx, m.data.ExpenseCategories, m.config.Now())
	case key.Matches(msg, m.keymap.Delete):
		if len(visible) > 0 {
			m.deleting = visible[m.cursor].ID
		}
	}
	return m, nil
}

func (m Model) tabAt(delta int) router.Route {
	tabs := router.DashboardRoutes
	for i, r := range tabs {
		if r == m.route {
			return tabs[(i+delta+len(tabs))%len(tabs)]
		}
	}
	return router.Home
}

// visible is the home list: future-dated records hidden, sorted by date.
func (m Model) visible() []model.Transaction {
	return aggregate.SortByDate(aggregate.Filter(m.data.Transactions, m.config.Now()), !m.sortAsc)
}

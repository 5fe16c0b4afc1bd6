package tui

import (
	"context"
	"errors"
	"sync"

	"github.com/Veraticus/walletflow/internal/common"
	"github.com/Veraticus/walletflow/internal/market"
	"github.com/Veraticus/walletflow/internal/model"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(m.ctx, m.config.RequestTimeout)
}

// restoreSession verifies a persisted token.
func (m Model) restoreSession() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()

		err := m.auth.Refresh(ctx)
		if errors.Is(err, common.ErrNoToken) {
			err = nil
		}
		return authDoneMsg{op: "refresh", err: err, snap: m.auth.Snapshot()}
	}
}

func (m Model) login(creds model.Credentials) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()

		err := m.auth.Login(ctx, creds)
		return authDoneMsg{op: "login", err: err, snap: m.auth.Snapshot()}
	}
}

func (m Model) register(creds model.Credentials) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()

		err := m.auth.Register(ctx, creds)
		return authDoneMsg{op: "register", err: err, snap: m.auth.Snapshot()}
	}
}

func (m Model) logout() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()

		err := m.auth.Logout(ctx)
		return authDoneMsg{op: "logout", err: err, snap: m.auth.Snapshot()}
	}
}

// loadData fetches categories and transactions.
func (m Model) loadData() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()

		err := m.transactions.Load(ctx)
		return storeDoneMsg{op: "load", err: err, snap: m.transactions.Snapshot()}
	}
}

func (m Model) addTransaction(draft model.TransactionDraft) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()

		_, err := m.transactions.AddTransaction(ctx, draft)
		return storeDoneMsg{op: "add", err: err, snap: m.transactions.Snapshot()}
	}
}

func (m Model) updateTransaction(id string, patch model.TransactionPatch) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()

		_, err := m.transactions.UpdateTransaction(ctx, id, patch)
		return storeDoneMsg{op: "update", err: err, snap: m.transactions.Snapshot()}
	}
}

func (m Model) deleteTransaction(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()

		err := m.transactions.DeleteTransaction(ctx, id)
		return storeDoneMsg{op: "delete", err: err, snap: m.transactions.Snapshot()}
	}
}

// loadMarket fetches the exchange rates and every configured symbol. The two
// requests fail independently.
func (m Model) loadMarket() tea.Cmd {
	if m.market == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()

		var msg marketLoadedMsg
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			msg.rates, msg.ratesErr = m.market.Rates(ctx, m.config.Currencies)
		}()

		series, err := m.market.MultiKlines(ctx, m.config.Symbols, m.config.Interval, m.config.Limit)
		if err != nil {
			msg.err = err
		} else {
			msg.performance = market.NormalizeAll(series)
		}

		wg.Wait()
		return msg
	}
}

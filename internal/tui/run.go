package tui

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/Veraticus/walletflow/internal/common"
	"github.com/Veraticus/walletflow/internal/router"
	"github.com/Veraticus/walletflow/internal/session"
	"github.com/Veraticus/walletflow/internal/store"
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the TUI and blocks until the user quits. Session and store
// notifications are forwarded into the program as messages.
func Run(ctx context.Context, auth AuthController, transactions TransactionController, mkt MarketSource, opts ...Option) error {
	logger := common.ComponentLogger("tui")

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var program atomic.Pointer[tea.Program]
	coord := router.NewCoordinator(auth, router.Home, func(route router.Route) {
		if p := program.Load(); p != nil {
			p.Send(routeMsg{route: route})
		}
	})
	defer coord.Close()

	if cfg.Restore {
		coord.Hold()
	}

	m := New(ctx, auth, transactions, mkt, coord, opts...)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	program.Store(p)

	unsubSession := auth.Subscribe(func(snap session.Snapshot) {
		p.Send(sessionMsg{snap: snap})
	})
	defer unsubSession()

	unsubStore := transactions.Subscribe(func(snap store.Snapshot) {
		p.Send(storeMsg{snap: snap})
	})
	defer unsubStore()

	logger.Info("Starting TUI", "restore", cfg.Restore, "route", coord.Current())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

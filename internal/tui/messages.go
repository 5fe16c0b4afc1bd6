package tui

import (
	"github.com/Veraticus/walletflow/internal/market"
	"github.com/Veraticus/walletflow/internal/router"
	"github.com/Veraticus/walletflow/internal/session"
	"github.com/Veraticus/walletflow/internal/store"
)

// Subscription messages forwarded from the session and store notifiers.
type sessionMsg struct {
	snap session.Snapshot
}

type storeMsg struct {
	snap store.Snapshot
}

type routeMsg struct {
	route router.Route
}

// Completion messages returned by commands.
type authDoneMsg struct {
	err  error
	op   string
	snap session.Snapshot
}

type storeDoneMsg struct {
	err  error
	op   string
	snap store.Snapshot
}

type marketLoadedMsg struct {
	err         error
	ratesErr    error
	performance []market.Performance
	rates       []market.Rate
}

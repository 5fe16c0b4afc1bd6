package router

import (
	"sync"

	"github.com/Veraticus/walletflow/internal/session"
)

// AuthSource is the part of the session the coordinator watches.
type AuthSource interface {
	Snapshot() session.Snapshot
	Subscribe(fn func(session.Snapshot)) func()
}

// Coordinator tracks the current route and keeps it consistent with the
// authentication state. Dashboard views are activated lazily: Activate
// reports whether a view is being shown for the first time.
type Coordinator struct {
	activated     map[Route]bool
	unsubscribe   func()
	onChange      func(Route)
	requested     Route
	current       Route
	mu            sync.Mutex
	authenticated bool
	pending       bool
}

// NewCoordinator starts at route and resolves it against the session's
// current state. onChange, if set, is called from the session's notifier
// goroutine whenever an auth change moves the current route.
func NewCoordinator(auth AuthSource, route Route, onChange func(Route)) *Coordinator {
	c := &Coordinator{
		activated: make(map[Route]bool),
		requested: route,
		onChange:  onChange,
	}
	c.SetAuth(auth.Snapshot())
	c.unsubscribe = auth.Subscribe(c.handleAuth)
	return c
}

// Close stops watching the session.
func (c *Coordinator) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

// SetAuth re-resolves the current route for a new session state and returns it.
func (c *Coordinator) SetAuth(snap session.Snapshot) Route {
	c.mu.Lock()
	defer c.mu.Unlock()

	if snap.State == session.StateAuthenticating {
		// Keep showing whatever is on screen; on start-up nothing is yet.
		c.pending = c.current == ""
		return c.current
	}
	c.pending = false

	if c.authenticated && !snap.Authenticated() {
		c.activated = make(map[Route]bool)
		c.requested = Login
	}
	c.authenticated = snap.Authenticated()
	c.current = Resolve(c.requested, c.authenticated)
	return c.current
}

// Navigate requests route and returns the route actually shown.
func (c *Coordinator) Navigate(route Route) Route {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requested = route
	if c.pending {
		return c.current
	}
	c.current = Resolve(route, c.authenticated)
	return c.current
}

// Hold hides the current view until the next settled auth state. Call it
// before restoring a persisted session so the login view does not flash.
func (c *Coordinator) Hold() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = true
	c.current = ""
}

// Current returns the route being shown. It is empty while Pending.
func (c *Coordinator) Current() Route {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Pending reports that the session is still being verified and no view
// has been chosen yet.
func (c *Coordinator) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Activate marks route as shown and reports whether this is the first time
// since sign-in. The caller loads the view's data when it returns true.
func (c *Coordinator) Activate(route Route) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activated[route] {
		return false
	}
	c.activated[route] = true
	return true
}

// Activated reports whether route has been activated since sign-in.
func (c *Coordinator) Activated(route Route) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activated[route]
}

func (c *Coordinator) handleAuth(snap session.Snapshot) {
	before := c.Current()
	after := c.SetAuth(snap)
	if after != before && c.onChange != nil {
		c.onChange(after)
	}
}

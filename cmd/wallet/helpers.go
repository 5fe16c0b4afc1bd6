package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/walletflow/internal/api"
	"github.com/Veraticus/walletflow/internal/cli"
	"github.com/Veraticus/walletflow/internal/common"
	"github.com/Veraticus/walletflow/internal/config"
	"github.com/Veraticus/walletflow/internal/market"
	"github.com/Veraticus/walletflow/internal/model"
	"github.com/Veraticus/walletflow/internal/session"
	"github.com/Veraticus/walletflow/internal/storage"
	"github.com/Veraticus/walletflow/internal/store"
)

var errNotLoggedIn = common.NewUserError("Not logged in. Run 'wallet auth login' first.", common.ErrNotAuthorized)

// app bundles the services a command needs.
type app struct {
	storage *storage.SQLiteStorage
	session *session.Session
	store   *store.Store
	cfg     config.Config
}

// newApp opens local storage and wires the REST client, session and store.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	db, err := initStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client, err := api.NewClient(api.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		storage: db,
		session: session.New(client, db),
		store:   store.New(client),
	}, nil
}

// newAuthedApp is newApp followed by restoring the persisted session.
func newAuthedApp(ctx context.Context) (*app, error) {
	a, err := newApp(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.restore(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// restore verifies the persisted token with the service.
func (a *app) restore(ctx context.Context) error {
	err := a.session.Refresh(ctx)
	switch {
	case errors.Is(err, common.ErrNoToken):
		return errNotLoggedIn
	case errors.Is(err, common.ErrClient):
		return common.NewUserError("Your session has expired. Run 'wallet auth login' again.", err)
	}
	return err
}

func (a *app) close() {
	a.store.Close()
	a.session.Close()
	if err := a.storage.Close(); err != nil {
		common.ComponentLogger("cli").Warn("Failed to close storage", "error", err)
	}
}

// initStorage opens the database and applies migrations.
func initStorage(ctx context.Context, cfg config.Config) (*storage.SQLiteStorage, error) {
	db, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func newMarketClient(cfg config.Config) (*market.Client, error) {
	return market.NewClient(market.Config{
		BaseURL:  cfg.Market.BaseURL,
		RatesURL: cfg.Market.RatesURL,
		Timeout:  cfg.API.Timeout,
		CacheTTL: cfg.Market.CacheTTL,
		RatesTTL: cfg.Market.RatesTTL,
	})
}

// resolveCategory finds a category of the given kind by ID or by
// case-insensitive name.
func resolveCategory(categories []model.Category, kind model.TransactionType, ref string) (model.Category, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Category{}, common.NewValidationError("categoryId", model.MsgCategoryRequired)
	}

	for _, c := range categories {
		if c.Kind != kind {
			continue
		}
		if c.ID == ref || strings.EqualFold(c.Name, ref) {
			return c, nil
		}
	}
	return model.Category{}, common.NewValidationError("categoryId", fmt.Sprintf("Unknown %s category %q.", strings.ToLower(string(kind)), ref))
}

// parseType accepts "income"/"expense" in any case, plus the +/- shorthands.
func parseType(s string) (model.TransactionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INCOME", "+":
		return model.TypeIncome, nil
	case "EXPENSE", "-":
		return model.TypeExpense, nil
	}
	return "", common.NewValidationError("type", model.MsgTypeRequired)
}

// parseDate reads a YYYY-MM-DD date in the location of now. An empty value means now.
func parseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, nil
	}
	d, err := time.ParseInLocation(model.DateLayout, s, now.Location())
	if err != nil {
		return time.Time{}, common.NewValidationError("transactionDate", "Date must look like 2024-01-31.")
	}
	return d, nil
}

// parseMonth reads a YYYY-MM month. An empty value means the month of now.
func parseMonth(s string, now time.Time) (int, time.Month, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.Year(), now.Month(), nil
	}
	m, err := time.ParseInLocation("2006-01", s, now.Location())
	if err != nil {
		return 0, 0, common.NewValidationError("month", "Month must look like 2024-01.")
	}
	return m.Year(), m.Month(), nil
}

func cliError(err error) string {
	return cli.FormatError(common.UserMessage(err))
}

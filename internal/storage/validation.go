// Package storage provides the local persistence layer for the wallet client.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/walletflow/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInMemoryPath    = errors.New("in-memory databases are not supported")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateDBPath rejects in-memory DSNs. Migrate opens its own connection,
// which would see a different in-memory database.
func validateDBPath(path string) error {
	if err := validateString(path, "dbPath"); err != nil {
		return err
	}
	p := strings.ToLower(strings.TrimSpace(path))
	if strings.Contains(p, ":memory:") || strings.Contains(p, "mode=memory") {
		return fmt.Errorf("%w: %s", ErrInMemoryPath, path)
	}
	return nil
}

// validateCategories checks every category has an ID, a name and a known kind.
func validateCategories(categories []model.Category) error {
	seen := make(map[string]struct{}, len(categories))
	for i, cat := range categories {
		if strings.TrimSpace(cat.ID) == "" {
			return fmt.Errorf("%w at index %d: missing ID", ErrInvalidCategory, i)
		}
		if strings.TrimSpace(cat.Name) == "" {
			return fmt.Errorf("%w %s: missing name", ErrInvalidCategory, cat.ID)
		}
		if !cat.Kind.Valid() {
			return fmt.Errorf("%w %s: unknown kind %q", ErrInvalidCategory, cat.ID, cat.Kind)
		}
		if _, dup := seen[cat.ID]; dup {
			return fmt.Errorf("%w %s: duplicate ID", ErrInvalidCategory, cat.ID)
		}
		seen[cat.ID] = struct{}{}
	}
	return nil
}

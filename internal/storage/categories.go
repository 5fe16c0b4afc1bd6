package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/walletflow/internal/model"
)

// SaveCategories replaces the cached category list, keeping the server's order.
func (s *SQLiteStorage) SaveCategories(ctx context.Context, categories []model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategories(categories); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
		return fmt.Errorf("failed to clear categories: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO categories (id, name, kind, position, fetched_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	now := time.Now().UTC()
	for i, cat := range categories {
		if _, err := stmt.ExecContext(ctx, cat.ID, cat.Name, string(cat.Kind), i, now); err != nil {
			return fmt.Errorf("failed to save category %s: %w", cat.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit categories: %w", err)
	}
	return nil
}

// GetCategories returns the cached categories in server order and when they were fetched.
// An empty cache returns a nil slice and a zero time.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, time.Time, error) {
	if err := validateContext(ctx); err != nil {
		return nil, time.Time{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, kind, fetched_at
		FROM categories
		ORDER BY position`)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var categories []model.Category
	var fetchedAt time.Time
	for rows.Next() {
		var cat model.Category
		var kind string
		if err := rows.Scan(&cat.ID, &cat.Name, &kind, &fetchedAt); err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to scan category: %w", err)
		}
		cat.Kind = model.TransactionType(kind)
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to iterate categories: %w", err)
	}

	return categories, fetchedAt, nil
}

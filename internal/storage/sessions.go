package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Veraticus/walletflow/internal/common"
	"github.com/Veraticus/walletflow/internal/model"
)

// LoadSession returns the persisted session or common.ErrNotFound.
func (s *SQLiteStorage) LoadSession(ctx context.Context) (*model.Session, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var token string
	var userJSON sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT token, user_json FROM sessions WHERE id = 1`,
	).Scan(&token, &userJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	session := &model.Session{Token: token}
	if userJSON.Valid && userJSON.String != "" {
		var user model.User
		if err := json.Unmarshal([]byte(userJSON.String), &user); err != nil {
			s.logger.Warn("Ignoring unreadable stored user", "error", err)
		} else {
			session.User = &user
		}
	}

	return session, nil
}

// SaveSession replaces the persisted session.
func (s *SQLiteStorage) SaveSession(ctx context.Context, session model.Session) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(session.Token, "token"); err != nil {
		return err
	}

	var userJSON sql.NullString
	if session.User != nil {
		data, err := json.Marshal(session.User)
		if err != nil {
			return fmt.Errorf("failed to encode user: %w", err)
		}
		userJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, token, user_json, updated_at)
		VALUES (1, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			user_json = excluded.user_json,
			updated_at = excluded.updated_at`,
		session.Token, userJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// ClearSession deletes the persisted session. Clearing an empty store is not an error.
func (s *SQLiteStorage) ClearSession(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

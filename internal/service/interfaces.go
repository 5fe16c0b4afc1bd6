// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/walletflow/internal/model"
)

// TransactionAPI is the part of the REST service that owns transactions and categories.
type TransactionAPI interface {
	ListTransactions(ctx context.Context) ([]model.Transaction, error)
	CreateTransaction(ctx context.Context, payload model.TransactionPayload) (model.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, payload model.TransactionPayload) (model.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]model.Category, error)
}

// AuthAPI is the part of the REST service that issues and revokes tokens.
// SetToken attaches (or, with an empty string, detaches) the bearer token
// used for every subsequent call.
type AuthAPI interface {
	SignIn(ctx context.Context, creds model.Credentials) (model.AuthResponse, error)
	SignUp(ctx context.Context, creds model.Credentials) (model.AuthResponse, error)
	SignOut(ctx context.Context) error
	CurrentUser(ctx context.Context) (model.User, error)
	SetToken(token string)
}

// TokenStore persists the session between runs.
type TokenStore interface {
	LoadSession(ctx context.Context) (*model.Session, error)
	SaveSession(ctx context.Context, session model.Session) error
	ClearSession(ctx context.Context) error
}

// TransactionAdder is the narrow view of the transaction store used by importers.
type TransactionAdder interface {
	AddTransaction(ctx context.Context, draft model.TransactionDraft) (model.Transaction, error)
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Veraticus/walletflow/internal/model"
)

// ListTransactions returns every transaction owned by the current user.
func (c *Client) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	var txs []model.Transaction
	if err := c.do(ctx, http.MethodGet, "api/transactions", nil, &txs); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// CreateTransaction stores a new transaction and returns the server's record.
func (c *Client) CreateTransaction(ctx context.Context, payload model.TransactionPayload) (model.Transaction, error) {
	var tx model.Transaction
	if err := c.do(ctx, http.MethodPost, "api/transactions", payload, &tx); err != nil {
		return model.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return tx, nil
}

// UpdateTransaction patches a transaction and returns the server's record.
func (c *Client) UpdateTransaction(ctx context.Context, id string, payload model.TransactionPayload) (model.Transaction, error) {
	var tx model.Transaction
	if err := c.do(ctx, http.MethodPatch, transactionPath(id), payload, &tx); err != nil {
		return model.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}
	return tx, nil
}

// DeleteTransaction removes a transaction.
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, transactionPath(id), nil, nil); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

// ListCategories returns income and expense categories in a single list.
func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	var cats []model.Category
	if err := c.do(ctx, http.MethodGet, "api/transaction-categories", nil, &cats); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func transactionPath(id string) string {
	return "api/transactions/" + url.PathEscape(id)
}

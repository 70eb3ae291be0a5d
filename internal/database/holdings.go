package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/trogers1052/portfolio-service/internal/errs"
	"github.com/trogers1052/portfolio-service/internal/models"
)

const holdingColumns = `id, user_id, symbol, company_name, shares, purchase_price, purchased_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHolding(row rowScanner) (*models.Holding, error) {
	var h models.Holding
	err := row.Scan(
		&h.ID, &h.UserID, &h.Symbol, &h.CompanyName,
		&h.Shares, &h.PurchasePrice, &h.PurchasedAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// CreateHolding inserts a new holding and fills in its ID and timestamp
func (db *DB) CreateHolding(ctx context.Context, h *models.Holding) error {
	query := `
		INSERT INTO portfolio_holdings (
			user_id, symbol, company_name, shares, purchase_price, purchased_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	now := time.Now().UTC()

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, query,
			h.UserID, h.Symbol, h.CompanyName, h.Shares, h.PurchasePrice, now,
		).Scan(&h.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to create holding: %w", err)
	}
	h.PurchasedAt = now
	return nil
}

// GetHoldingsByUser returns every holding owned by userID in insertion order
func (db *DB) GetHoldingsByUser(ctx context.Context, userID int64) ([]*models.Holding, error) {
	query := `
		SELECT ` + holdingColumns + `
		FROM portfolio_holdings
		WHERE user_id = $1
		ORDER BY id
	`
	rows, err := db.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get holdings: %w", err)
	}
	defer rows.Close()

	holdings := []*models.Holding{}
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holdings: %w", err)
	}

	return holdings, nil
}

// GetHoldingForUser retrieves a holding by ID, scoped to its owner.
// A holding owned by someone else is reported as not found.
func (db *DB) GetHoldingForUser(ctx context.Context, id, userID int64) (*models.Holding, error) {
	query := `
		SELECT ` + holdingColumns + `
		FROM portfolio_holdings
		WHERE id = $1 AND user_id = $2
	`
	h, err := scanHolding(db.conn.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("holding %d: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return h, nil
}

// UpdateHoldingShares sets the share count of an owned holding and returns the updated row
func (db *DB) UpdateHoldingShares(ctx context.Context, id, userID, shares int64) (*models.Holding, error) {
	query := `
		UPDATE portfolio_holdings SET shares = $3
		WHERE id = $1 AND user_id = $2
		RETURNING ` + holdingColumns

	var updated *models.Holding
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		h, err := scanHolding(tx.QueryRowContext(ctx, query, id, userID, shares))
		if err != nil {
			return err
		}
		updated = h
		return nil
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("holding %d: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update holding: %w", err)
	}
	return updated, nil
}

// DeleteHoldingForUser removes an owned holding and returns what was deleted
func (db *DB) DeleteHoldingForUser(ctx context.Context, id, userID int64) (*models.Holding, error) {
	query := `
		DELETE FROM portfolio_holdings
		WHERE id = $1 AND user_id = $2
		RETURNING ` + holdingColumns

	var deleted *models.Holding
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		h, err := scanHolding(tx.QueryRowContext(ctx, query, id, userID))
		if err != nil {
			return err
		}
		deleted = h
		return nil
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("holding %d: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete holding: %w", err)
	}
	return deleted, nil
}

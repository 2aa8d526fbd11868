package postgres

import (
	"context"

	"github.com/momentum-app/momentum-core/internal/domain/gamification"
	"github.com/momentum-app/momentum-core/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// XP TRANSACTION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// TransactionRepository implements gamification.TransactionRepository
// for PostgreSQL. The journal is append-only: no update or delete path
// exists on purpose.
type TransactionRepository struct {
	conn *Connection
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(conn *Connection) *TransactionRepository {
	return &TransactionRepository{conn: conn}
}

// Append adds one journal record. A replayed transaction ID is reported
// as an already-exists conflict rather than written twice.
func (r *TransactionRepository) Append(ctx context.Context, tx gamification.XPTransaction) error {
	query := `
		INSERT INTO xp_transactions (id, user_id, action_type, module_id, difficulty, xp_awarded, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		tx.ID,
		tx.UserID.String(),
		string(tx.ActionType),
		tx.ModuleID.String(),
		string(tx.Difficulty),
		tx.XPAwarded,
		tx.OccurredAt,
	)
	if err != nil {
		return wrapStoreError("gamification", "Append", err)
	}

	return nil
}

// ListByUser returns the most recent journal records for a user.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID shared.UserID, limit int) ([]gamification.XPTransaction, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, user_id, action_type, module_id, difficulty, xp_awarded, occurred_at
		FROM xp_transactions
		WHERE user_id = $1
		ORDER BY occurred_at DESC, id
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, userID.String(), limit)
	if err != nil {
		return nil, wrapStoreError("gamification", "ListByUser", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows pgx.Rows) ([]gamification.XPTransaction, error) {
	var txs []gamification.XPTransaction
	for rows.Next() {
		var (
			tx         gamification.XPTransaction
			userID     string
			actionType string
			moduleID   string
			difficulty string
		)

		err := rows.Scan(&tx.ID, &userID, &actionType, &moduleID, &difficulty, &tx.XPAwarded, &tx.OccurredAt)
		if err != nil {
			return nil, err
		}

		tx.UserID = shared.UserID(userID)
		tx.ActionType = gamification.ActionType(actionType)
		tx.ModuleID = shared.ModuleID(moduleID)
		tx.Difficulty = gamification.Difficulty(difficulty)
		txs = append(txs, tx)
	}

	return txs, rows.Err()
}

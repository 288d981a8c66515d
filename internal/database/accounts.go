package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"styledecor/internal/domain"
	"styledecor/internal/models"
)

const accountColumns = `id, email, name, photo_url, role, status, created_at, updated_at`

// CreateAccount вставляет аккаунт, если email ещё не занят
func (db *DB) CreateAccount(ctx context.Context, account *models.Account) (bool, error) {
	query := `INSERT INTO accounts (` + accountColumns + `)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT (email) DO NOTHING`
	result, err := db.ExecContext(ctx, db.rebind(query),
		account.ID,
		account.Email,
		account.Name,
		account.PhotoURL,
		account.Role,
		account.Status,
		account.CreatedAt.UTC(),
		account.UpdatedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to create account: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to create account: %w", err)
	}
	return rows == 1, nil
}

func (db *DB) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	return db.queryAccount(ctx, db, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
}

func (db *DB) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return db.queryAccount(ctx, db, `SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
}

func (db *DB) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	return db.queryAccounts(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC`)
}

// ListDecorators возвращает декораторов с указанным статусом
func (db *DB) ListDecorators(ctx context.Context, status string) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE role = ? AND status = ? ORDER BY name, email`
	return db.queryAccounts(ctx, query, models.RoleDecorator, status)
}

// UpdateAccountRole меняет роль и сбрасывает статус в open.
// Аккаунт с активной заявкой не меняется.
func (db *DB) UpdateAccountRole(ctx context.Context, id, role string) (*models.Account, error) {
	query := `UPDATE accounts SET role = ?, status = ?, updated_at = ? WHERE id = ? AND status <> ?`
	result, err := db.ExecContext(ctx, db.rebind(query), role, models.StatusOpen, time.Now().UTC(), id, models.StatusBusy)
	if err != nil {
		return nil, fmt.Errorf("failed to update account role: %w", err)
	}
	if err := db.requireAccountRow(ctx, result, id); err != nil {
		return nil, err
	}
	return db.GetAccountByID(ctx, id)
}

func (db *DB) DeleteAccount(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, db.rebind(`DELETE FROM accounts WHERE id = ? AND status <> ?`), id, models.StatusBusy)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return db.requireAccountRow(ctx, result, id)
}

// requireAccountRow maps a zero-row guarded write to not found or busy.
func (db *DB) requireAccountRow(ctx context.Context, result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}
	if _, err := db.GetAccountByID(ctx, id); err != nil {
		return err
	}
	return domain.ErrAccountBusy
}

func (db *DB) queryAccount(ctx context.Context, q querier, query string, args ...interface{}) (*models.Account, error) {
	account, err := scanAccount(q.QueryRowContext(ctx, db.rebind(query), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func (db *DB) queryAccounts(ctx context.Context, query string, args ...interface{}) ([]*models.Account, error) {
	rows, err := db.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]*models.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	if err := row.Scan(&a.ID, &a.Email, &a.Name, &a.PhotoURL, &a.Role, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

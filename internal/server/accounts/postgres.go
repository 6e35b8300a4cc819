package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/panayot-marinov/password-vault/internal/common"
	"github.com/panayot-marinov/password-vault/internal/dbx"
)

// PostgresRepository stores accounts in the accounts table via database/sql
// (pgx stdlib driver). The handle is a dbx.DBTX, so the repository works
// equally inside a caller-managed transaction.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) (*PostgresRepository, error) {
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Get(ctx context.Context, username string) (*Account, error) {
	query :=
		`SELECT id, username, hash_md5, hash_sha1, hash_sha256, kdf_iterations, kdf_salt, created_at
		 FROM accounts
		 WHERE username = $1
		 `

	account := &Account{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&account.ID, &account.Username,
		&account.PasswordHashes.MD5, &account.PasswordHashes.SHA1, &account.PasswordHashes.SHA256,
		&account.Iterations, &account.Salt, &account.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) Contains(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE username = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("error performing sql request: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) Create(ctx context.Context, account *Account) (*Account, error) {
	query :=
		`INSERT INTO accounts (id, username, hash_md5, hash_sha1, hash_sha256, kdf_iterations, kdf_salt)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (username) DO NOTHING
		 RETURNING id, created_at
		 `

	copied := *account
	if copied.ID == "" {
		copied.ID = uuid.NewString()
	}

	err := r.db.QueryRowContext(ctx, query,
		copied.ID, copied.Username,
		copied.PasswordHashes.MD5, copied.PasswordHashes.SHA1, copied.PasswordHashes.SHA256,
		copied.Iterations, copied.Salt).Scan(&copied.ID, &copied.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return &copied, nil
}

func (r *PostgresRepository) Update(ctx context.Context, account *Account) error {
	query :=
		`UPDATE accounts
		 SET hash_md5 = $2, hash_sha1 = $3, hash_sha256 = $4, kdf_iterations = $5, kdf_salt = $6
		 WHERE username = $1
		 `

	result, err := r.db.ExecContext(ctx, query,
		account.Username,
		account.PasswordHashes.MD5, account.PasswordHashes.SHA1, account.PasswordHashes.SHA256,
		account.Iterations, account.Salt)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if rows == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Remove(ctx context.Context, username string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if rows == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) GetAll(ctx context.Context) ([]*Account, error) {
	query :=
		`SELECT id, username, hash_md5, hash_sha1, hash_sha256, kdf_iterations, kdf_salt, created_at
		 FROM accounts
		 ORDER BY username
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	var all []*Account
	for rows.Next() {
		account := &Account{}
		if err := rows.Scan(
			&account.ID, &account.Username,
			&account.PasswordHashes.MD5, &account.PasswordHashes.SHA1, &account.PasswordHashes.SHA256,
			&account.Iterations, &account.Salt, &account.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		all = append(all, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return all, nil
}

package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/panayot-marinov/password-vault/internal/common"
	"github.com/panayot-marinov/password-vault/internal/dbx"
)

// PostgresRepository stores credentials in the credentials table via
// database/sql (pgx stdlib driver). The handle is a dbx.DBTX, so the
// repository works equally inside a caller-managed transaction.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) (*PostgresRepository, error) {
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Get(ctx context.Context, accountID string, key Key) (*Credential, error) {
	query :=
		`SELECT account_id, application_name, credentials_username, ciphertext, created_at
		 FROM credentials
		 WHERE account_id = $1 AND application_name = $2 AND credentials_username = $3
		 `

	credential := &Credential{}
	err := r.db.QueryRowContext(ctx, query, accountID, key.ApplicationName, key.CredentialsUsername).Scan(
		&credential.AccountID, &credential.ApplicationName, &credential.CredentialsUsername,
		&credential.Ciphertext, &credential.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return credential, nil
}

func (r *PostgresRepository) Contains(ctx context.Context, accountID string, key Key) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM credentials WHERE account_id = $1 AND application_name = $2 AND credentials_username = $3)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, accountID, key.ApplicationName, key.CredentialsUsername).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error performing sql request: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) Create(ctx context.Context, credential *Credential) error {
	query :=
		`INSERT INTO credentials (account_id, application_name, credentials_username, ciphertext)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (account_id, application_name, credentials_username) DO NOTHING
		 `

	result, err := r.db.ExecContext(ctx, query,
		credential.AccountID, credential.ApplicationName, credential.CredentialsUsername, credential.Ciphertext)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if rows == 0 {
		return common.ErrorAlreadyExists
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, credential *Credential) error {
	query :=
		`UPDATE credentials
		 SET ciphertext = $4
		 WHERE account_id = $1 AND application_name = $2 AND credentials_username = $3
		 `

	result, err := r.db.ExecContext(ctx, query,
		credential.AccountID, credential.ApplicationName, credential.CredentialsUsername, credential.Ciphertext)
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

func (r *PostgresRepository) Remove(ctx context.Context, accountID string, key Key) error {
	query := `DELETE FROM credentials WHERE account_id = $1 AND application_name = $2 AND credentials_username = $3`

	result, err := r.db.ExecContext(ctx, query, accountID, key.ApplicationName, key.CredentialsUsername)
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

func (r *PostgresRepository) GetAllForAccount(ctx context.Context, accountID string) ([]*Credential, error) {
	query :=
		`SELECT account_id, application_name, credentials_username, ciphertext, created_at
		 FROM credentials
		 WHERE account_id = $1
		 ORDER BY application_name, credentials_username
		 `

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	var all []*Credential
	for rows.Next() {
		credential := &Credential{}
		if err := rows.Scan(
			&credential.AccountID, &credential.ApplicationName, &credential.CredentialsUsername,
			&credential.Ciphertext, &credential.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		all = append(all, credential)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return all, nil
}

func (r *PostgresRepository) RemoveAllForAccount(ctx context.Context, accountID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE account_id = $1`, accountID); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/panayot-marinov/password-vault/internal/server/accounts"
	"github.com/panayot-marinov/password-vault/internal/server/credentials"
	"github.com/panayot-marinov/password-vault/internal/server/migrations"
)

type PostgresRepositoryManager struct {
	db          *sql.DB
	accounts    accounts.Repository
	credentials credentials.Repository
}

func (m *PostgresRepositoryManager) Accounts() accounts.Repository {
	return m.accounts
}

func (m *PostgresRepositoryManager) Credentials() credentials.Repository {
	return m.credentials
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect error: %w", err)
	}

	if err := goose.UpContext(ctx, m.db, "."); err != nil {
		return err
	}

	return nil
}

func NewPostgresRepositoryManager(ctx context.Context, dsn string) (*PostgresRepositoryManager, error) {

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	accountRepo, err := accounts.NewPostgresRepository(db)
	if err != nil {
		return nil, fmt.Errorf("account repo creation error: %w", err)
	}

	credentialRepo, err := credentials.NewPostgresRepository(db)
	if err != nil {
		return nil, fmt.Errorf("credential repo creation error: %w", err)
	}

	m := &PostgresRepositoryManager{
		db:          db,
		accounts:    accountRepo,
		credentials: credentialRepo,
	}

	if err := m.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}

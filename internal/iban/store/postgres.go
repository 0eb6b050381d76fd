package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"ibanmanager/internal/iban/models"
	id "ibanmanager/pkg/domain"
	"ibanmanager/pkg/platform/sentinel"
	txcontext "ibanmanager/pkg/platform/tx"
)

const ibanColumns = `id, daes_account_id, iban, country_code, currency, bank_code, branch_code,
	internal_account_number, status, created_by, created_at, updated_at`

// PostgresStore persists IBANs in PostgreSQL.
// Calls made inside a transaction carried in ctx join that transaction, and
// FindByID then locks the row until commit.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, iban *models.IBAN) error {
	if iban == nil {
		return fmt.Errorf("iban is required")
	}
	query := `
		INSERT INTO ibans (` + ibanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(iban.ID),
		iban.DaesAccountID.String(),
		iban.IBAN,
		iban.CountryCode.Code(),
		iban.Currency,
		iban.BankCode,
		nullString(iban.BranchCode),
		iban.InternalAccountNumber,
		iban.Status.String(),
		iban.CreatedBy,
		iban.CreatedAt,
		iban.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("iban %s: %w", iban.IBAN, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("save iban: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, iban *models.IBAN) error {
	if iban == nil {
		return fmt.Errorf("iban is required")
	}
	query := `
		UPDATE ibans
		SET status = $2, updated_at = $3
		WHERE id = $1
	`
	res, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(iban.ID),
		iban.Status.String(),
		iban.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update iban: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update iban rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, ibanID id.IBANID) (*models.IBAN, error) {
	query := `SELECT ` + ibanColumns + ` FROM ibans WHERE id = $1`
	if _, inTx := txcontext.From(ctx); inTx {
		query += ` FOR UPDATE`
	}
	iban, err := scanIBAN(txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(ibanID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find iban by id: %w", err)
	}
	return iban, nil
}

func (s *PostgresStore) FindByIBAN(ctx context.Context, iban string) (*models.IBAN, error) {
	query := `SELECT ` + ibanColumns + ` FROM ibans WHERE iban = $1`
	found, err := scanIBAN(txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query, iban))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find iban by value: %w", err)
	}
	return found, nil
}

func (s *PostgresStore) FindByDaesAccountID(ctx context.Context, accountID id.AccountID) ([]*models.IBAN, error) {
	query := `SELECT ` + ibanColumns + ` FROM ibans WHERE daes_account_id = $1 ORDER BY created_at, id`
	return s.queryMany(ctx, "find ibans by account", query, accountID.String())
}

func (s *PostgresStore) FindByStatus(ctx context.Context, status models.Status) ([]*models.IBAN, error) {
	query := `SELECT ` + ibanColumns + ` FROM ibans WHERE status = $1 ORDER BY created_at, id`
	return s.queryMany(ctx, "find ibans by status", query, status.String())
}

func (s *PostgresStore) ExistsByIBAN(ctx context.Context, iban string) (bool, error) {
	var exists bool
	err := txcontext.ExecutorFrom(ctx, s.db).
		QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM ibans WHERE iban = $1)`, iban).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check iban exists: %w", err)
	}
	return exists, nil
}

// FindAll pages through records ordered by creation time. A non-positive limit returns all rows.
func (s *PostgresStore) FindAll(ctx context.Context, limit, offset int) ([]*models.IBAN, error) {
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + ibanColumns + ` FROM ibans ORDER BY created_at, id OFFSET $1`
	args := []any{offset}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	return s.queryMany(ctx, "list ibans", query, args...)
}

func (s *PostgresStore) queryMany(ctx context.Context, op, query string, args ...any) ([]*models.IBAN, error) {
	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := []*models.IBAN{}
	for rows.Next() {
		iban, err := scanIBAN(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, iban)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

type ibanRow interface {
	Scan(dest ...any) error
}

func scanIBAN(row ibanRow) (*models.IBAN, error) {
	var (
		p         models.Props
		ibanID    uuid.UUID
		accountID string
		country   string
		branch    sql.NullString
		status    string
	)
	if err := row.Scan(
		&ibanID, &accountID, &p.IBAN, &country, &p.Currency, &p.BankCode, &branch,
		&p.InternalAccountNumber, &status, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.ID = id.IBANID(ibanID)
	p.DaesAccountID = id.AccountID(accountID)
	p.CountryCode = models.CountryCode(country)
	p.BranchCode = branch.String
	p.Status = models.Status(status)
	return models.Reconstitute(p), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

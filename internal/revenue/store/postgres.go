package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JRosan/fop-system-sub004/internal/revenue/models"
	"github.com/JRosan/fop-system-sub004/pkg/money"
	"github.com/JRosan/fop-system-sub004/pkg/platform/sentinel"
)

// Schema creates the revenue tables. Applied at startup and by the
// integration-test container helper.
const Schema = `
CREATE TABLE IF NOT EXISTS invoices (
	id UUID PRIMARY KEY,
	tenant_id UUID NOT NULL,
	operator_id UUID NOT NULL,
	status TEXT NOT NULL,
	due_date TIMESTAMPTZ,
	doc JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_invoices_operator ON invoices (operator_id);
CREATE INDEX IF NOT EXISTS idx_invoices_status_due ON invoices (status, due_date);

CREATE SEQUENCE IF NOT EXISTS invoice_number_seq;

CREATE TABLE IF NOT EXISTS operator_balances (
	operator_id UUID PRIMARY KEY,
	tenant_id UUID NOT NULL,
	doc JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

// PostgresInvoiceStore persists invoice aggregates in PostgreSQL. The
// aggregate is stored whole as a JSONB document; the columns exist for the
// reconciliation jobs' scans and for uniqueness, never as a second source of
// truth. Execute takes a row lock so concurrent mutations of one invoice
// serialize, matching the in-memory store's semantics.
type PostgresInvoiceStore struct {
	db *sql.DB
}

func NewPostgresInvoiceStore(db *sql.DB) *PostgresInvoiceStore {
	return &PostgresInvoiceStore{db: db}
}

// NextSequence reserves the next invoice-number sequence value.
func (s *PostgresInvoiceStore) NextSequence(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT nextval('invoice_number_seq')`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next invoice sequence: %w", err)
	}
	return seq, nil
}

func (s *PostgresInvoiceStore) Create(ctx context.Context, inv *models.Invoice) error {
	doc, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("encode invoice: %w", err)
	}
	query := `
		INSERT INTO invoices (id, tenant_id, operator_id, status, due_date, doc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		inv.ID, inv.TenantID, inv.OperatorID, string(inv.Status), inv.DueDate, doc, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresInvoiceStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM invoices WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find invoice: %w", err)
	}
	return decodeInvoice(doc)
}

// ListPastDue returns Pending or PartiallyPaid invoices whose due date has
// passed. Already-Overdue invoices are excluded so reprocessing is a no-op.
func (s *PostgresInvoiceStore) ListPastDue(ctx context.Context, now time.Time) ([]*models.Invoice, error) {
	query := `
		SELECT doc FROM invoices
		WHERE status IN ($1, $2) AND due_date IS NOT NULL AND due_date < $3
	`
	return s.list(ctx, query, string(models.InvoicePending), string(models.InvoicePartiallyPaid), now)
}

// ListOverdue returns all Overdue invoices for interest accrual.
func (s *PostgresInvoiceStore) ListOverdue(ctx context.Context) ([]*models.Invoice, error) {
	return s.list(ctx, `SELECT doc FROM invoices WHERE status = $1`, string(models.InvoiceOverdue))
}

// Execute runs an atomic read-modify-write on one invoice under a row lock.
func (s *PostgresInvoiceStore) Execute(ctx context.Context, id uuid.UUID, fn func(inv *models.Invoice) error) (*models.Invoice, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin invoice tx: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()

	var doc []byte
	err = dbTx.QueryRowContext(ctx, `SELECT doc FROM invoices WHERE id = $1 FOR UPDATE`, id).Scan(&doc)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock invoice: %w", err)
	}

	inv, err := decodeInvoice(doc)
	if err != nil {
		return nil, err
	}
	if err := fn(inv); err != nil {
		return nil, err
	}

	updated, err := json.Marshal(inv)
	if err != nil {
		return nil, fmt.Errorf("encode invoice: %w", err)
	}
	query := `
		UPDATE invoices
		SET status = $2, due_date = $3, doc = $4, updated_at = $5
		WHERE id = $1
	`
	if _, err := dbTx.ExecContext(ctx, query, inv.ID, string(inv.Status), inv.DueDate, updated, inv.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update invoice: %w", err)
	}
	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit invoice tx: %w", err)
	}
	return inv, nil
}

func (s *PostgresInvoiceStore) list(ctx context.Context, query string, args ...any) ([]*models.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []*models.Invoice
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		inv, err := decodeInvoice(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return out, nil
}

func decodeInvoice(doc []byte) (*models.Invoice, error) {
	var inv models.Invoice
	if err := json.Unmarshal(doc, &inv); err != nil {
		return nil, fmt.Errorf("decode invoice: %w", err)
	}
	return &inv, nil
}

// PostgresBalanceStore persists operator account balances, created lazily on
// first use like the in-memory store.
type PostgresBalanceStore struct {
	db *sql.DB
}

func NewPostgresBalanceStore(db *sql.DB) *PostgresBalanceStore {
	return &PostgresBalanceStore{db: db}
}

func (s *PostgresBalanceStore) FindByOperator(ctx context.Context, operatorID uuid.UUID) (*models.OperatorAccountBalance, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM operator_balances WHERE operator_id = $1`, operatorID).Scan(&doc)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find balance: %w", err)
	}
	return decodeBalance(doc)
}

// Execute runs an atomic read-modify-write on one operator's balance under a
// row lock, inserting a zeroed record first if none exists.
func (s *PostgresBalanceStore) Execute(ctx context.Context, tenantID, operatorID uuid.UUID, currency money.Currency, now time.Time, fn func(b *models.OperatorAccountBalance) error) (*models.OperatorAccountBalance, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin balance tx: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()

	fresh := models.NewOperatorAccountBalance(tenantID, operatorID, currency, now)
	freshDoc, err := json.Marshal(fresh)
	if err != nil {
		return nil, fmt.Errorf("encode balance: %w", err)
	}
	insert := `
		INSERT INTO operator_balances (operator_id, tenant_id, doc, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (operator_id) DO NOTHING
	`
	if _, err := dbTx.ExecContext(ctx, insert, operatorID, tenantID, freshDoc, now); err != nil {
		return nil, fmt.Errorf("init balance: %w", err)
	}

	var doc []byte
	err = dbTx.QueryRowContext(ctx, `SELECT doc FROM operator_balances WHERE operator_id = $1 FOR UPDATE`, operatorID).Scan(&doc)
	if err != nil {
		return nil, fmt.Errorf("lock balance: %w", err)
	}
	balance, err := decodeBalance(doc)
	if err != nil {
		return nil, err
	}
	if err := fn(balance); err != nil {
		return nil, err
	}

	updated, err := json.Marshal(balance)
	if err != nil {
		return nil, fmt.Errorf("encode balance: %w", err)
	}
	update := `UPDATE operator_balances SET doc = $2, updated_at = $3 WHERE operator_id = $1`
	if _, err := dbTx.ExecContext(ctx, update, operatorID, updated, balance.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}
	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit balance tx: %w", err)
	}
	return balance, nil
}

func decodeBalance(doc []byte) (*models.OperatorAccountBalance, error) {
	var b models.OperatorAccountBalance
	if err := json.Unmarshal(doc, &b); err != nil {
		return nil, fmt.Errorf("decode balance: %w", err)
	}
	return &b, nil
}

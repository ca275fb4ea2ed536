package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clearledger/internal/ledger/models"
	"clearledger/internal/platform/postgres"
	"clearledger/pkg/domain"
	"clearledger/pkg/platform/sentinel"
	"clearledger/pkg/platform/tx"
)

const (
	membersPrimaryKey = "ledger_members_pkey"

	selectLedger      = `SELECT l.id, l.owner_id, l.name, l.description, l.created_at FROM ledgers l`
	selectTransaction = `SELECT id, ledger_id, author_id, type, amount, category, note, occurred_at, created_at FROM transactions`
)

// PostgresStore persists ledgers in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateLedger(ctx context.Context, ledger *models.Ledger, owner *models.Member) error {
	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		conn := postgres.Conn(ctx, s.db)
		_, err := conn.ExecContext(ctx, `
			INSERT INTO ledgers (id, owner_id, name, description, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			ledger.ID.String(), ledger.OwnerID.String(), ledger.Name, ledger.Description, ledger.CreatedAt)
		if err != nil {
			if _, ok := postgres.UniqueConstraint(err); ok {
				return fmt.Errorf("create ledger: %w", sentinel.ErrConflict)
			}
			return fmt.Errorf("create ledger: %w", err)
		}
		return s.insertMember(ctx, conn, owner)
	})
}

func (s *PostgresStore) FindLedger(ctx context.Context, id domain.LedgerID) (*models.Ledger, error) {
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx, selectLedger+` WHERE l.id = $1`, id.String())
	ledger, err := scanLedger(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find ledger: %w", err)
	}
	return ledger, nil
}

func (s *PostgresStore) ListLedgersForUser(ctx context.Context, userID domain.UserID) ([]*models.Ledger, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, selectLedger+`
		JOIN ledger_members m ON m.ledger_id = l.id
		WHERE m.user_id = $1
		ORDER BY l.created_at DESC, l.id DESC`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list ledgers: %w", err)
	}
	defer rows.Close()

	var out []*models.Ledger
	for rows.Next() {
		ledger, err := scanLedger(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		out = append(out, ledger)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ledgers: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) FindMember(ctx context.Context, ledgerID domain.LedgerID, userID domain.UserID) (*models.Member, error) {
	var (
		m              models.Member
		ledger, member string
		role           string
	)
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT ledger_id, user_id, role, added_at FROM ledger_members
		WHERE ledger_id = $1 AND user_id = $2`, ledgerID.String(), userID.String()).
		Scan(&ledger, &member, &role, &m.AddedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find member: %w", err)
	}
	m.LedgerID = domain.LedgerID(ledger)
	m.UserID = domain.UserID(member)
	m.Role = models.Role(role)
	return &m, nil
}

func (s *PostgresStore) AddMember(ctx context.Context, member *models.Member) error {
	return s.insertMember(ctx, postgres.Conn(ctx, s.db), member)
}

func (s *PostgresStore) insertMember(ctx context.Context, conn postgres.DBTX, member *models.Member) error {
	_, err := conn.ExecContext(ctx, `
		INSERT INTO ledger_members (ledger_id, user_id, role, added_at)
		VALUES ($1, $2, $3, $4)`,
		member.LedgerID.String(), member.UserID.String(), string(member.Role), member.AddedAt)
	if err != nil {
		if constraint, ok := postgres.UniqueConstraint(err); ok && constraint == membersPrimaryKey {
			return ErrMemberExists
		}
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO transactions (id, ledger_id, author_id, type, amount, category, note, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		txn.ID.String(), txn.LedgerID.String(), txn.AuthorID.String(), string(txn.Type), txn.Amount,
		txn.Category, txn.Note, txn.OccurredAt, txn.CreatedAt)
	if err != nil {
		if _, ok := postgres.UniqueConstraint(err); ok {
			return fmt.Errorf("create transaction: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// ListTransactions reads the page and the total in one repeatable-read,
// read-only transaction so both see the same snapshot.
func (s *PostgresStore) ListTransactions(ctx context.Context, ledgerID domain.LedgerID, offset, limit int) ([]*models.Transaction, int, error) {
	var (
		out   []*models.Transaction
		total int
	)
	err := tx.RunWith(ctx, s.db, tx.ReadSnapshot, func(ctx context.Context) error {
		conn := postgres.Conn(ctx, s.db)
		if err := conn.QueryRowContext(ctx,
			`SELECT count(*) FROM transactions WHERE ledger_id = $1`, ledgerID.String()).Scan(&total); err != nil {
			return fmt.Errorf("count transactions: %w", err)
		}

		rows, err := conn.QueryContext(ctx, selectTransaction+`
			WHERE ledger_id = $1
			ORDER BY occurred_at DESC, created_at DESC, id DESC
			OFFSET $2 LIMIT $3`, ledgerID.String(), offset, limit)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		defer rows.Close()

		out = make([]*models.Transaction, 0, limit)
		for rows.Next() {
			txn, err := scanTransaction(rows)
			if err != nil {
				return fmt.Errorf("scan transaction: %w", err)
			}
			out = append(out, txn)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLedger(row scanner) (*models.Ledger, error) {
	var (
		l         models.Ledger
		id, owner string
	)
	if err := row.Scan(&id, &owner, &l.Name, &l.Description, &l.CreatedAt); err != nil {
		return nil, err
	}
	l.ID = domain.LedgerID(id)
	l.OwnerID = domain.UserID(owner)
	return &l, nil
}

func scanTransaction(row scanner) (*models.Transaction, error) {
	var (
		t                  models.Transaction
		id, ledger, author string
		kind               string
	)
	if err := row.Scan(&id, &ledger, &author, &kind, &t.Amount, &t.Category, &t.Note, &t.OccurredAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.ID = domain.TransactionID(id)
	t.LedgerID = domain.LedgerID(ledger)
	t.AuthorID = domain.UserID(author)
	t.Type = models.TransactionType(kind)
	return &t, nil
}

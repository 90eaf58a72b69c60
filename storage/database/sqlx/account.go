package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kalvi/core/access"
	"github.com/trezcool/kalvi/core/account"
)

const accountColumns = `
	a.id, a.username, a.password_hash, a.is_active, a.role, a.branch_id,
	br.city_name AS branch_city, a.created_at, a.updated_at, a.last_login`

const accountFrom = ` FROM accounts a LEFT JOIN branches br ON br.id = a.branch_id`

type accountRow struct {
	ID           int64       `db:"id"`
	Username     string      `db:"username"`
	PasswordHash []byte      `db:"password_hash"`
	IsActive     bool        `db:"is_active"`
	Role         string      `db:"role"`
	BranchID     null.Int64  `db:"branch_id"`
	BranchCity   null.String `db:"branch_city"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

func (row accountRow) toAccount() account.Account {
	return account.Account{
		ID:           row.ID,
		Username:     row.Username,
		IsActive:     row.IsActive,
		Role:         access.Role(row.Role),
		BranchID:     row.BranchID.Ptr(),
		BranchCity:   row.BranchCity.String,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
		LastLogin:    row.LastLogin.Time.UTC(),
	}
}

type accountRepository struct {
	exec sqlx.ExtContext
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(exec sqlx.ExtContext) *accountRepository {
	return &accountRepository{exec: exec}
}

func (repo accountRepository) CheckUsernameUniqueness(ctx context.Context, username string, excluded ...account.Account) error {
	ids := make([]int64, 0, len(excluded))
	for _, acc := range excluded {
		ids = append(ids, acc.ID)
	}

	var exists bool
	q := `SELECT EXISTS(SELECT 1 FROM accounts WHERE username = $1 AND id <> ALL($2))`
	if err := sqlx.GetContext(ctx, repo.exec, &exists, q, username, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	if exists {
		return account.ErrUsernameExists
	}
	return nil
}

func (repo accountRepository) trapWriteErr(err error, msg string) error {
	if _, ok := isViolation(err, pgUniqueViolation); ok {
		return account.ErrUsernameExists
	}
	if _, ok := isViolation(err, pgForeignKeyViolation); ok {
		return account.ErrBranchNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo accountRepository) CreateAccount(ctx context.Context, acc account.Account) (account.Account, error) {
	q := `
		INSERT INTO accounts (username, password_hash, is_active, role, branch_id, created_at, updated_at, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	var id int64
	err := repo.exec.QueryRowxContext(
		ctx, q,
		acc.Username, acc.PasswordHash, acc.IsActive, string(acc.Role), null.Int64FromPtr(acc.BranchID),
		acc.CreatedAt.UTC(), acc.UpdatedAt.UTC(), null.NewTime(acc.LastLogin.UTC(), !acc.LastLogin.IsZero()),
	).Scan(&id)
	if err != nil {
		return account.Account{}, repo.trapWriteErr(err, "inserting account")
	}
	return repo.GetAccount(ctx, account.GetFilter{ID: id})
}

func (repo accountRepository) QueryAccounts(ctx context.Context) ([]account.Account, error) {
	var rows []accountRow
	q := `SELECT` + accountColumns + accountFrom + ` ORDER BY a.username`
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying accounts")
	}

	accounts := make([]account.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, row.toAccount())
	}
	return accounts, nil
}

func (repo accountRepository) GetAccount(ctx context.Context, filter account.GetFilter) (account.Account, error) {
	var (
		row accountRow
		q   = `SELECT` + accountColumns + accountFrom
		arg interface{}
	)
	switch {
	case filter.ID != 0:
		q += ` WHERE a.id = $1`
		arg = filter.ID
	case filter.Username != "":
		q += ` WHERE a.username = $1`
		arg = filter.Username
	default:
		return account.Account{}, account.ErrNotFound
	}

	if err := sqlx.GetContext(ctx, repo.exec, &row, q, arg); err != nil {
		return account.Account{}, trapNoRowsErr(err, account.ErrNotFound, "getting account")
	}
	return row.toAccount(), nil
}

func (repo accountRepository) UpdateAccount(ctx context.Context, acc account.Account) (account.Account, error) {
	q := `
		UPDATE accounts
		SET username = $2, password_hash = $3, is_active = $4, role = $5, branch_id = $6, updated_at = $7, last_login = $8
		WHERE id = $1`

	res, err := repo.exec.ExecContext(
		ctx, q,
		acc.ID, acc.Username, acc.PasswordHash, acc.IsActive, string(acc.Role), null.Int64FromPtr(acc.BranchID),
		acc.UpdatedAt.UTC(), null.NewTime(acc.LastLogin.UTC(), !acc.LastLogin.IsZero()),
	)
	if err != nil {
		return account.Account{}, repo.trapWriteErr(err, "updating account")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return account.Account{}, account.ErrNotFound
	}
	return repo.GetAccount(ctx, account.GetFilter{ID: acc.ID})
}

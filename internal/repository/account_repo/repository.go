package account_repo

import (
	"context"
	"crash_backend/internal/model"
	"crash_backend/internal/repository"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	table          = "accounts"
	colID          = "id"
	colRealBalance = "real_balance"
	colDemoBalance = "demo_balance"
	colActiveMode  = "active_mode"

	entriesTable = "ledger_entries"
	colEntryID   = "id"
	colAccountID = "account_id"
	colMode      = "mode"
	colAmount    = "amount"
	colBalance   = "balance_after"
	colReason    = "reason"
	colRoundID   = "round_id"
	colCreatedAt = "created_at"
)

type repo struct {
	dbc    *pgxpool.Pool
	getter *trmpgx.CtxGetter
}

func NewAccountRepository(dbc *pgxpool.Pool, getter *trmpgx.CtxGetter) repository.AccountRepository {
	return &repo{
		dbc:    dbc,
		getter: getter,
	}
}

// conn - текущая транзакция из контекста, либо пул
func (r *repo) conn(ctx context.Context) trmpgx.Tr {
	return r.getter.DefaultTrOrDB(ctx, r.dbc)
}

func balanceColumn(mode model.BalanceMode) (string, error) {
	switch mode {
	case model.ModeReal:
		return colRealBalance, nil
	case model.ModeDemo:
		return colDemoBalance, nil
	}
	return "", fmt.Errorf("unknown balance mode %q", mode)
}

// CreateAccount - создаёт счёт с нулевым реальным балансом и демо-грантом.
// Повторный вызов для существующего счёта ничего не меняет
func (r *repo) CreateAccount(ctx context.Context, id string, demoGrant decimal.Decimal) error {
	query := sq.Insert(table).
		Columns(colID, colRealBalance, colDemoBalance, colActiveMode).
		Values(id, decimal.Zero, demoGrant, string(model.ModeReal)).
		Suffix("ON CONFLICT (" + colID + ") DO NOTHING").
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.conn(ctx).Exec(ctx, sqlStr, args...)
	return err
}

// GetAccount - возвращает счёт или model.ErrAccountNotFound
func (r *repo) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	query := sq.Select(colID, colRealBalance+"::text", colDemoBalance+"::text", colActiveMode).
		From(table).
		Where(sq.Eq{colID: id}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var (
		acc           model.Account
		realRaw, demo string
		mode          string
	)
	err = r.conn(ctx).QueryRow(ctx, sqlStr, args...).Scan(&acc.ID, &realRaw, &demo, &mode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}

	if acc.RealBalance, err = decimal.NewFromString(realRaw); err != nil {
		return nil, err
	}
	if acc.DemoBalance, err = decimal.NewFromString(demo); err != nil {
		return nil, err
	}
	acc.ActiveMode = model.BalanceMode(mode)

	return &acc, nil
}

func (r *repo) SetActiveMode(ctx context.Context, id string, mode model.BalanceMode) error {
	query := sq.Update(table).
		Set(colActiveMode, string(mode)).
		Where(sq.Eq{colID: id}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}

	res, err := r.conn(ctx).Exec(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return model.ErrAccountNotFound
	}
	return nil
}

// Debit - списание одним UPDATE с условием на достаточность средств.
// Возвращает новый баланс
func (r *repo) Debit(ctx context.Context, id string, amount decimal.Decimal, mode model.BalanceMode) (decimal.Decimal, error) {
	col, err := balanceColumn(mode)
	if err != nil {
		return decimal.Zero, err
	}

	query := sq.Update(table).
		Set(col, sq.Expr(col+" - ?", amount)).
		Where(sq.Eq{colID: id}).
		Where(sq.GtOrEq{col: amount}).
		Suffix("RETURNING " + col + "::text").
		PlaceholderFormat(sq.Dollar)

	balance, err := r.updateBalance(ctx, query)
	if errors.Is(err, pgx.ErrNoRows) {
		// либо счёта нет, либо не хватает средств
		if _, getErr := r.GetAccount(ctx, id); getErr != nil {
			return decimal.Zero, getErr
		}
		return decimal.Zero, model.ErrInsufficientFunds
	}
	return balance, err
}

func (r *repo) Credit(ctx context.Context, id string, amount decimal.Decimal, mode model.BalanceMode) (decimal.Decimal, error) {
	col, err := balanceColumn(mode)
	if err != nil {
		return decimal.Zero, err
	}

	query := sq.Update(table).
		Set(col, sq.Expr(col+" + ?", amount)).
		Where(sq.Eq{colID: id}).
		Suffix("RETURNING " + col + "::text").
		PlaceholderFormat(sq.Dollar)

	balance, err := r.updateBalance(ctx, query)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, model.ErrAccountNotFound
	}
	return balance, err
}

func (r *repo) updateBalance(ctx context.Context, query sq.UpdateBuilder) (decimal.Decimal, error) {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return decimal.Zero, err
	}

	var raw string
	if err = r.conn(ctx).QueryRow(ctx, sqlStr, args...).Scan(&raw); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
}

// AddEntry - пишет запись в журнал движения средств
func (r *repo) AddEntry(ctx context.Context, entry *model.LedgerEntry) error {
	query := sq.Insert(entriesTable).
		Columns(colEntryID, colAccountID, colMode, colAmount, colBalance, colReason, colRoundID, colCreatedAt).
		Values(entry.ID, entry.AccountID, string(entry.Mode), entry.Amount, entry.Balance, entry.Reason, int64(entry.RoundID), entry.CreatedAt).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.conn(ctx).Exec(ctx, sqlStr, args...)
	return err
}

func (r *repo) HasEntry(ctx context.Context, accountID, reason string, roundID uint64, since time.Time) (bool, error) {
	query := sq.Select("1").
		From(entriesTable).
		Where(sq.Eq{colAccountID: accountID, colReason: reason, colRoundID: int64(roundID)}).
		Where(sq.GtOrEq{colCreatedAt: since}).
		Limit(1).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return false, err
	}

	var one int
	err = r.conn(ctx).QueryRow(ctx, sqlStr, args...).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

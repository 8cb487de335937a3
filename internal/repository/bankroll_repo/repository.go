package bankroll_repo

import (
	"context"
	"crash_backend/internal/repository"
	"errors"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	table        = "bankroll"
	colID        = "id"
	colAvailable = "available"

	// пул у дома один
	poolID = 1
)

type repo struct {
	dbc    *pgxpool.Pool
	getter *trmpgx.CtxGetter
}

func NewBankrollRepository(dbc *pgxpool.Pool, getter *trmpgx.CtxGetter) repository.BankrollRepository {
	return &repo{
		dbc:    dbc,
		getter: getter,
	}
}

func (r *repo) conn(ctx context.Context) trmpgx.Tr {
	return r.getter.DefaultTrOrDB(ctx, r.dbc)
}

// GetBankroll - текущий размер пула. found=false, если строка ещё не создана
func (r *repo) GetBankroll(ctx context.Context) (decimal.Decimal, bool, error) {
	query := sq.Select(colAvailable + "::text").
		From(table).
		Where(sq.Eq{colID: poolID}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return decimal.Zero, false, err
	}

	var raw string
	err = r.conn(ctx).QueryRow(ctx, sqlStr, args...).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, err
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, err
	}
	return amount, true, nil
}

// InitBankroll - создаёт пул с начальной суммой, если его нет
func (r *repo) InitBankroll(ctx context.Context, amount decimal.Decimal) error {
	query := sq.Insert(table).
		Columns(colID, colAvailable).
		Values(poolID, amount).
		Suffix("ON CONFLICT (" + colID + ") DO NOTHING").
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.conn(ctx).Exec(ctx, sqlStr, args...)
	return err
}

// AdjustBankroll - прибавляет delta к пулу и возвращает новое значение.
// Отрицательный результат допустим
func (r *repo) AdjustBankroll(ctx context.Context, delta decimal.Decimal) (decimal.Decimal, error) {
	query := sq.Update(table).
		Set(colAvailable, sq.Expr(colAvailable+" + ?", delta)).
		Where(sq.Eq{colID: poolID}).
		Suffix("RETURNING " + colAvailable + "::text").
		PlaceholderFormat(sq.Dollar)

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

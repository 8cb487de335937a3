package round_repo

import (
	"context"
	"crash_backend/internal/model"
	"crash_backend/internal/repository"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	table         = "rounds"
	colID         = "id"
	colCrashPoint = "crash_point"
	colServerSeed = "server_seed"
	colSeedHash   = "seed_hash"
	colSalt       = "salt"
	colHouseEdge  = "house_edge"
	colMaxCrash   = "max_crash_point"
	colStartedAt  = "started_at"
	colSettledAt  = "settled_at"
	colTotalStake = "total_stake"
	colTotalPaid  = "total_paid"
	colWagers     = "wagers"
)

type repo struct {
	dbc *pgxpool.Pool
}

func NewRoundRepository(dbc *pgxpool.Pool) repository.RoundRepository {
	return &repo{
		dbc: dbc,
	}
}

// SaveRound - сохраняет результат раунда. Повторное сохранение обновляет итоги
func (r *repo) SaveRound(ctx context.Context, rec *model.RoundRecord) error {
	update := sq.Update(table).
		Set(colTotalStake, rec.TotalStake).
		Set(colTotalPaid, rec.TotalPaid).
		Set(colWagers, rec.Wagers).
		Where(sq.Eq{colID: int64(rec.ID)}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := update.ToSql()
	if err != nil {
		return err
	}

	res, err := r.dbc.Exec(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	if res.RowsAffected() > 0 {
		return nil
	}

	insert := sq.Insert(table).
		Columns(colID, colCrashPoint, colServerSeed, colSeedHash, colSalt, colHouseEdge, colMaxCrash,
			colStartedAt, colSettledAt, colTotalStake, colTotalPaid, colWagers).
		Values(int64(rec.ID), rec.CrashPoint, rec.ServerSeed, rec.SeedHash, rec.Salt, rec.HouseEdge, rec.MaxCrashPoint,
			rec.StartedAt, rec.SettledAt, rec.TotalStake, rec.TotalPaid, rec.Wagers).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err = insert.ToSql()
	if err != nil {
		return err
	}

	_, err = r.dbc.Exec(ctx, sqlStr, args...)
	return err
}

// GetRound - раунд по номеру или repository.ErrNotFound
func (r *repo) GetRound(ctx context.Context, id uint64) (*model.RoundRecord, error) {
	query := sq.Select(colID, colCrashPoint+"::text", colServerSeed, colSeedHash, colSalt, colHouseEdge, colMaxCrash+"::text",
		colStartedAt, colSettledAt, colTotalStake+"::text", colTotalPaid+"::text", colWagers).
		From(table).
		Where(sq.Eq{colID: int64(id)}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var (
		rec                          model.RoundRecord
		rawID                        int64
		crash, maxCrash, stake, paid string
	)
	err = r.dbc.QueryRow(ctx, sqlStr, args...).Scan(&rawID, &crash, &rec.ServerSeed, &rec.SeedHash,
		&rec.Salt, &rec.HouseEdge, &maxCrash, &rec.StartedAt, &rec.SettledAt, &stake, &paid, &rec.Wagers)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	rec.ID = uint64(rawID)
	if rec.CrashPoint, err = decimal.NewFromString(crash); err != nil {
		return nil, err
	}
	if rec.MaxCrashPoint, err = decimal.NewFromString(maxCrash); err != nil {
		return nil, err
	}
	if rec.TotalStake, err = decimal.NewFromString(stake); err != nil {
		return nil, err
	}
	if rec.TotalPaid, err = decimal.NewFromString(paid); err != nil {
		return nil, err
	}
	return &rec, nil
}

// LastRoundID - номер последнего сохранённого раунда, 0 если их нет
func (r *repo) LastRoundID(ctx context.Context) (uint64, error) {
	query := sq.Select("COALESCE(MAX(" + colID + "), 0)").
		From(table).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	var id int64
	if err = r.dbc.QueryRow(ctx, sqlStr, args...).Scan(&id); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// RecentCrashPoints - точки краха последних раундов, от новых к старым
func (r *repo) RecentCrashPoints(ctx context.Context, limit int) ([]decimal.Decimal, error) {
	query := sq.Select(colCrashPoint + "::text").
		From(table).
		OrderBy(colID + " DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.dbc.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]decimal.Decimal, 0, limit)
	for rows.Next() {
		var raw string
		if err = rows.Scan(&raw); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, err
		}
		points = append(points, d)
	}
	return points, rows.Err()
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"swapScope/internal/model"
)

// Store provides Postgres persistence for snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// SaveSnapshot upserts the snapshot row and replaces its tick ladder.
func (s *Store) SaveSnapshot(ctx context.Context, snap *model.PoolSnapshot) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO pool_snapshots (
			chain_id, pool_address, block_number, block_time,
			token0, token0_decimals, token0_symbol, token0_name,
			token1, token1_decimals, token1_symbol, token1_name,
			fee, tick_spacing, sqrt_price_x96, tick, liquidity,
			complete, observed_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,now(),now())
		ON CONFLICT (chain_id, pool_address, block_number)
		DO UPDATE SET
			block_time = EXCLUDED.block_time,
			sqrt_price_x96 = EXCLUDED.sqrt_price_x96,
			tick = EXCLUDED.tick,
			liquidity = EXCLUDED.liquidity,
			complete = EXCLUDED.complete,
			observed_at = EXCLUDED.observed_at,
			updated_at = now()
	`,
		int64(snap.ChainID),
		snap.Address,
		int64(snap.BlockNumber),
		int64(snap.BlockTime),
		snap.Token0.Address,
		int16(snap.Token0.Decimals),
		snap.Token0.Symbol,
		snap.Token0.Name,
		snap.Token1.Address,
		int16(snap.Token1.Decimals),
		snap.Token1.Symbol,
		snap.Token1.Name,
		int32(snap.Fee),
		snap.TickSpacing,
		snap.SqrtPriceX96,
		snap.Tick,
		snap.Liquidity,
		snap.Complete,
		snap.ObservedAt,
	)
	batch.Queue(`
		DELETE FROM pool_ticks
		WHERE chain_id = $1 AND pool_address = $2 AND block_number = $3
	`, int64(snap.ChainID), snap.Address, int64(snap.BlockNumber))
	for _, t := range snap.Ticks {
		batch.Queue(`
			INSERT INTO pool_ticks (
				chain_id, pool_address, block_number, tick_index, liquidity_gross, liquidity_net
			) VALUES ($1,$2,$3,$4,$5,$6)
		`,
			int64(snap.ChainID),
			snap.Address,
			int64(snap.BlockNumber),
			t.Index,
			t.LiquidityGross,
			t.LiquidityNet,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadLatest returns the highest-block snapshot for a pool. A zero chainID
// matches any chain.
func (s *Store) LoadLatest(ctx context.Context, chainID uint64, pool string) (*model.PoolSnapshot, bool, error) {
	if pool == "" {
		return nil, false, fmt.Errorf("pool address required")
	}

	var (
		snap      model.PoolSnapshot
		chain     int64
		block     int64
		blockTime int64
		fee       int32
		dec0      int16
		dec1      int16
	)
	row := s.pool.QueryRow(ctx, `
		SELECT chain_id, pool_address, block_number, block_time,
			token0, token0_decimals, token0_symbol, token0_name,
			token1, token1_decimals, token1_symbol, token1_name,
			fee, tick_spacing, sqrt_price_x96, tick, liquidity,
			complete, observed_at
		FROM pool_snapshots
		WHERE lower(pool_address) = lower($1) AND ($2 = 0 OR chain_id = $2)
		ORDER BY block_number DESC
		LIMIT 1
	`, pool, int64(chainID))
	err := row.Scan(
		&chain, &snap.Address, &block, &blockTime,
		&snap.Token0.Address, &dec0, &snap.Token0.Symbol, &snap.Token0.Name,
		&snap.Token1.Address, &dec1, &snap.Token1.Symbol, &snap.Token1.Name,
		&fee, &snap.TickSpacing, &snap.SqrtPriceX96, &snap.Tick, &snap.Liquidity,
		&snap.Complete, &snap.ObservedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	snap.ChainID = uint64(chain)
	snap.BlockNumber = uint64(block)
	snap.BlockTime = uint64(blockTime)
	snap.Fee = uint32(fee)
	snap.Token0.Decimals = uint8(dec0)
	snap.Token1.Decimals = uint8(dec1)

	rows, err := s.pool.Query(ctx, `
		SELECT tick_index, liquidity_gross, liquidity_net
		FROM pool_ticks
		WHERE chain_id = $1 AND pool_address = $2 AND block_number = $3
		ORDER BY tick_index
	`, chain, snap.Address, block)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	for rows.Next() {
		var t model.TickRecord
		if err := rows.Scan(&t.Index, &t.LiquidityGross, &t.LiquidityNet); err != nil {
			return nil, false, err
		}
		snap.Ticks = append(snap.Ticks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return &snap, true, nil
}

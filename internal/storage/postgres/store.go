package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stakewatch/internal/model"
)

// Store provides Postgres persistence for activity and yield data.
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

// UpsertActivity inserts or updates classified activity records.
// Records are keyed by tx hash and log index, so replays are idempotent.
func (s *Store) UpsertActivity(ctx context.Context, chainID uint64, records []model.ActivityRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, record := range records {
		amountWei := "0"
		if record.AmountWei != nil {
			amountWei = record.AmountWei.String()
		}
		batch.Queue(`
			INSERT INTO activity_records (
				chain_id, record_id, kind, amount, amount_wei, occurred_at, tx_hash, block_number, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
			ON CONFLICT (chain_id, record_id)
			DO UPDATE SET
				kind = EXCLUDED.kind,
				amount = EXCLUDED.amount,
				amount_wei = EXCLUDED.amount_wei,
				occurred_at = EXCLUDED.occurred_at,
				block_number = EXCLUDED.block_number,
				updated_at = now()
		`,
			int64(chainID),
			record.ID,
			string(record.Kind),
			record.Amount,
			amountWei,
			int64(record.OccurredAt),
			record.TxHash,
			int64(record.BlockNumber),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// kindSources lists which record kinds feed each running total. Buyback
// amounts count under both BUYBACK and CORN_BURN: the bought-back CORN
// is destroyed, so it belongs in the burn total too.
var kindSources = map[model.Kind][]string{
	model.KindLPBurn:          {string(model.KindLPBurn)},
	model.KindCornBurn:        {string(model.KindCornBurn), string(model.KindBuyback)},
	model.KindRoutedToStaking: {string(model.KindRoutedToStaking)},
	model.KindBuyback:         {string(model.KindBuyback)},
}

// RefreshTotals recomputes the running per-kind totals from every
// stored activity record. Deriving them from the records table keeps
// the totals cumulative across checkpoint-resumed runs that each only
// ingested a slice of history.
func (s *Store) RefreshTotals(ctx context.Context, chainID uint64) error {
	batch := &pgx.Batch{}
	for kind, sources := range kindSources {
		batch.Queue(`
			INSERT INTO activity_totals (chain_id, kind, total_wei, updated_at)
			SELECT $1, $2, COALESCE(SUM(amount_wei::numeric), 0), now()
			FROM activity_records
			WHERE chain_id = $1 AND kind = ANY($3)
			ON CONFLICT (chain_id, kind)
			DO UPDATE SET total_wei = EXCLUDED.total_wei, updated_at = now()
		`,
			int64(chainID),
			string(kind),
			sources,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range kindSources {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertPoolYields inserts or updates one yield snapshot per pool.
func (s *Store) UpsertPoolYields(ctx context.Context, chainID uint64, snapshotAt time.Time, pools []model.PoolYield) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		totalStaked := "0"
		if pool.State.TotalStaked != nil {
			totalStaked = pool.State.TotalStaked.String()
		}
		batch.Queue(`
			INSERT INTO pool_yield_snapshots (
				chain_id, pool_id, pool_version, snapshot_at, apr_percent, tvl_usd, total_staked, paused, label, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
			ON CONFLICT (chain_id, pool_id, snapshot_at)
			DO UPDATE SET
				apr_percent = EXCLUDED.apr_percent,
				tvl_usd = EXCLUDED.tvl_usd,
				total_staked = EXCLUDED.total_staked,
				paused = EXCLUDED.paused,
				label = EXCLUDED.label
		`,
			int64(chainID),
			int64(pool.PoolID),
			pool.Version,
			snapshotAt,
			pool.Yield.APRPercent,
			pool.Yield.TVLUSD,
			totalStaked,
			pool.State.Paused,
			pool.State.Label,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range pools {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns last_processed_block for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var block uint64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_block FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return block, true, nil
}

// SaveState upserts last_processed_block for a name.
func (s *Store) SaveState(ctx context.Context, name string, block uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_state (name, last_processed_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_block = EXCLUDED.last_processed_block, updated_at = now()
	`, name, block)
	return err
}

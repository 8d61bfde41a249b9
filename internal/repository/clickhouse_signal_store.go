package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"RSIPulse/internal/domain/models"
	domrepo "RSIPulse/internal/domain/repository"
	pkgch "RSIPulse/pkg/clickhouse"
	applogger "RSIPulse/pkg/logger"
)

var signalSchema = []string{
	`CREATE TABLE IF NOT EXISTS rsipulse.rsi_points (
        ts        DateTime64(3),
        symbol    LowCardinality(String),
        timeframe LowCardinality(String),
        value     Float64
    ) ENGINE = MergeTree()
    PARTITION BY toYYYYMM(ts)
    ORDER BY (symbol, timeframe, ts)`,
	`CREATE TABLE IF NOT EXISTS rsipulse.alert_events (
        ts        DateTime64(3),
        symbol    LowCardinality(String),
        timeframe LowCardinality(String),
        from_zone LowCardinality(String),
        to_zone   LowCardinality(String),
        rsi       Float64
    ) ENGINE = MergeTree()
    PARTITION BY toYYYYMM(ts)
    ORDER BY (symbol, timeframe, ts)`,
	`CREATE TABLE IF NOT EXISTS rsipulse.divergence_signals (
        detected_at DateTime64(3),
        symbol      LowCardinality(String),
        timeframe   LowCardinality(String),
        kind        LowCardinality(String),
        price_t0    DateTime64(3),
        price_v0    Float64,
        price_t1    DateTime64(3),
        price_v1    Float64,
        rsi_v0      Float64,
        rsi_v1      Float64
    ) ENGINE = MergeTree()
    PARTITION BY toYYYYMM(detected_at)
    ORDER BY (symbol, timeframe, detected_at)`,
}

// CHSignalStore implements SignalStorage backed by ClickHouse.
type CHSignalStore struct {
	client *pkgch.Client
	db     *sql.DB
	l      *applogger.Logger
}

func NewCHSignalStore(ch *pkgch.Client) *CHSignalStore {
	return &CHSignalStore{client: ch, db: ch.DB()}
}

var _ domrepo.SignalStorage = (*CHSignalStore)(nil)

// SetLogger injects a structured logger.
func (s *CHSignalStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSignalStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, signalSchema)
}

func (s *CHSignalStore) StorePoint(ctx context.Context, pair models.Pair, p models.RSIPoint) error {
	const q = `INSERT INTO rsipulse.rsi_points (ts, symbol, timeframe, value) VALUES (?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, p.Timestamp, pair.Symbol, string(pair.Timeframe), p.Value)
	if err != nil {
		return fmt.Errorf("store point: %w", err)
	}
	return nil
}

func (s *CHSignalStore) StoreAlert(ctx context.Context, e *models.AlertEvent) error {
	const q = `INSERT INTO rsipulse.alert_events (ts, symbol, timeframe, from_zone, to_zone, rsi) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		e.Timestamp, e.Symbol, string(e.Timeframe), string(e.From), string(e.To), e.RSI)
	if err != nil {
		return fmt.Errorf("store alert: %w", err)
	}
	return nil
}

func (s *CHSignalStore) StoreDivergence(ctx context.Context, sig *models.DivergenceSignal) error {
	const q = `INSERT INTO rsipulse.divergence_signals
        (detected_at, symbol, timeframe, kind, price_t0, price_v0, price_t1, price_v1, rsi_v0, rsi_v1)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		sig.DetectedAt, sig.Symbol, string(sig.Timeframe), string(sig.Kind),
		sig.PricePair[0].Timestamp, sig.PricePair[0].Value,
		sig.PricePair[1].Timestamp, sig.PricePair[1].Value,
		sig.RSIPair[0].Value, sig.RSIPair[1].Value)
	if err != nil {
		return fmt.Errorf("store divergence: %w", err)
	}
	return nil
}

func (s *CHSignalStore) QueryPoints(ctx context.Context, pair models.Pair, from, to time.Time, limit int) ([]models.RSIPoint, error) {
	start := time.Now()
	const q = `
        SELECT ts, value
        FROM rsipulse.rsi_points
        WHERE symbol = ? AND timeframe = ? AND ts >= ? AND ts <= ?
        ORDER BY ts DESC
        LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, pair.Symbol, string(pair.Timeframe), from, to, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse query_points error",
				applogger.String("pair", pair.String()),
				applogger.Error(err))
		}
		return nil, fmt.Errorf("query points: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.RSIPoint, 0, limit)
	for rows.Next() {
		var p models.RSIPoint
		if err := rows.Scan(&p.Timestamp, &p.Value); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		tmp = append(tmp, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	if s.l != nil {
		s.l.Info("clickhouse query_points ok",
			applogger.String("pair", pair.String()),
			applogger.Int("rows", len(tmp)),
			applogger.Duration("duration_ms", time.Since(start)))
	}
	return tmp, nil
}

func (s *CHSignalStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHSignalStore) Close() error {
	return nil // Managed by pkg
}

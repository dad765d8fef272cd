package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"StockStats/internal/domain/models"
	domrepo "StockStats/internal/domain/repository"
	pkgch "StockStats/pkg/clickhouse"
	applogger "StockStats/pkg/logger"
)

var (
	_ domrepo.MarketDataSource = (*ClickHouseMarketData)(nil)
	_ domrepo.HealthChecker    = (*ClickHouseMarketData)(nil)
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ClickHouseMarketData reads daily bars from a ClickHouse table with columns
// (symbol, day, open, high, low, close, volume).
type ClickHouseMarketData struct {
	db     *sql.DB
	health func(ctx context.Context) error
	query  string
	l      *applogger.Logger
}

func NewClickHouseMarketData(ch *pkgch.Client, table string, l *applogger.Logger) (*ClickHouseMarketData, error) {
	q, err := barsQuery(table)
	if err != nil {
		return nil, err
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &ClickHouseMarketData{db: ch.DB(), health: ch.Health, query: q, l: l}, nil
}

// Health pings the ClickHouse pool.
func (s *ClickHouseMarketData) Health(ctx context.Context) error {
	if err := s.health(ctx); err != nil {
		return classifyStoreError("ping", err)
	}
	return nil
}

func barsQuery(table string) (string, error) {
	if !tableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return fmt.Sprintf(`
        SELECT day, open, high, low, close, volume
        FROM %s
        WHERE symbol = ? AND day >= ? AND day < ?
        ORDER BY day ASC
    `, table), nil
}

func (s *ClickHouseMarketData) Get(ctx context.Context, symbol string, start, end time.Time, timeout time.Duration) (models.Series, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	began := time.Now()
	rows, err := s.db.QueryContext(ctx, s.query, symbol, start, end)
	if err != nil {
		s.l.Error("clickhouse bars query error",
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		return nil, classifyStoreError("query bars", err)
	}
	defer rows.Close()

	out := make(models.Series, 0, 256)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			s.l.Error("clickhouse bars scan error",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
			return nil, classifyStoreError("scan bar", err)
		}
		b.Date = b.Date.UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyStoreError("rows", err)
	}

	s.l.Debug("clickhouse bars fetched",
		applogger.String("symbol", symbol),
		applogger.Int("bars", len(out)),
		applogger.Duration("elapsed_ms", time.Since(began)),
	)
	return out, nil
}

func classifyStoreError(op string, err error) error {
	if isTimeout(err) {
		return fmt.Errorf("%w: clickhouse %s: %w", models.ErrTimeout, op, err)
	}
	return fmt.Errorf("%w: clickhouse %s: %w", models.ErrRetrieval, op, err)
}

package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/lib/pq"
	"github.com/shimmeringbee/somfycul/rollingcode"
)

var _ Gateway = (*PostgresGateway)(nil)

// PostgresGateway keeps one row per identity in Table.
type PostgresGateway struct {
	DB    *sql.DB
	Table string
}

func NewPostgresGateway(ctx context.Context, dsn string, table string) (*PostgresGateway, error) {
	if len(table) == 0 {
		return nil, fmt.Errorf("postgres state table must be named")
	}

	connector, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}

	db := sql.OpenDB(connector)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	g := &PostgresGateway{DB: db, Table: table}

	if _, err := db.ExecContext(ctx, createTableStatement(table)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create state table: %w", err)
	}

	return g, nil
}

func createTableStatement(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	address TEXT PRIMARY KEY,
	enc_key SMALLINT NOT NULL,
	rolling_code INTEGER NOT NULL,
	current_pos SMALLINT NULL
)`, pq.QuoteIdentifier(table))
}

func selectStatement(table string) string {
	return fmt.Sprintf(`SELECT enc_key, rolling_code, current_pos FROM %s WHERE address = $1`, pq.QuoteIdentifier(table))
}

func upsertStatement(table string) string {
	return fmt.Sprintf(`INSERT INTO %s (address, enc_key, rolling_code, current_pos) VALUES ($1, $2, $3, $4)
ON CONFLICT (address) DO UPDATE SET enc_key = EXCLUDED.enc_key, rolling_code = EXCLUDED.rolling_code, current_pos = EXCLUDED.current_pos`, pq.QuoteIdentifier(table))
}

func (g *PostgresGateway) Load(ctx context.Context, id string) (Record, bool, error) {
	var key, code int64
	var pos sql.NullInt64

	err := g.DB.QueryRowContext(ctx, selectStatement(g.Table), id).Scan(&key, &code, &pos)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	} else if err != nil {
		return Record{}, false, fmt.Errorf("%w: failed to query state: %w", ErrPersistenceFailure, err)
	}

	var position *int

	if pos.Valid {
		p := int(pos.Int64)
		position = &p
	}

	if err := validateRecord(key, code, position); err != nil {
		return Record{}, false, err
	}

	return Record{
		Rolling:  rollingcode.State{Key: uint8(key), Code: uint16(code)},
		Position: position,
	}, true, nil
}

func (g *PostgresGateway) Save(ctx context.Context, id string, r Record) error {
	var pos sql.NullInt64

	if r.Position != nil {
		pos = sql.NullInt64{Int64: int64(*r.Position), Valid: true}
	}

	if _, err := g.DB.ExecContext(ctx, upsertStatement(g.Table), id, int64(r.Rolling.Key), int64(r.Rolling.Code), pos); err != nil {
		return fmt.Errorf("%w: failed to upsert state: %w", ErrPersistenceFailure, err)
	}

	return nil
}

func (g *PostgresGateway) Close() error {
	return g.DB.Close()
}

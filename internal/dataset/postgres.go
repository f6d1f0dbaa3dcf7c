package dataset

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/albumdb/pkg/postgres"
	"github.com/lib/pq"
)

const insertBatchSize = 1000

func selectQuery(table string) string {
	return fmt.Sprintf("SELECT album, track, artist FROM %s ORDER BY id", pq.QuoteIdentifier(table))
}

func schemaStatement(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id     BIGSERIAL PRIMARY KEY,
	album  TEXT    NOT NULL,
	track  BIGINT  NOT NULL,
	artist TEXT    NOT NULL
)`, pq.QuoteIdentifier(table))
}

// PostgresSource streams records from the credits table in insertion order.
type PostgresSource struct {
	client *postgres.Client
}

func NewPostgresSource(client *postgres.Client) *PostgresSource {
	return &PostgresSource{client: client}
}

func (s *PostgresSource) Name() string { return "postgres" }

func (s *PostgresSource) Each(ctx context.Context, fn func(Record) error) error {
	rows, err := s.client.DB.QueryContext(ctx, selectQuery(s.client.Table()))
	if err != nil {
		return fmt.Errorf("querying %s: %w", s.client.Table(), err)
	}
	defer rows.Close()
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Album, &r.Track, &r.Artist); err != nil {
			return fmt.Errorf("scanning record: %w", err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating %s: %w", s.client.Table(), err)
	}
	return nil
}

// PostgresSink writes records into the credits table, creating it when
// missing.
type PostgresSink struct {
	client *postgres.Client
}

func NewPostgresSink(client *postgres.Client) *PostgresSink {
	return &PostgresSink{client: client}
}

// Write inserts records in batches, one transaction per batch, using COPY.
// With truncate set the table is emptied first in the same transaction as
// the first batch.
func (s *PostgresSink) Write(ctx context.Context, records []Record, truncate bool) error {
	table := s.client.Table()
	if _, err := s.client.DB.ExecContext(ctx, schemaStatement(table)); err != nil {
		return fmt.Errorf("creating table %s: %w", table, err)
	}
	for start := 0; ; start += insertBatchSize {
		end := min(start+insertBatchSize, len(records))
		first := start == 0
		err := s.client.InTx(ctx, func(tx *sql.Tx) error {
			if first && truncate {
				if _, err := tx.ExecContext(ctx, "TRUNCATE "+pq.QuoteIdentifier(table)); err != nil {
					return fmt.Errorf("truncating %s: %w", table, err)
				}
			}
			return copyRecords(ctx, tx, table, records[start:end])
		})
		if err != nil {
			return err
		}
		if end >= len(records) {
			break
		}
	}
	return nil
}

func copyRecords(ctx context.Context, tx *sql.Tx, table string, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, "album", "track", "artist"))
	if err != nil {
		return fmt.Errorf("preparing copy into %s: %w", table, err)
	}
	defer stmt.Close()
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Album, r.Track, r.Artist); err != nil {
			return fmt.Errorf("copying record: %w", err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("flushing copy into %s: %w", table, err)
	}
	return nil
}

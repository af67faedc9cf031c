package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

// Row is implemented by every warehouse row type. Values must follow the
// column order of the row's Table.
type Row interface {
	Values() []any
}

// Dataset pairs a table definition with the full content to publish into it.
type Dataset struct {
	Table Table
	Rows  [][]any
}

// NewDataset flattens typed rows for CopyFrom.
func NewDataset[R Row](table Table, rows []R) Dataset {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = r.Values()
	}
	return Dataset{Table: table, Rows: out}
}

// Published reports what one Publish call wrote.
type Published struct {
	Table string
	Rows  int64
}

// Publisher performs full-refresh loads. All datasets of one Publish call
// are replaced inside a single transaction, so readers observe either the
// previous or the new content of every table, never a mix.
type Publisher struct {
	db     DB
	schema string
}

func NewPublisher(db DB, schema string) *Publisher {
	return &Publisher{db: db, schema: schema}
}

// Publish drops, recreates, fills and indexes each dataset's table. On any
// failure the transaction is rolled back and the previous content stays.
func (p *Publisher) Publish(ctx context.Context, datasets ...Dataset) ([]Published, error) {
	start := time.Now()
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin publish: %w", err)
	}

	published, err := p.publish(ctx, tx, datasets)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			slog.ErrorContext(ctx, "rollback failed", "error", rbErr)
		}
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit publish: %w", err)
	}

	slog.InfoContext(ctx, "published tables",
		"schema", p.schema, "tables", len(published), "duration", time.Since(start))
	return published, nil
}

func (p *Publisher) publish(ctx context.Context, tx pgx.Tx, datasets []Dataset) ([]Published, error) {
	createSchema := fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pgx.Identifier{p.schema}.Sanitize())
	if _, err := tx.Exec(ctx, createSchema); err != nil {
		return nil, fmt.Errorf("create schema %s: %w", p.schema, err)
	}

	published := make([]Published, 0, len(datasets))
	for _, ds := range datasets {
		t := ds.Table
		for _, stmt := range []string{t.DropSQL(p.schema), t.CreateSQL(p.schema)} {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return nil, fmt.Errorf("execute DDL for %s: %w", t.Name, err)
			}
		}

		n, err := tx.CopyFrom(ctx, t.Identifier(p.schema), t.ColumnNames(), pgx.CopyFromRows(ds.Rows))
		if err != nil {
			return nil, fmt.Errorf("copy into %s (%d rows): %w", t.Name, len(ds.Rows), err)
		}

		for _, stmt := range t.IndexSQL(p.schema) {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return nil, fmt.Errorf("index %s: %w", t.Name, err)
			}
		}

		slog.DebugContext(ctx, "table replaced", "table", t.Name, "rows", n)
		published = append(published, Published{Table: t.Name, Rows: n})
	}
	return published, nil
}

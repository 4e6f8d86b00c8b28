// Package migrate contains the database schema, migrations and seeding data.
package migrate

import (
	"bufio"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jcpaschoal/leasekeeper/business/sdk/sqldb"
	"github.com/jmoiron/sqlx"
)

var (
	//go:embed sql/migrate.sql
	migrateDoc string
)

// Migration is one versioned step of the schema script.
type Migration struct {
	Version     string
	Description string
	Script      string
}

// Parse splits a migration document into its versioned steps. Each step
// starts with a "-- Version:" line optionally followed by "-- Description:".
func Parse(doc string) ([]Migration, error) {
	var (
		migrations []Migration
		cur        *Migration
		body       strings.Builder
	)

	flush := func() {
		if cur == nil {
			return
		}
		cur.Script = strings.TrimSpace(body.String())
		migrations = append(migrations, *cur)
		body.Reset()
	}

	scanner := bufio.NewScanner(strings.NewReader(doc))
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "-- Version:"):
			flush()
			cur = &Migration{Version: strings.TrimSpace(strings.TrimPrefix(line, "-- Version:"))}

		case strings.HasPrefix(line, "-- Description:"):
			if cur == nil {
				return nil, errors.New("description found before version")
			}
			cur.Description = strings.TrimSpace(strings.TrimPrefix(line, "-- Description:"))

		default:
			if cur == nil {
				if strings.TrimSpace(line) != "" {
					return nil, fmt.Errorf("statement found before version: %q", line)
				}
				continue
			}
			body.WriteString(line)
			body.WriteString("\n")
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	flush()

	return migrations, nil
}

// Migrate attempts to bring the database up to date with the migrations
// defined in this package. Each version is applied in its own transaction
// and recorded in the schema_version table.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if err := sqldb.StatusCheck(ctx, db); err != nil {
		return fmt.Errorf("status check database: %w", err)
	}

	migrations, err := Parse(migrateDoc)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	const createVersions = `
	CREATE TABLE IF NOT EXISTS schema_version (
		version     TEXT        NOT NULL PRIMARY KEY,
		description TEXT        NOT NULL,
		applied_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

	if _, err := db.ExecContext(ctx, createVersions); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var applied []string
	if err := db.SelectContext(ctx, &applied, `SELECT version FROM schema_version`); err != nil {
		return fmt.Errorf("select versions: %w", err)
	}

	done := make(map[string]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	for _, m := range migrations {
		if done[m.Version] {
			continue
		}

		if err := apply(ctx, db, m); err != nil {
			return fmt.Errorf("apply version[%s]: %w", m.Version, err)
		}
	}

	return nil
}

func apply(ctx context.Context, db *sqlx.DB, m Migration) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.Script); err != nil {
		return fmt.Errorf("exec: %w", err)
	}

	const q = `INSERT INTO schema_version (version, description) VALUES ($1, $2)`
	if _, err := tx.ExecContext(ctx, q, m.Version, m.Description); err != nil {
		return fmt.Errorf("record: %w", err)
	}

	return tx.Commit()
}

package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	sqlassets "github.com/nimbusdesk/nimbusdesk-saas/database"
)

// BootstrapControlPlane creates the platform schema (if missing) and applies
// the control-plane DDL in a single transaction: tables, seed data (reserved
// slugs, default plans), and the two remote procedures. SQL is embedded at
// build time so binaries stay self-contained. The helper is idempotent and
// intended for CLI bootstrap and tests.
func BootstrapControlPlane(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("bootstrap control plane: pool is required")
	}

	var statements []string
	statements = append(statements, splitStatements(sqlassets.ControlPlaneSQL)...)
	statements = append(statements, splitStatements(sqlassets.SeedSQL)...)
	// Function bodies are dollar-quoted; each file holds exactly one statement.
	statements = append(statements, sqlassets.CheckSlugAvailableSQL, sqlassets.ProvisionTenantSQL)

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS platform"); err != nil {
		return fmt.Errorf("create platform schema: %w", err)
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply ddl: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// splitStatements breaks a multi-statement SQL file into individual
// statements. Only valid for files without dollar-quoted bodies.
func splitStatements(sql string) []string {
	raw := strings.Split(sql, ";")
	statements := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		statements = append(statements, s)
	}
	return statements
}

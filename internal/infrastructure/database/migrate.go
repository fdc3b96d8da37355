package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"

	pkgdb "bookshelf-backend/pkg/database"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate apply toàn bộ file trong migrations/ theo thứ tự tên file
// Các statement đều idempotent (IF NOT EXISTS) nên chạy lại mỗi lần start vẫn an toàn
func (db *PostgresDB) Migrate(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	files, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, name := range files {
		body, err := migrationFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		err = pkgdb.WithTransaction(ctx, db.Pool, func(tx pgx.Tx) error {
			_, execErr := tx.Exec(ctx, string(body))
			return execErr
		})
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		db.log.Info().Str("file", name).Msg("migration applied")
	}

	return nil
}

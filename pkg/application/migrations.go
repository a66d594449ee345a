package application

import (
	"context"
	"embed"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MigrationManager collects the SQL schemas modules embed and applies them
// in path order. Schemas are written idempotent (CREATE ... IF NOT EXISTS)
// so Run is safe to call on every startup.
type MigrationManager interface {
	RegisterSchema(schema *embed.FS)
	Run(ctx context.Context) error
}

func NewMigrationManager(pool *pgxpool.Pool) MigrationManager {
	return &migrationManager{pool: pool}
}

type migrationManager struct {
	pool    *pgxpool.Pool
	schemas []*embed.FS
}

func (m *migrationManager) RegisterSchema(schema *embed.FS) {
	m.schemas = append(m.schemas, schema)
}

func (m *migrationManager) Run(ctx context.Context) error {
	for _, schema := range m.schemas {
		var files []string
		err := fs.WalkDir(schema, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ".sql") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return err
		}
		sort.Strings(files)

		for _, file := range files {
			content, err := schema.ReadFile(file)
			if err != nil {
				return err
			}
			if _, err := m.pool.Exec(ctx, string(content)); err != nil {
				return err
			}
		}
	}
	return nil
}

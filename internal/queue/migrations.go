package queue

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// baselineVersion is the sentinel below every real schema version; a brand
// new database starts here.
const baselineVersion = -1

type migration struct {
	version int
	sql     string
}

var migrationFilePattern = regexp.MustCompile(`^(\d+)-(.+)\.sql$`)

// loadMigrations returns every known migration in ascending version order,
// always including the empty baseline.
func loadMigrations() ([]migration, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	migrations := []migration{{version: baselineVersion}}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := migrationFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		version, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("parse migration version %q: %w", entry.Name(), err)
		}
		data, err := migrationFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		migrations = append(migrations, migration{version: version, sql: string(data)})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].version < migrations[j].version
	})
	return migrations, nil
}

// migrate brings the database up to the latest known schema version in one
// transaction. A database at an unrecognized version newer than every known
// migration is left untouched with a warning: downgrading code must not
// destroy data it does not understand.
func (q *Queue) migrate(ctx context.Context) error {
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	current, err := q.schemaVersion(ctx)
	if err != nil {
		return err
	}

	if current >= 0 && !versionKnown(migrations, current) {
		q.logger.Warn("unrecognized job schema version, skipping migrations",
			"version", current,
			"path", q.path)
		return nil
	}

	var pending []migration
	for _, m := range migrations {
		if m.version > current {
			pending = append(pending, m)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	return q.immediate(ctx, func(conn *sql.Conn) error {
		last := current
		for _, m := range pending {
			q.logger.Debug("migrating job schema", "version", m.version)
			if m.sql != "" {
				if _, err := conn.ExecContext(ctx, m.sql); err != nil {
					return fmt.Errorf("apply migration %d: %w", m.version, err)
				}
			}
			last = m.version
		}
		if _, err := conn.ExecContext(ctx,
			`UPDATE job_schema SET value = ? WHERE key = 'version'`, last); err != nil {
			return fmt.Errorf("record schema version %d: %w", last, err)
		}
		return nil
	})
}

// schemaVersion detects the database's current version. Databases that
// predate the job_schema table are distinguished by whether the job table
// exists: present means version 0, absent means a brand new file.
func (q *Queue) schemaVersion(ctx context.Context) (int, error) {
	var tables int
	if err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = 'job_schema'`,
	).Scan(&tables); err != nil {
		return 0, fmt.Errorf("check job_schema table: %w", err)
	}

	if tables == 0 {
		if err := q.db.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = 'job'`,
		).Scan(&tables); err != nil {
			return 0, fmt.Errorf("check job table: %w", err)
		}
		if tables == 0 {
			return baselineVersion, nil
		}
		return 0, nil
	}

	var version int
	err := q.db.QueryRowContext(ctx,
		`SELECT value FROM job_schema WHERE key = 'version'`,
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, errors.New("job_schema is missing its version row")
	}
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

func versionKnown(migrations []migration, version int) bool {
	for _, m := range migrations {
		if m.version == version {
			return true
		}
	}
	return false
}

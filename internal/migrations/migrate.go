package migrations

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	pg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

// DefaultDir is where the server looks for migration files.
const DefaultDir = "migrations"

// RunMigrations applies the SQL files in dir using the postgres driver.
// A database that already has table_sessions but no migrate metadata is
// baselined to the latest file version instead of re-running it.
func RunMigrations(databaseURL, dir string) error {
	if databaseURL == "" {
		return fmt.Errorf("database URL is empty")
	}

	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open DB: %w", err)
	}
	defer sqlDB.Close()

	driver, err := pg.WithInstance(sqlDB, &pg.Config{MigrationsTable: "schema_migrations_migrate"})
	if err != nil {
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}

	if dir == "" {
		dir = DefaultDir
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	var schemaExists bool
	row := sqlDB.QueryRow("SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name='table_sessions')")
	if err := row.Scan(&schemaExists); err == nil && schemaExists {
		var migrateTableExist bool
		row2 := sqlDB.QueryRow("SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name='schema_migrations_migrate')")
		if err := row2.Scan(&migrateTableExist); err == nil && !migrateTableExist {
			latest := findLatestMigrationVersion(dir)
			if latest > 0 {
				log.Printf("[MIGRATE] Baseline DB to version %d (existing schema present)", latest)
				if ferr := m.Force(int(latest)); ferr != nil {
					log.Printf("[MIGRATE] Force to version %d failed: %v", latest, ferr)
				}
			}
		}
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration up failed: %w", err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && verr != migrate.ErrNilVersion {
		log.Printf("[MIGRATE] Could not read schema version: %v", verr)
	} else {
		log.Printf("[MIGRATE] Schema at version %d (dirty=%v)", version, dirty)
	}
	return nil
}

// findLatestMigrationVersion returns the highest numeric prefix (000001_)
// among the files in dir.
func findLatestMigrationVersion(dir string) int64 {
	files, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	re := regexp.MustCompile(`^0*([0-9]+)_`)
	var max int64
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		name := f.Name()
		m := re.FindStringSubmatch(name)
		if len(m) < 2 {
			continue
		}
		v, _ := strconv.ParseInt(m[1], 10, 64)
		if v > max {
			max = v
		}
	}

	return max
}

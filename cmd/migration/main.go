// Command migration manages the Postgres mirror schema.
//
// The mirror keeps one JSONB document table per synced collection; the
// .up.sql/.down.sql files live under db/migrations and are applied with
// golang-migrate.
//
// Usage:
//
//	hvsync-migration up
//	hvsync-migration down --steps 2
//	hvsync-migration version
//	hvsync-migration goto 1
//	hvsync-migration force 1
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mentonehc/hvsync/internal/config"
)

func main() {
	_ = godotenv.Load()

	var dir string

	root := &cobra.Command{
		Use:          "hvsync-migration",
		Short:        "Schema migrations for the hvsync Postgres mirror",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dir, "dir", "db/migrations", "Directory holding the migration files")

	root.AddCommand(
		upCmd(&dir),
		downCmd(&dir),
		versionCmd(&dir),
		gotoCmd(&dir),
		forceCmd(&dir),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func upCmd(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(*dir, func(m *migrate.Migrate) error {
				if err := m.Up(); err != nil {
					if errors.Is(err, migrate.ErrNoChange) {
						cmd.Println("schema already up to date")
						return nil
					}
					return err
				}
				return reportVersion(cmd, m)
			})
		},
	}
}

func downCmd(dir *string) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 1 {
				return errors.Newf("--steps must be >= 1, got %d", steps)
			}
			return withMigrator(*dir, func(m *migrate.Migrate) error {
				if err := m.Steps(-steps); err != nil {
					if errors.Is(err, migrate.ErrNoChange) {
						cmd.Println("nothing to roll back")
						return nil
					}
					return err
				}
				return reportVersion(cmd, m)
			})
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")

	return cmd
}

func versionCmd(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(*dir, func(m *migrate.Migrate) error {
				return reportVersion(cmd, m)
			})
		},
	}
}

func gotoCmd(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "goto <version>",
		Short: "Migrate up or down to an exact version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := strconv.ParseUint(strings.TrimSpace(args[0]), 10, 64)
			if err != nil {
				return errors.Wrapf(err, "parse target version %q", args[0])
			}
			return withMigrator(*dir, func(m *migrate.Migrate) error {
				if err := m.Migrate(uint(target)); err != nil {
					if errors.Is(err, migrate.ErrNoChange) {
						cmd.Println("schema already at requested version")
						return nil
					}
					return err
				}
				return reportVersion(cmd, m)
			})
		},
	}
}

func forceCmd(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "force <version>",
		Short: "Overwrite the recorded version after a failed migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil {
				return errors.Wrapf(err, "parse version %q", args[0])
			}
			if version < 0 {
				return errors.New("version must be >= 0")
			}
			return withMigrator(*dir, func(m *migrate.Migrate) error {
				if err := m.Force(version); err != nil {
					return err
				}
				return reportVersion(cmd, m)
			})
		},
	}
}

// withMigrator opens a migrator against the configured DB URL, runs fn, and
// closes both the source and database halves even when fn fails.
func withMigrator(dir string, fn func(*migrate.Migrate) error) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return errors.Wrapf(err, "resolve migrations dir %q", dir)
	}
	if info, statErr := os.Stat(abs); statErr != nil || !info.IsDir() {
		return errors.Newf("migrations dir %q not found", abs)
	}

	m, err := migrate.New("file://"+filepath.ToSlash(abs), cfg.PostgresDSN())
	if err != nil {
		return errors.Wrap(err, "create migrator")
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			fmt.Fprintf(os.Stderr, "close migrator: source=%v db=%v\n", srcErr, dbErr)
		}
	}()

	return fn(m)
}

func reportVersion(cmd *cobra.Command, m *migrate.Migrate) error {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		cmd.Println("schema version: none")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "read schema version")
	}

	if dirty {
		cmd.Printf("schema version: %d (dirty)\n", version)
		return nil
	}
	cmd.Printf("schema version: %d\n", version)

	return nil
}

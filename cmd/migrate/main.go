// Command migrate manages the store's postgres schema.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/migration"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

var errUsage = errors.New("usage")

func main() {
	var (
		migrationsPath string
		logLevel       string
		confirm        bool
	)
	flag.StringVar(&migrationsPath, "path", "", "migrations directory (default: ./migrations)")
	flag.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.BoolVar(&confirm, "confirm", false, "confirm destructive commands (drop)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	log, err := newLogger(logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	path, err := resolveMigrationsPath(migrationsPath)
	if err != nil {
		log.Fatal("Invalid migrations path", zap.Error(err))
	}

	err = run(log, path, args, confirm)
	if errors.Is(err, errUsage) {
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal("Migration command failed", zap.String("command", args[0]), zap.Error(err))
	}
}

// newLogger builds the console logger used by every command
func newLogger(level string) (*zap.Logger, error) {
	return logger.New(&logger.Config{
		Level:  level,
		Format: "console",
		Output: "stdout",
	})
}

// resolveMigrationsPath falls back to ./migrations, then to the directory two
// levels above the executable (bin/<os>/migrate layout)
func resolveMigrationsPath(path string) (string, error) {
	if path == "" {
		path = defaultMigrationsPath
		if _, err := os.Stat(path); err != nil {
			if exe, err := os.Executable(); err == nil {
				candidate := filepath.Join(filepath.Dir(exe), "..", "..", defaultMigrationsPath)
				if _, err := os.Stat(candidate); err == nil {
					path = candidate
				}
			}
		}
	}
	return filepath.Abs(path)
}

func run(log *zap.Logger, path string, args []string, confirm bool) error {
	command := args[0]
	log.Info("Running migration command", zap.String("command", command), zap.String("path", path))

	switch command {
	case "create":
		if len(args) < 2 {
			return fmt.Errorf("%w: create <name> [description]", errUsage)
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		mf, err := migration.CreateMigration(path, args[1], description)
		if err != nil {
			return err
		}
		log.Info("Migration created", zap.String("up", mf.UpPath), zap.String("down", mf.DownPath))
		return nil
	case "list":
		migrations, err := migration.ListMigrations(path)
		if err != nil {
			return err
		}
		for _, m := range migrations {
			fmt.Println(m)
		}
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("migrations target postgres, database.driver is %q", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.New(db, path, log)
	if err != nil {
		return err
	}
	defer m.Close()

	switch command {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "step":
		n, err := intArg(args, "step <n>")
		if err != nil {
			return err
		}
		return m.Steps(n)
	case "goto":
		n, err := intArg(args, "goto <version>")
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("%w: version must not be negative", errUsage)
		}
		return m.GoTo(uint(n))
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Info("Current schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	case "force":
		n, err := intArg(args, "force <version>")
		if err != nil {
			return err
		}
		return m.Force(n)
	case "drop":
		if !confirm {
			return errors.New("drop removes every table; rerun with -confirm")
		}
		return m.Drop()
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func intArg(args []string, usage string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%w: %s", errUsage, usage)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not a number", errUsage, usage, args[1])
	}
	return n, nil
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Store schema migrations

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    apply all pending migrations
  down                  roll back all migrations
  step <n>              apply n migrations (negative rolls back)
  goto <version>        migrate to a version
  version               print the applied version
  force <version>       mark a version as applied (clears dirty state)
  drop                  drop every object (requires -confirm)
  create <name> [desc]  write the next numbered up/down pair
  list                  list migrations on disk

Flags:
  -path string       migrations directory (default ./migrations)
  -log-level string  debug, info, warn, error (default info)
  -confirm           confirm drop

Database settings come from config.toml and STORE_DATABASE_* variables.
`)
}

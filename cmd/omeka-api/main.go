// Package main is the entrypoint for the omeka-api service.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lib-uoguelph-ca/omeka-s/internal/config"
	"github.com/lib-uoguelph-ca/omeka-s/internal/server"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/api"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/bootstrap"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/db"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/events"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/theme"
)

const usage = `Usage: omeka-api [command]
       omeka-api serve              Start the API (NATS, HTTP health, resource handlers).
       omeka-api migrate up         Run database migrations.
       omeka-api migrate down       Roll back the last applied migration.
       omeka-api migrate status     Show migration status.
       omeka-api ensure-db [name]   Create database if missing (default name: omeka_test). Uses DATABASE_URL host/user.
       omeka-api clear              Truncate all resource rows; schema and themes are preserved.
       omeka-api themes [dir]       Scan the themes directory and reconcile the theme inventory.
       omeka-api seed [file]        Create seed resources through the API dispatcher.

Commands:
  serve            (default) Start the API service.
  migrate up       Run database migrations only.
  migrate down     Roll back last migration (no-op).
  migrate status   Show current migration status.
  ensure-db [name] Create database (e.g. omeka_test) on same host as DATABASE_URL; then run tests with that URL.
  clear            Truncate resource data; schema preserved.
  themes [dir]     Reconcile themes from dir (default THEMES_PATH) against PLATFORM_VERSION.
  seed [file]      Seed from a YAML or JSON seed file (default OMEKA_SEED_FILE, config/seed.yaml, seed.yaml).

Environment: DATABASE_URL (required), MIGRATION_PATH, COMMS_URL, API_RESOURCES, ACL_RULES_FILE,
THEMES_PATH, PLATFORM_VERSION, LOCALE, LOG_LEVEL. See README.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}
	arg := func(i int, def string) string {
		if len(args) > i && args[i] != "" {
			return args[i]
		}
		return def
	}

	switch cmd {
	case "migrate":
		if len(args) < 2 {
			log.Fatalf("omeka-api migrate: require subcommand (up, down, status)")
		}
		sub := args[1]
		switch sub {
		case "up":
			if err := runMigrateUp(); err != nil {
				log.Fatalf("omeka-api migrate up: %v", err)
			}
		case "status":
			if err := withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				return db.MigrationStatus(ctx, pool, cfg.MigrationPath)
			}); err != nil {
				log.Fatalf("omeka-api migrate status: %v", err)
			}
		case "down":
			if err := withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				return db.MigrationDown(ctx, pool, cfg.MigrationPath)
			}); err != nil {
				log.Fatalf("omeka-api migrate down: %v", err)
			}
		default:
			log.Fatalf("omeka-api migrate: unknown subcommand %q (use up, down, status)", sub)
		}
		return
	case "clear":
		if err := withPool(func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool) error {
			return db.ClearResources(ctx, pool)
		}); err != nil {
			log.Fatalf("omeka-api clear: %v", err)
		}
		return
	case "themes":
		if err := runThemes(arg(1, "")); err != nil {
			log.Fatalf("omeka-api themes: %v", err)
		}
		return
	case "seed":
		if err := runSeed(arg(1, "")); err != nil {
			log.Fatalf("omeka-api seed: %v", err)
		}
		return
	case "ensure-db":
		if err := runEnsureDB(arg(1, "omeka_test")); err != nil {
			log.Fatalf("omeka-api ensure-db: %v", err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
		// serve (explicit or default)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("omeka-api: %v", err)
	}
}

// withPool loads config, opens the database and runs fn against it.
func withPool(fn func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	server.SetupLogging(cfg.LogLevel)
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	return fn(ctx, cfg, pool)
}

func runMigrateUp() error {
	return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
		migrations, err := db.LoadMigrationFiles(cfg.MigrationPath)
		if err != nil {
			return fmt.Errorf("load migrations: %w", err)
		}
		if err := db.RunMigrations(ctx, pool, migrations); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		return nil
	})
}

func runEnsureDB(dbName string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	targetURL, err := db.WithDatabaseName(cfg.DatabaseURL, dbName)
	if err != nil {
		return err
	}
	if err := db.EnsureDatabase(context.Background(), targetURL); err != nil {
		return err
	}
	fmt.Printf("Database %q is ready.\n", dbName)
	return nil
}

func runThemes(dir string) error {
	return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
		if dir == "" {
			dir = cfg.ThemesPath
		}
		themes, err := theme.Scan(dir)
		if err != nil {
			return err
		}
		report, err := theme.Reconcile(ctx, db.NewRepository(pool), themes, cfg.PlatformVersion)
		if err != nil {
			return err
		}

		ids := make([]string, 0, len(report.States))
		for id := range report.States {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		fmt.Printf("Themes in %s (platform %s):\n", dir, cfg.PlatformVersion)
		for _, id := range ids {
			fmt.Printf("  %-24s %s\n", id, report.States[id])
		}
		return nil
	})
}

func runSeed(file string) error {
	return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
		if file == "" {
			file = cfg.SeedFile
		}
		seed, err := bootstrap.LoadSeedConfig(file)
		if err != nil {
			return err
		}

		// Seeding runs as the operator, outside the role table.
		seedCfg := *cfg
		seedCfg.ACLRulesFile = ""
		seedCfg.Resources = mergeResources(cfg.Resources, seed.ResourceNames())

		reg, err := server.BuildRegistry(&seedCfg, db.NewRepository(pool), seedProgress(os.Stdout))
		if err != nil {
			return err
		}
		disp, err := server.BuildDispatcher(&seedCfg, reg, nil)
		if err != nil {
			return err
		}
		created, err := bootstrap.Seed(ctx, disp, seed, bootstrap.DefaultChunkSize)
		for _, name := range seed.ResourceNames() {
			fmt.Printf("  %-24s %d\n", name, created[name])
		}
		return err
	})
}

// seedProgress prints one line per record created while seeding.
func seedProgress(w io.Writer) *events.CallbackPublisher {
	created := events.PostEventName(api.OpCreate)
	return events.NewCallbackPublisher(func(_ context.Context, e *events.LifecycleEvent) error {
		if e.Event != created {
			return nil
		}
		for _, c := range e.Content {
			if rec, ok := c.(*api.Record); ok {
				fmt.Fprintf(w, "  created %s/%s\n", e.Resource, rec.ID)
			}
		}
		return nil
	})
}

// mergeResources appends seed resource names not already served.
func mergeResources(served, seeded []string) []string {
	out := append([]string(nil), served...)
	for _, name := range seeded {
		found := false
		for _, s := range out {
			if s == name {
				found = true
				break
			}
		}
		if !found {
			out = append(out, name)
		}
	}
	return out
}

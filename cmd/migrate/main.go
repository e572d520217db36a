// Command migrate runs schema operations for the backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"chapel/internal/config"
	"chapel/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate/main.go <up|auto|status|down|inspect|reset> [version|table]")
}

func run() error {
	wait := flag.Duration("wait", 0, "Wait up to this long for Postgres to accept connections")
	force := flag.Bool("force", false, "Confirm a destructive reset")
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if *wait > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), *wait)
		err := database.WaitForPostgres(ctx, cfg.DSN(), time.Second)
		cancel()
		if err != nil {
			return fmt.Errorf("postgres not ready: %w", err)
		}
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	ctx := context.Background()
	cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0)))
	switch cmd {
	case "up":
		applied, err := database.RunMigrations(ctx, db)
		if err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		if len(applied) == 0 {
			log.Println("schema already up to date")
		}
		for _, m := range applied {
			log.Printf("applied %s", m.String())
		}
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		log.Println("automigrations applied")
	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		log.Printf("mode=%s env=%s run_sql=%t run_auto=%t applied=%d pending=%d", status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate, len(status.AppliedVersions), len(status.PendingMigrations))
		for _, m := range status.PendingMigrations {
			log.Printf("pending: %06d_%s", m.Version, m.Name)
		}
		for _, t := range status.MissingTables {
			log.Printf("missing table: %s", t)
		}
	case "down":
		if flag.NArg() < 2 {
			return fmt.Errorf("usage: go run ./cmd/migrate/main.go down <version>")
		}
		version, err := strconv.Atoi(flag.Arg(1))
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", flag.Arg(1), err)
		}
		if err := database.RollbackMigration(ctx, db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		log.Printf("rolled back migration %d", version)
	case "inspect":
		if flag.NArg() < 2 {
			tables, err := database.ListTables(ctx, db)
			if err != nil {
				return err
			}
			for _, t := range tables {
				fmt.Println(t)
			}
			return nil
		}
		info, err := database.InspectTable(ctx, db, flag.Arg(1))
		if err != nil {
			return err
		}
		printTable(info)
	case "reset":
		if !*force {
			return fmt.Errorf("reset drops every table in %s; rerun with -force", cfg.DBName)
		}
		if err := database.ResetSchema(ctx, db, cfg); err != nil {
			return err
		}
		log.Printf("schema public of %s recreated; run 'up' to migrate", cfg.DBName)
	default:
		return usage()
	}

	return nil
}

func printTable(info *database.TableInfo) {
	fmt.Printf("%s (%d rows)\n", info.Name, info.Rows)
	for _, c := range info.Columns {
		fmt.Printf("  %-24s %-28s nullable=%s\n", c.Name, c.DataType, c.Nullable)
	}
	if len(info.Constraints) > 0 {
		fmt.Println("constraints:")
		for _, c := range info.Constraints {
			fmt.Printf("  %s: %s\n", c.Name, c.Definition)
		}
	}
}

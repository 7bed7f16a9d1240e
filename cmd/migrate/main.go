package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/templui/hrvault/internal/config"
	"github.com/templui/hrvault/internal/db"
	"github.com/templui/hrvault/internal/logger"
)

const usage = `Usage: migrate <command>

Commands:
  up       apply all pending migrations
  down     roll back the most recent migration
  version  print the current schema version
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	logger.Init(cfg.IsDevelopment(), "", cfg.AppEnv)

	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		slog.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close(database)

	switch flag.Arg(0) {
	case "up":
		err = db.RunMigrations(database.DB, cfg.DBDriver)
	case "down":
		err = db.MigrateDown(database.DB, cfg.DBDriver)
	case "version":
		var v int64
		v, err = db.SchemaVersion(database.DB, cfg.DBDriver)
		if err == nil {
			fmt.Println(v)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		slog.Error("migration command failed", "command", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/saastools-backend/pkg/config"
	"github.com/angelmondragon/saastools-backend/pkg/db"
	"github.com/angelmondragon/saastools-backend/pkg/logger"
	"github.com/angelmondragon/saastools-backend/pkg/migrate"
)

func main() {
	cmd := flag.String("cmd", "up", "up|down|status|version|to|create|validate")
	dir := flag.String("dir", "", "migrations directory on disk (default: migrations embedded in the binary)")
	name := flag.String("name", "", "migration name, for -cmd=create")
	target := flag.String("version", "", "target version YYYYMMDDHHMMSS, for -cmd=to")
	flag.Parse()

	_ = godotenv.Load()

	// create and validate only touch files, so they run without config.
	switch *cmd {
	case "create":
		out := *dir
		if out == "" {
			out = migrate.DefaultDir
		}
		path, err := migrate.Create(out, *name, time.Now())
		exitOn("create migration", err)
		fmt.Println("created", path)
		return
	case "validate":
		var err error
		if *dir == "" {
			err = migrate.Validate(migrate.Migrations, migrate.EmbeddedDir)
		} else {
			err = migrate.ValidateDir(*dir)
		}
		exitOn("validate migrations", err)
		fmt.Println("migrations valid")
		return
	}

	cfg, err := config.Load()
	exitOn("load config", err)
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Env:         cfg.App.Env,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": *cmd})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	exitOn("connect database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.SQL()
	exitOn("extract sql.DB", err)
	runner, err := migrate.NewRunner(sqlDB, *dir)
	exitOn("load migrations", err)

	switch *cmd {
	case "up":
		applied, err := runner.Up(ctx)
		report(applied)
		exitOn("migrate up", err)
	case "down":
		applied, err := runner.Down(ctx)
		report(applied)
		exitOn("migrate down", err)
	case "to":
		version, err := migrate.ParseVersion(*target)
		exitOn("parse -version", err)
		applied, err := runner.To(ctx, version)
		report(applied)
		exitOn("migrate to version", err)
	case "version":
		v, err := runner.Version(ctx)
		exitOn("read version", err)
		fmt.Println(v)
	case "status":
		rows, err := runner.Status(ctx)
		exitOn("read status", err)
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VERSION\tAPPLIED AT\tSOURCE")
		for _, row := range rows {
			at := "pending"
			if row.Applied {
				at = row.AppliedAt.UTC().Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\n", row.Version, at, row.Source)
		}
		_ = tw.Flush()
	default:
		exitOn("parse flags", fmt.Errorf("unknown -cmd %q", *cmd))
	}
	logg.Info(ctx, "migrate.done")
}

func report(applied []migrate.Applied) {
	for _, m := range applied {
		fmt.Printf("%-5s %d %s (%s)\n", m.Direction, m.Version, m.Source, m.Duration.Round(1e6))
	}
}

func exitOn(step string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", step, err)
	os.Exit(1)
}

// AI gateway - multi-provider completion and synthesis service.
// Entry point: flag handling plus the serve and migrate commands.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Beor18/real-state-matches-sub000/internal/infra/config"
	"github.com/Beor18/real-state-matches-sub000/internal/infra/sqlite"
	"github.com/Beor18/real-state-matches-sub000/internal/server"
	"github.com/Beor18/real-state-matches-sub000/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("aigateway", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	if *showHelp {
		printHelp(out)
		return 0
	}

	switch fs.Arg(0) {
	case "serve":
		return serve(out)
	case "migrate":
		return migrate(out)
	case "":
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	default:
		fmt.Fprintf(out, "unknown command %q\n", fs.Arg(0)) //nolint:errcheck
		printHelp(out)
		return 2
	}
}

func serve(out io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(out, "config error: %v\n", err) //nolint:errcheck
		return 1
	}

	db, err := sqlite.NewDB(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(out, "database error: %v\n", err) //nolint:errcheck
		return 1
	}
	if err := sqlite.MigrateUp(db); err != nil {
		fmt.Fprintf(out, "migration error: %v\n", err) //nolint:errcheck
		db.Close()
		return 1
	}

	srvConfig := server.DefaultConfig()
	srvConfig.Host = cfg.Host
	srvConfig.Port = cfg.Port
	srv := server.NewServer(db, srvConfig)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(context.Background())
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		fmt.Fprintf(out, "server error: %v\n", err) //nolint:errcheck
		return 1
	case <-stop:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			fmt.Fprintf(out, "shutdown error: %v\n", err) //nolint:errcheck
			return 1
		}
		return 0
	}
}

func migrate(out io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(out, "config error: %v\n", err) //nolint:errcheck
		return 1
	}

	db, err := sqlite.NewDB(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(out, "database error: %v\n", err) //nolint:errcheck
		return 1
	}
	defer db.Close()

	if err := sqlite.MigrateUp(db); err != nil {
		fmt.Fprintf(out, "migration error: %v\n", err) //nolint:errcheck
		return 1
	}
	ver, err := sqlite.MigrationVersion(db)
	if err != nil {
		fmt.Fprintf(out, "migration version error: %v\n", err) //nolint:errcheck
		return 1
	}
	fmt.Fprintf(out, "migrated %s to version %d\n", cfg.DBPath, ver) //nolint:errcheck
	return 0
}

func printHelp(out io.Writer) {
	helpText := `AI gateway - multi-provider completion and synthesis service

Usage:
  aigateway [options] [command]

Options:
  --version    Show version information
  --help       Show this help message

Commands:
  serve        Start the HTTP server
  migrate      Run database migrations

Environment:
  AIGATEWAY_HOST      Listen host (default 0.0.0.0)
  AIGATEWAY_PORT      Listen port (default 8080)
  AIGATEWAY_DB_PATH   SQLite database path (default aigateway.db)
  AIGATEWAY_CONFIG    Optional YAML config file

Examples:
  aigateway --version
  aigateway migrate
  aigateway serve`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}

package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"labcal/internal/backup"
	"labcal/internal/booking"
	"labcal/internal/config"
	appLog "labcal/internal/log"
	"labcal/internal/registry"
	"labcal/internal/snapshot"
	"labcal/internal/store"
	"labcal/internal/web"
)

const version = "0.1.0"

// flagConfig holds CLI flag values before they are merged into Config.
type flagConfig struct {
	configPath string
	listen     string
	dataDir    string
	exportPath string
	importPath string
	debug      bool
}

func main() {
	flags := parseFlags()

	// A missing .env is normal; anything else is worth a warning.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		appLog.Warn("failed to read .env", "error", err.Error())
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI flags override config file values if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.dataDir != "" {
		conf.DataDir = flags.dataDir
	}
	if flags.debug {
		conf.LogLevel = "debug"
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	appLog.Info("labcal starting", "version", version)

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		appLog.Warn("unknown timezone, using local", "timezone", conf.Timezone)
		loc = time.Local
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"data_dir", conf.DataDir,
		"timezone", loc.String(),
		"backup_dir", conf.Backup.Dir,
		"backup_cron", conf.Backup.Cron,
		"professors", len(conf.Professors),
		"subjects", len(conf.Subjects),
	)

	st, err := store.NewFile(conf.DataDir)
	if err != nil {
		appLog.Error("failed to open data dir", err, "data_dir", conf.DataDir)
		os.Exit(1)
	}

	backups := backup.New(st, backup.Options{
		Dir:         conf.Backup.Dir,
		MinBookings: conf.Backup.MinBookings,
		Location:    loc,
	})
	reg := registry.New(st, conf.Professors, conf.Subjects)
	repo := booking.NewRepository(st, loc, booking.WithHook(backups))
	svc := booking.NewService(repo, reg, booking.SystemClock{})

	switch {
	case flags.exportPath != "":
		os.Exit(runExport(repo, flags.exportPath, loc))
	case flags.importPath != "":
		os.Exit(runImport(repo, flags.importPath))
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if conf.Backup.Cron != "" {
		if err := backups.Schedule(conf.Backup.Cron, repo.Load); err != nil {
			appLog.Error("invalid backup schedule, periodic backups disabled", err, "cron", conf.Backup.Cron)
		}
	}
	defer backups.Stop()

	srv := web.NewServer(conf, svc, reg)
	if err := srv.Serve(ctx); err != nil {
		appLog.Error("HTTP server failed", err)
		backups.Stop()
		os.Exit(1)
	}
	appLog.Info("labcal exiting")
}

// runExport writes the export file to path ("-" for stdout).
func runExport(repo *booking.Repository, path string, loc *time.Location) int {
	data, err := repo.Export(time.Now().In(loc))
	if err != nil {
		appLog.Error("export failed", err)
		return 1
	}
	if path == "-" {
		_, _ = os.Stdout.Write(data)
		return 0
	}
	if err := store.WriteFileAtomic(path, data, ".labcal-export-*.tmp"); err != nil {
		appLog.Error("export write failed", err, "path", path)
		return 1
	}
	appLog.Info("export written", "path", path, "bookings", len(repo.Load()))
	return 0
}

// runImport replaces the stored bookings with the contents of path.
func runImport(repo *booking.Repository, path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		appLog.Error("import read failed", err, "path", path)
		return 1
	}
	if !repo.Import(data) {
		appLog.Error("import rejected", snapshot.ErrFormat, "path", path)
		return 1
	}
	appLog.Info("import completed", "path", path, "bookings", len(repo.Load()))
	return 0
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./labcal.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.dataDir, "data", "", "Data directory (overrides config if set)")
	flag.StringVar(&cfg.exportPath, "export", "", "Write an export file to this path (- for stdout) and exit")
	flag.StringVar(&cfg.importPath, "import", "", "Replace all bookings with this export file and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}

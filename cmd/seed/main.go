// Command seed writes a deterministic demo CRM snapshot into a SQLite
// database that the server can then read with CRMPULSE_DB_PATH.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/crmpulse/internal/adapters/repository"
	"github.com/okian/crmpulse/internal/demo"
	"github.com/okian/crmpulse/pkg/logger"
)

// Default configuration constants.
const (
	defaultDeals    = 60
	defaultAccounts = 12
	defaultSeed     = 42
	defaultTimeout  = 2 * time.Minute
)

func main() {
	var (
		dbPath   = flag.String("db", "crmpulse.db", "Path of the SQLite database to write")
		deals    = flag.Int("deals", defaultDeals, "Number of deals to generate")
		accounts = flag.Int("accounts", defaultAccounts, "Number of accounts to generate")
		seed     = flag.Uint64("seed", defaultSeed, "Random seed")
		asOf     = flag.String("now", "", "Generate history up to this RFC3339 instant (default: current time)")
		verbose  = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}
	log := logger.Get()

	now := time.Now().UTC()
	if *asOf != "" {
		t, err := time.Parse(time.RFC3339, *asOf)
		if err != nil {
			os.Stderr.WriteString("invalid -now; must be RFC3339: " + err.Error() + "\n")
			os.Exit(2)
		}
		now = t.UTC()
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	snap := demo.NewGenerator(
		demo.WithSeed(*seed),
		demo.WithDeals(*deals),
		demo.WithAccounts(*accounts),
	).Generate(now)

	if err := write(ctx, *dbPath, snap, log); err != nil {
		log.Error(ctx, "seeding failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
	log.Info(ctx, "seeded database",
		logger.String("path", *dbPath),
		logger.Int("deals", len(snap.Deals)),
		logger.Int("events", len(snap.Events)),
		logger.Int("mandates", len(snap.Mandates)),
		logger.Int("targets", len(snap.Targets)),
	)
}

func write(ctx context.Context, path string, snap repository.Snapshot, log logger.Logger) error {
	store, err := repository.OpenSQLite(ctx, path, repository.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return store.Load(ctx, snap)
}

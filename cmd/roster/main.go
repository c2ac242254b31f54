package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"roster/internal/config"
	"roster/internal/kv"
	"roster/internal/repository"
	"roster/internal/store"
	"roster/internal/user"
	"roster/internal/watch"
)

var (
	// Global flags
	verbose    bool
	configPath string
	dataPath   string
	backend    string

	// Built in PersistentPreRunE
	logger *zap.Logger
	cfg    *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "roster",
	Short: "roster - durable user record store",
	Long: `roster keeps a small collection of user records in a single
serialized blob under one key of a preferences-style key/value store.

Backends: a JSON preferences file (default), SQLite, or memory.
All commands construct their dependencies explicitly from this
composition root; there is no ambient global state.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dataPath != "" {
			cfg.DataPath = dataPath
		}
		if backend != "" {
			cfg.Backend = backend
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else if lvl, lerr := zapcore.ParseLevel(cfg.Logging.Level); lerr == nil {
			zc.Level = zap.NewAtomicLevelAt(lvl)
		}
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// openSubstrate builds the configured kv backend.
func openSubstrate() (kv.Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		return kv.NewSQLite(cfg.DataPath)
	case config.BackendMemory:
		return kv.NewMemory(), nil
	default:
		return kv.NewFile(cfg.DataPath)
	}
}

// buildService constructs the full dependency chain: substrate, record
// store, repository, service. The caller owns the returned closer.
func buildService() (*user.Service, *store.RecordStore, func(), error) {
	substrate, err := openSubstrate()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open %s backend: %w", cfg.Backend, err)
	}

	opts := []store.Option{}
	if !cfg.Seed {
		opts = append(opts, store.WithoutSeed())
	}
	st, err := store.New(substrate, cfg.StorageKey, logger.Named("store"), opts...)
	if err != nil {
		substrate.Close()
		return nil, nil, nil, err
	}

	repo := repository.NewUsers(st, logger.Named("repository"))
	svc := user.NewService(repo, logger.Named("service"))
	closer := func() {
		if err := substrate.Close(); err != nil {
			logger.Warn("failed to close substrate", zap.Error(err))
		}
	}
	return svc, st, closer, nil
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored users",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closer, err := buildService()
		if err != nil {
			return err
		}
		defer closer()

		users := svc.List()
		if len(users) == 0 {
			fmt.Println("no users")
			return nil
		}
		for _, u := range users {
			fmt.Printf("%-38s %-24s %-28s active=%v\n", u.ID, u.Name, u.Email, u.Active)
		}
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Look a user up by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closer, err := buildService()
		if err != nil {
			return err
		}
		defer closer()

		u, ok := svc.Get(args[0])
		if !ok {
			fmt.Printf("user %q not found\n", args[0])
			return nil
		}
		fmt.Printf("%s\t%s\t%s\tactive=%v\n", u.ID, u.Name, u.Email, u.Active)
		return nil
	},
}

var (
	putID     string
	putName   string
	putEmail  string
	putActive bool
)

var putCmd = &cobra.Command{
	Use:   "put",
	Short: "Insert or replace a user",
	Long: `Saves a user. With --id the record with that id is replaced in
full; without it a fresh id is assigned.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closer, err := buildService()
		if err != nil {
			return err
		}
		defer closer()

		stored, err := svc.Save(user.User{
			ID:     putID,
			Name:   putName,
			Email:  putEmail,
			Active: putActive,
		})
		if err != nil {
			return err
		}
		fmt.Printf("saved %s\n", stored.ID)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm [id]",
	Short: "Delete a user by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closer, err := buildService()
		if err != nil {
			return err
		}
		defer closer()

		if svc.Delete(args[0]) {
			fmt.Printf("deleted %s\n", args[0])
		} else {
			fmt.Printf("user %q not found\n", args[0])
		}
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the sample records if the store is empty",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, closer, err := buildService()
		if err != nil {
			return err
		}
		defer closer()

		if err := st.SeedIfEmpty(); err != nil {
			return err
		}
		stats, err := st.Stats()
		if err != nil {
			return err
		}
		fmt.Printf("store has %d records\n", stats.Records)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show record count, dropped-chunk count, and blob size",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, closer, err := buildService()
		if err != nil {
			return err
		}
		defer closer()

		stats, err := st.Stats()
		if err != nil {
			return err
		}
		fmt.Printf("records: %d\ndropped: %d\nblob bytes: %d\n",
			stats.Records, stats.Dropped, stats.BlobBytes)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the preferences file and report changes (file backend only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Backend != config.BackendFile {
			return fmt.Errorf("watch requires the file backend, not %q", cfg.Backend)
		}

		w, err := watch.New(cfg.DataPath, cfg.StorageKey, logger.Named("watch"), func(ev watch.Event) {
			fmt.Printf("%s: %d records (%d dropped)\n", ev.Path, ev.Records, ev.Dropped)
		})
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()

		fmt.Printf("watching %s (ctrl-c to stop)\n", cfg.DataPath)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "roster.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "override the configured data path")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "override the configured backend (file, sqlite, memory)")

	putCmd.Flags().StringVar(&putID, "id", "", "record id (empty assigns a new one)")
	putCmd.Flags().StringVar(&putName, "name", "", "user name")
	putCmd.Flags().StringVar(&putEmail, "email", "", "user email")
	putCmd.Flags().BoolVar(&putActive, "active", true, "active flag")

	rootCmd.AddCommand(listCmd, getCmd, putCmd, rmCmd, seedCmd, statsCmd, watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

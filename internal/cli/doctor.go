package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/serialbinder/internal/cache"
	"github.com/ppiankov/serialbinder/internal/config"
	"github.com/ppiankov/serialbinder/internal/match"
	"github.com/ppiankov/serialbinder/internal/store"
	"github.com/ppiankov/serialbinder/internal/title"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, subscriptions and storage",
	RunE:  doctorAction,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func doctorAction(cmd *cobra.Command, _ []string) error {
	ok := true
	ctx := commandContext(cmd)

	// Config dir
	if info, err := os.Stat(configDir); err != nil || !info.IsDir() {
		printCheck(false, "config directory %s", configDir)
		ok = false
	} else {
		printCheck(true, "config directory %s", configDir)
	}

	// Config file
	cfg, err := config.Load(configDir)
	if err != nil {
		printCheck(false, "config.yaml: %v", err)
		ok = false
	} else {
		printCheck(true, "config.yaml (%s feed, %s cache)", cfg.Reddit.Feed, cfg.Cache.Backend)
		if cfg.Reddit.Feed == "json" && cfg.Reddit.Token == "" {
			printInfo("no reddit token: read state is unknown, so the read budget never applies")
		}
	}

	// Subscriptions
	subs, err := config.LoadSubscriptions(filepath.Join(configDir, config.DefaultSubscriptionsFile))
	if err != nil {
		printCheck(false, "subscriptions.yaml: %v", err)
		ok = false
	} else {
		total, invalid := 0, 0
		for _, a := range subs.Authors {
			for _, sub := range a.Subscriptions {
				total++
				if _, err := match.Compile(sub); err != nil {
					printCheck(false, "%s: %v", a.Username, err)
					invalid++
				}
			}
		}
		if _, err := title.CompileRules(subs.Rules); err != nil {
			printCheck(false, "title rules: %v", err)
			invalid++
		}
		if invalid > 0 {
			ok = false
		} else {
			printCheck(true, "subscriptions.yaml (%d authors, %d subscriptions, %d title rules)",
				len(subs.Enabled()), total, len(subs.Rules))
		}
	}

	if cfg == nil {
		return fmt.Errorf("some checks failed")
	}

	// Database
	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		printCheck(false, "database: %v", err)
		ok = false
	} else {
		defer func() { _ = db.Close() }()
		version, err := db.SchemaVersion(ctx)
		if err != nil {
			printCheck(false, "database %s: %v", cfg.Storage.Path, err)
			ok = false
		} else {
			printCheck(true, "database %s (schema v%d)", cfg.Storage.Path, version)
		}

		if stats, err := db.Stats(ctx); err == nil {
			printInfo("%d cached posts (%d expired), %d batches recorded", stats.CachedPosts, stats.ExpiredPosts, stats.Batches)
			if !stats.LastBatch.IsZero() {
				printInfo("last batch %s", stats.LastBatch.In(cfg.Collect.Location()).Format("2006-01-02 15:04"))
			}
		}
	}

	// Redis cache
	if cfg.Cache.Backend == "redis" {
		rc, err := cache.Connect(cfg.Cache.Redis)
		if err != nil {
			printCheck(false, "redis %s: %v", cfg.Cache.Redis.Address, err)
			ok = false
		} else {
			_ = rc.Close()
			printCheck(true, "redis %s", cfg.Cache.Redis.Address)
		}
	}

	if !ok {
		return fmt.Errorf("some checks failed")
	}
	fmt.Println("\nAll checks passed.")
	return nil
}

func printCheck(pass bool, format string, args ...any) {
	mark := "FAIL"
	if pass {
		mark = " OK "
	}
	fmt.Printf("[%s] %s\n", mark, fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...any) {
	fmt.Printf("[INFO] %s\n", fmt.Sprintf(format, args...))
}

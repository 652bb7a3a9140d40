package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/serialbinder/internal/config"
	"github.com/ppiankov/serialbinder/internal/digest"
	"github.com/ppiankov/serialbinder/internal/source"
	"github.com/ppiankov/serialbinder/internal/store"
)

var (
	collectFormat string
	collectBudget int
	collectRecord bool
	noColor       bool
)

var collectCmd = &cobra.Command{
	Use:   "collect [author...]",
	Short: "Collect new posts per author and print the titled batches",
	Long: "collect walks each author's submissions newest first, keeps the posts matching their subscriptions " +
		"and prints one batch per author. With no arguments every enabled author is collected.",
	RunE: collectAction,
}

func init() {
	collectCmd.Flags().StringVar(&collectFormat, "format", "", "output format: terminal, json, markdown")
	collectCmd.Flags().BoolVar(&noColor, "no-color", false, "disable ANSI colors")
	collectCmd.Flags().IntVar(&collectBudget, "budget", -1, "already-read posts kept per subscription (default from config)")
	collectCmd.Flags().BoolVar(&collectRecord, "record", false, "save the batches to the history")
	rootCmd.AddCommand(collectCmd)
}

func collectAction(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	authors, err := selectAuthors(a.subs, args)
	if err != nil {
		return err
	}

	budget := a.cfg.Collect.Budget()
	if collectBudget >= 0 {
		budget = collectBudget
	}

	formatter, err := digest.New(collectFormat, !noColor)
	if err != nil {
		return err
	}

	pc, err := a.openCache()
	if err != nil {
		return err
	}
	if pc != nil {
		defer func() { _ = pc.Close() }()
	}

	var history *store.Store
	if collectRecord {
		if db, ok := pc.(*store.Store); ok {
			history = db
		} else {
			history, err = a.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = history.Close() }()
		}
	}

	ctx := commandContext(cmd)

	b := a.binder(a.client(), pc, budget)

	input := digest.Input{
		GeneratedAt: time.Now(),
		Location:    a.cfg.Collect.Location(),
	}
	recorded := 0
	for _, author := range authors {
		batch, err := b.Author(ctx, author)
		if errors.Is(err, source.ErrAccessDenied) {
			a.log.Warn("author skipped", zap.String("author", author.Username), zap.Error(err))
			input.Batches = append(input.Batches, digest.Batch{
				Author:  author.Username,
				Skipped: source.ErrAccessDenied.Error(),
			})
			continue
		}
		if err != nil {
			return fmt.Errorf("collect: %w", err)
		}
		input.Batches = append(input.Batches, batch)

		if history != nil && len(batch.Entries) > 0 {
			if _, err := history.SaveBatch(ctx, store.BatchInput{
				Author:      batch.Author,
				Title:       batch.Title,
				Filename:    batch.Filename,
				ReadCounted: batch.ReadCounted,
				Entries:     batch.Entries,
			}); err != nil {
				return fmt.Errorf("record batch: %w", err)
			}
			recorded++
		}
	}

	if err := formatter.Format(os.Stdout, input); err != nil {
		return err
	}
	if collectRecord && collectFormat != "json" {
		fmt.Printf("Recorded %d batches.\n", recorded)
	}
	return nil
}

// selectAuthors returns the enabled authors, or the named ones in argument
// order. Naming an author switches them on for this run.
func selectAuthors(subs *config.Subscriptions, names []string) ([]config.Author, error) {
	if len(names) == 0 {
		authors := subs.Enabled()
		if len(authors) == 0 {
			return nil, errors.New("no enabled authors in " + config.DefaultSubscriptionsFile)
		}
		return authors, nil
	}

	authors := make([]config.Author, 0, len(names))
	for _, name := range names {
		author, ok := subs.Author(name)
		if !ok {
			return nil, fmt.Errorf("author %q is not in %s", name, config.DefaultSubscriptionsFile)
		}
		authors = append(authors, author)
	}
	return authors, nil
}

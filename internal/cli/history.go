package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/serialbinder/internal/store"
)

var (
	historyAuthor string
	historySince  string
	historyLimit  int
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded batches, newest first",
	RunE:  historyAction,
}

func init() {
	historyCmd.Flags().StringVar(&historyAuthor, "author", "", "only batches of this author")
	historyCmd.Flags().StringVar(&historySince, "since", "", "time window (e.g. 7d, 48h)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum batches to list, 0 for all")
	historyCmd.Flags().StringVar(&historyFormat, "format", "terminal", "output format: terminal, json")
	rootCmd.AddCommand(historyCmd)
}

func historyAction(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	var since time.Time
	if historySince != "" {
		d, err := parseDuration(historySince)
		if err != nil {
			return fmt.Errorf("parse --since: %w", err)
		}
		since = time.Now().Add(-d)
	}

	db, err := a.openStore()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	batches, err := db.ListBatches(commandContext(cmd), historyAuthor, historyLimit)
	if err != nil {
		return fmt.Errorf("list batches: %w", err)
	}
	batches = batchesSince(batches, since)

	switch historyFormat {
	case "json":
		return printHistoryJSON(os.Stdout, batches)
	case "terminal", "":
		printHistory(os.Stdout, batches, a.cfg.Collect.Location())
		return nil
	default:
		return fmt.Errorf("unknown format %q (want terminal or json)", historyFormat)
	}
}

// batchesSince keeps batches created at or after since. Input is newest
// first, so the first older batch ends the list.
func batchesSince(batches []store.Batch, since time.Time) []store.Batch {
	if since.IsZero() {
		return batches
	}
	for i, b := range batches {
		if b.CreatedAt.Before(since) {
			return batches[:i]
		}
	}
	return batches
}

type jsonHistoryBatch struct {
	ID          string   `json:"id"`
	Author      string   `json:"author"`
	Title       string   `json:"title"`
	Filename    string   `json:"filename"`
	ReadCounted int      `json:"read_counted"`
	CreatedAt   string   `json:"created_at"`
	PostIDs     []string `json:"post_ids"`
}

func printHistoryJSON(w io.Writer, batches []store.Batch) error {
	out := make([]jsonHistoryBatch, 0, len(batches))
	for _, b := range batches {
		ids := make([]string, 0, len(b.Posts))
		for _, p := range b.Posts {
			ids = append(ids, p.PostID)
		}
		out = append(out, jsonHistoryBatch{
			ID:          b.ID,
			Author:      b.Author,
			Title:       b.Title,
			Filename:    b.Filename,
			ReadCounted: b.ReadCounted,
			CreatedAt:   b.CreatedAt.UTC().Format(time.RFC3339),
			PostIDs:     ids,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printHistory(w io.Writer, batches []store.Batch, loc *time.Location) {
	if len(batches) == 0 {
		fmt.Fprintln(w, "No batches recorded. Run 'serialbinder collect --record' first.")
		return
	}

	fmt.Fprintf(w, "serialbinder history — %d batches\n\n", len(batches))
	for _, b := range batches {
		fmt.Fprintf(w, "%s  %s\n", b.CreatedAt.In(loc).Format("2006-01-02 15:04"), b.Author)
		fmt.Fprintf(w, "  %s\n", b.Title)
		fmt.Fprintf(w, "  %s  (%d posts, %d already read)\n", b.Filename, len(b.Posts), b.ReadCounted)
		fmt.Fprintf(w, "  id %s\n\n", b.ID)
	}
}

// parseDuration handles both Go durations and "Nd" day notation.
func parseDuration(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil && days > 0 {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}

package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/serialbinder/internal/match"
	"github.com/ppiankov/serialbinder/internal/source"
	"github.com/ppiankov/serialbinder/internal/title"
)

var explainAt string

var explainCmd = &cobra.Command{
	Use:   "explain <author> <title>",
	Short: "Show how a title is normalized and which subscriptions match it",
	Args:  cobra.MinimumNArgs(2),
	RunE:  explainAction,
}

func init() {
	explainCmd.Flags().StringVar(&explainAt, "at", "", "post time (RFC3339), default now")
	rootCmd.AddCommand(explainCmd)
}

func explainAction(_ *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	at, err := parseAt(explainAt)
	if err != nil {
		return err
	}

	p := source.Post{
		Author:    args[0],
		Title:     strings.Join(args[1:], " "),
		CreatedAt: at,
	}
	canonical := a.normalizer.Normalize(p)

	fmt.Printf("Author:    %s\n", p.Author)
	fmt.Printf("Raw:       %s\n", p.Title)
	fmt.Printf("Canonical: %s\n", canonical)
	fmt.Printf("Filename:  %s\n", title.Filename(canonical, a.cfg.Collect.Extension))
	fmt.Println()

	author, ok := a.subs.Author(p.Author)
	if !ok {
		fmt.Printf("%s has no subscriptions.\n", p.Author)
		return nil
	}
	if !author.IsEnabled() {
		fmt.Printf("%s is disabled.\n", author.Username)
	}

	fmt.Println("Subscriptions:")
	for _, sub := range author.Subscriptions {
		m, err := match.Compile(sub)
		if err != nil {
			fmt.Printf("  [invalid ] %v\n", err)
			continue
		}

		mark := "no match"
		if m.MatchesTitle(p.Title) {
			mark = "match"
		}
		if !sub.IsEnabled() {
			mark += ", disabled"
		}

		line := fmt.Sprintf("  [%-8s] %s", mark, m)
		if m.Mode == match.ModeFuzzy {
			line += fmt.Sprintf("  score %d", m.Score(p.Title))
		}
		fmt.Println(line)
	}
	return nil
}

// parseAt parses an RFC3339 --at flag, defaulting to now.
func parseAt(value string) (time.Time, error) {
	if value == "" {
		return time.Now(), nil
	}
	at, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse --at: %w", err)
	}
	return at, nil
}

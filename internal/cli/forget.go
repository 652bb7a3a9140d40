package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/serialbinder/internal/store"
)

var (
	forgetAuthor  string
	forgetExpired bool
)

var forgetCmd = &cobra.Command{
	Use:   "forget [post-id...]",
	Short: "Drop cached posts so their read state is fetched again",
	RunE:  forgetAction,
}

func init() {
	forgetCmd.Flags().StringVar(&forgetAuthor, "author", "", "drop every cached post of this author (sqlite cache only)")
	forgetCmd.Flags().BoolVar(&forgetExpired, "expired", false, "drop expired posts (sqlite cache only)")
	rootCmd.AddCommand(forgetCmd)
}

func forgetAction(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && forgetAuthor == "" && !forgetExpired {
		return errors.New("nothing to forget: give post IDs, --author or --expired")
	}

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	pc, err := a.openCache()
	if err != nil {
		return err
	}
	if pc == nil {
		fmt.Println("Cache is disabled, nothing to forget.")
		return nil
	}
	defer func() { _ = pc.Close() }()

	ctx := commandContext(cmd)

	forgotten := int64(0)
	for _, id := range args {
		if err := pc.Delete(ctx, id); err != nil {
			return fmt.Errorf("forget %s: %w", id, err)
		}
		forgotten++
	}

	if forgetAuthor != "" || forgetExpired {
		db, ok := pc.(*store.Store)
		if !ok {
			return fmt.Errorf("--author and --expired need the sqlite cache, not %s", a.cfg.Cache.Backend)
		}
		if forgetAuthor != "" {
			n, err := db.DeleteAuthor(ctx, forgetAuthor)
			if err != nil {
				return fmt.Errorf("forget author %s: %w", forgetAuthor, err)
			}
			forgotten += n
		}
		if forgetExpired {
			n, err := db.PruneExpired(ctx)
			if err != nil {
				return fmt.Errorf("prune expired: %w", err)
			}
			forgotten += n
		}
	}

	fmt.Printf("Forgot %d posts.\n", forgotten)
	return nil
}

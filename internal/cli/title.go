package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/serialbinder/internal/source"
	"github.com/ppiankov/serialbinder/internal/title"
)

var (
	titleAuthor string
	titleAt     string
)

var titleCmd = &cobra.Command{
	Use:   "title <raw title>",
	Short: "Print the canonical title and filename for a raw title",
	Args:  cobra.MinimumNArgs(1),
	RunE:  titleAction,
}

func init() {
	titleCmd.Flags().StringVar(&titleAuthor, "author", "", "author the title belongs to")
	titleCmd.Flags().StringVar(&titleAt, "at", "", "post time (RFC3339), default now")
	rootCmd.AddCommand(titleCmd)
}

func titleAction(_ *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	at, err := parseAt(titleAt)
	if err != nil {
		return err
	}

	canonical := a.normalizer.Normalize(source.Post{
		Author:    titleAuthor,
		Title:     strings.Join(args, " "),
		CreatedAt: at,
	})
	fmt.Println(canonical)
	fmt.Println(title.Filename(canonical, a.cfg.Collect.Extension))
	return nil
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/serialbinder/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config directory with example files",
	RunE:  initAction,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func initAction(_ *cobra.Command, _ []string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	created := 0

	configPath := filepath.Join(configDir, config.DefaultConfigFile)
	wrote, err := writeIfNotExists(configPath, []byte(exampleConfig))
	if err != nil {
		return err
	}
	if wrote {
		created++
	}

	subsPath := filepath.Join(configDir, config.DefaultSubscriptionsFile)
	wrote, err = writeIfNotExists(subsPath, []byte(exampleSubscriptions))
	if err != nil {
		return err
	}
	if wrote {
		created++
	}

	if created == 0 {
		fmt.Printf("Config directory %s already initialized.\n", configDir)
	} else {
		fmt.Printf("Initialized %s with %d config files.\n", configDir, created)
	}
	return nil
}

// writeIfNotExists writes data to path if the file does not exist.
// Returns true if the file was created.
func writeIfNotExists(path string, data []byte) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("  exists: %s\n", path)
		return false, nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("  created: %s\n", path)
	return true, nil
}

const exampleConfig = `# serialbinder configuration

reddit:
  base_url: https://oauth.reddit.com
  feed: json          # json | rss
  token_env: REDDIT_TOKEN
  user_agent: serialbinder/1.0
  page_size: 100
  timeout: 30s

storage:
  path: .serialbinder/serialbinder.db

cache:
  backend: sqlite     # sqlite | redis | none
  ttl: 168h           # 0s keeps posts until forgotten
  redis:
    address: localhost:6379
    password_env: REDIS_PASSWORD
    db: 0

collect:
  read_budget: 10
  unlocked_channel: HFY
  extension: azw3
  timezone: UTC

log:
  level: info
  development: false
`

const exampleSubscriptions = `# serialbinder subscriptions

authors:
  - username: Ralts_Bloodthorne
    subscriptions:
      - channel: HFY
        fragment: First Contact
        mode: literal
  - username: SpacePaladin15
    subscriptions:
      - channel: NatureofPredators
        fragment: The Nature of Predators
        mode: fuzzy
        threshold: 85

rules: []
# - name: expand-abbrev
#   author: SomeAuthor
#   starts_with: "TNoP"
#   pattern: "TNoP"
#   replace: "The Nature of Predators"
`

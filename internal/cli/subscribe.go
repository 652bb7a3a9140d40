package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/serialbinder/internal/config"
	"github.com/ppiankov/serialbinder/internal/match"
)

var (
	subscribeMode      string
	subscribeThreshold int
	subscribeDryRun    bool
)

var subscribeCmd = &cobra.Command{
	Use:   "subscribe <author> <channel> <fragment>",
	Short: "Add a subscription to subscriptions.yaml",
	Args:  cobra.MinimumNArgs(3),
	RunE:  subscribeAction,
}

func init() {
	subscribeCmd.Flags().StringVar(&subscribeMode, "mode", "literal", "match mode: literal, regex, fuzzy")
	subscribeCmd.Flags().IntVar(&subscribeThreshold, "threshold", 0, "minimum fuzzy score (1-100)")
	subscribeCmd.Flags().BoolVar(&subscribeDryRun, "dry-run", false, "show what would be added without modifying subscriptions")
	rootCmd.AddCommand(subscribeCmd)
}

// subscriptionEntry is a subscription as written to subscriptions.yaml.
type subscriptionEntry struct {
	Channel   string `yaml:"channel"`
	Fragment  string `yaml:"fragment"`
	Mode      string `yaml:"mode"`
	Threshold int    `yaml:"threshold,omitempty"`
}

func subscribeAction(_ *cobra.Command, args []string) error {
	username := args[0]
	sub := config.Subscription{
		Channel:   args[1],
		Fragment:  strings.Join(args[2:], " "),
		Mode:      subscribeMode,
		Threshold: subscribeThreshold,
	}

	m, err := match.Compile(sub)
	if err != nil {
		return err
	}

	subsPath := filepath.Join(configDir, config.DefaultSubscriptionsFile)
	subs, err := config.LoadSubscriptions(subsPath)
	if err != nil {
		return fmt.Errorf("load subscriptions: %w", err)
	}

	if author, ok := subs.Author(username); ok {
		for _, existing := range author.Subscriptions {
			if strings.EqualFold(existing.Channel, sub.Channel) && existing.Fragment == sub.Fragment {
				fmt.Printf("%s is already subscribed to %s.\n", author.Username, m)
				return nil
			}
		}
	}

	if subscribeDryRun {
		fmt.Printf("Would add to %s:\n  + %s\n", username, m)
		return nil
	}

	entry := subscriptionEntry{
		Channel:   sub.Channel,
		Fragment:  sub.Fragment,
		Mode:      m.Mode.String(),
		Threshold: sub.Threshold,
	}
	if err := mergeSubscription(subsPath, username, entry); err != nil {
		return fmt.Errorf("merge subscription: %w", err)
	}

	fmt.Printf("Subscribed %s to %s.\n", username, m)
	return nil
}

// mergeSubscription reads subscriptions.yaml as a yaml.Node tree, appends
// entry to the author's subscriptions (adding the author when missing), and
// writes back preserving structure and comments.
func mergeSubscription(path, username string, entry subscriptionEntry) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read subscriptions: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse subscriptions YAML: %w", err)
	}

	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return errors.New("subscriptions.yaml is not a mapping")
	}

	var subNode yaml.Node
	if err := subNode.Encode(entry); err != nil {
		return fmt.Errorf("encode subscription: %w", err)
	}

	authors := findMapValue(root, "authors")
	if authors == nil || authors.Kind != yaml.SequenceNode {
		authors = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		setMapValue(root, "authors", authors)
	}

	authors.Style = 0
	author := findAuthorNode(authors, username)
	if author == nil {
		var authorNode yaml.Node
		if err := authorNode.Encode(struct {
			Username      string              `yaml:"username"`
			Subscriptions []subscriptionEntry `yaml:"subscriptions"`
		}{Username: username, Subscriptions: []subscriptionEntry{entry}}); err != nil {
			return fmt.Errorf("encode author: %w", err)
		}
		authors.Content = append(authors.Content, &authorNode)
	} else {
		list := findMapValue(author, "subscriptions")
		if list == nil || list.Kind != yaml.SequenceNode {
			list = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
			setMapValue(author, "subscriptions", list)
		}
		list.Style = 0
		list.Content = append(list.Content, &subNode)
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshal subscriptions: %w", err)
	}

	return os.WriteFile(path, out, 0o644)
}

// findAuthorNode returns the author mapping with the given username,
// ignoring case.
func findAuthorNode(authors *yaml.Node, username string) *yaml.Node {
	for _, a := range authors.Content {
		name := findMapValue(a, "username")
		if name != nil && strings.EqualFold(name.Value, username) {
			return a
		}
	}
	return nil
}

func findMapValue(mapping *yaml.Node, key string) *yaml.Node {
	if mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// setMapValue replaces the value under key, or appends the pair.
func setMapValue(mapping *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = value
			return
		}
	}
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value)
}

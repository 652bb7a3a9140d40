package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultSubscriptionsFile = "subscriptions.yaml"

// Subscriptions lists the watched authors and the extra title rules.
type Subscriptions struct {
	Authors []Author    `yaml:"authors"`
	Rules   []TitleRule `yaml:"rules"`
}

type Author struct {
	Username      string         `yaml:"username"`
	Enabled       *bool          `yaml:"enabled"`
	Subscriptions []Subscription `yaml:"subscriptions"`
}

// IsEnabled reports whether the author is watched. Authors are enabled
// unless switched off.
func (a Author) IsEnabled() bool {
	return a.Enabled == nil || *a.Enabled
}

// Subscription selects an author's posts in one channel by title. Mode is
// one of literal, regex or fuzzy and is checked when the subscription is
// compiled; Threshold (1-100) only applies to fuzzy matching.
type Subscription struct {
	Channel   string `yaml:"channel"`
	Fragment  string `yaml:"fragment"`
	Mode      string `yaml:"mode"`
	Threshold int    `yaml:"threshold"`
	Enabled   *bool  `yaml:"enabled"`
}

func (s Subscription) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// TitleRule is a title rewrite appended after the built-in rules. All
// conditions must hold; Pattern is replaced by Replace and Prefix is
// prepended. "{date}" in Replace or Prefix becomes the post date formatted
// with DateLayout.
type TitleRule struct {
	Name       string `yaml:"name"`
	Author     string `yaml:"author"`
	Within     int    `yaml:"within"`
	StartsWith string `yaml:"starts_with"`
	Contains   string `yaml:"contains"`
	MinLength  int    `yaml:"min_length"`
	Pattern    string `yaml:"pattern"`
	Replace    string `yaml:"replace"`
	Prefix     string `yaml:"prefix"`
	DateLayout string `yaml:"date_layout"`
}

// LoadSubscriptions reads a subscriptions YAML file and validates it.
func LoadSubscriptions(path string) (*Subscriptions, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("subscriptions path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read subscriptions: %w", err)
	}

	var subs Subscriptions
	if err := yaml.Unmarshal(data, &subs); err != nil {
		return nil, fmt.Errorf("parse subscriptions: %w", err)
	}

	if err := validateSubscriptions(&subs); err != nil {
		return nil, fmt.Errorf("validate subscriptions: %w", err)
	}

	return &subs, nil
}

// Author returns the configured author with the given name, ignoring case.
func (s *Subscriptions) Author(name string) (Author, bool) {
	for _, a := range s.Authors {
		if strings.EqualFold(a.Username, name) {
			return a, true
		}
	}
	return Author{}, false
}

// Enabled returns the enabled authors in file order.
func (s *Subscriptions) Enabled() []Author {
	var out []Author
	for _, a := range s.Authors {
		if a.IsEnabled() {
			out = append(out, a)
		}
	}
	return out
}

func validateSubscriptions(s *Subscriptions) error {
	authors := make(map[string]bool)
	seen := make(map[string]bool)
	for i, a := range s.Authors {
		if strings.TrimSpace(a.Username) == "" {
			return fmt.Errorf("authors[%d]: username is required", i)
		}
		key := strings.ToLower(a.Username)
		if authors[key] {
			return fmt.Errorf("authors[%d]: duplicate author %q", i, a.Username)
		}
		authors[key] = true

		for j, sub := range a.Subscriptions {
			k := key + "\x00" + strings.ToLower(sub.Channel) + "\x00" + sub.Fragment
			if seen[k] {
				return fmt.Errorf("authors[%d].subscriptions[%d]: duplicate subscription %s/%q for %s",
					i, j, sub.Channel, sub.Fragment, a.Username)
			}
			seen[k] = true
		}
	}

	for i, r := range s.Rules {
		if r.Pattern == "" && r.Prefix == "" {
			return fmt.Errorf("rules[%d]: pattern or prefix is required", i)
		}
	}
	return nil
}

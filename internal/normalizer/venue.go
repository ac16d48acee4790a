package normalizer

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var defaultAliasData []byte

type aliasFile struct {
	Venues map[string]string `yaml:"venues"`
}

var (
	aliasMu    sync.RWMutex
	venueAlias map[string]string
)

func init() {
	var f aliasFile
	// the embedded table is part of the build, a parse failure is a bug
	if err := yaml.Unmarshal(defaultAliasData, &f); err != nil {
		panic(fmt.Sprintf("normalizer: embedded alias table is invalid: %v", err))
	}
	venueAlias = lowerKeys(f.Venues)
}

// LoadVenueAliases replaces the embedded alias table with one read from a
// YAML file, letting deployments extend the vocabulary without a rebuild.
func LoadVenueAliases(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read alias file: %w", err)
	}
	var f aliasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse alias file: %w", err)
	}
	aliasMu.Lock()
	venueAlias = lowerKeys(f.Venues)
	aliasMu.Unlock()
	return nil
}

// NormalizeVenue expands known institution abbreviations to their canonical
// names and falls back to the trimmed input.
func NormalizeVenue(text string) string {
	trimmed := NormalizeText(text)
	if trimmed == "" {
		return ""
	}

	aliasMu.RLock()
	defer aliasMu.RUnlock()

	lower := strings.ToLower(trimmed)
	if canonical, ok := venueAlias[lower]; ok {
		return canonical
	}

	// "MDK Ochota" -> "Młodzieżowy Dom Kultury Ochota"
	if first, rest, found := strings.Cut(trimmed, " "); found {
		if canonical, ok := venueAlias[strings.ToLower(first)]; ok {
			return canonical + " " + rest
		}
	}

	return trimmed
}

func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

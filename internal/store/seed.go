package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"fjacquet/bankflow/internal/logging"
	"fjacquet/bankflow/internal/models"
	"fjacquet/bankflow/internal/taxonomy"

	"gopkg.in/yaml.v3"
)

// DefaultPatternsFile is the seed file name looked up by FindConfigFile.
const DefaultPatternsFile = "patterns.yaml"

// SeedGroup is one category's keywords in the seed file. Category names
// may use display or storage spelling.
type SeedGroup struct {
	Main     string   `yaml:"main"`
	Sub      string   `yaml:"sub"`
	Keywords []string `yaml:"keywords"`
}

// SeedFile is the on-disk layout of the pattern seed file.
type SeedFile struct {
	Patterns []SeedGroup `yaml:"patterns"`
}

// FindConfigFile looks for filename in the working directory, ./config,
// ./database and finally ~/.config/bankflow.
func FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
		filepath.Join("database", filename),
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".config", "bankflow", filename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
	}

	return "", os.ErrNotExist
}

// LoadSeedPatterns reads a seed file into patterns with seed confidence and
// zero usage. Groups naming an unknown or mismatched category are errors.
func LoadSeedPatterns(path string) ([]models.CategoryPattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading patterns file: %w", err)
	}

	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing patterns file: %w", err)
	}

	var out []models.CategoryPattern
	for i, group := range file.Patterns {
		pair, corrected, err := taxonomy.ToStorage(group.Main, group.Sub)
		if err != nil {
			return nil, fmt.Errorf("patterns group %d: %w", i+1, err)
		}
		if corrected {
			return nil, fmt.Errorf("patterns group %d: %w: %s/%s", i+1, taxonomy.ErrInvalidPair, group.Main, group.Sub)
		}
		for _, kw := range group.Keywords {
			key := models.NormalizePattern(kw)
			if key == "" {
				continue
			}
			out = append(out, models.CategoryPattern{
				Pattern:      key,
				MainCategory: pair.Main,
				SubCategory:  pair.Sub,
				Confidence:   models.SeedConfidence,
			})
		}
	}
	return out, nil
}

// SeedPatterns inserts every missing pattern and returns how many were
// created. Existing patterns keep their category and statistics.
func SeedPatterns(ctx context.Context, ps PatternStore, patterns []models.CategoryPattern, logger logging.Logger) (int, error) {
	logger = logging.OrDiscard(logger)

	created := 0
	for _, p := range patterns {
		ok, err := ps.SeedPattern(ctx, p)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}

	logger.Info("Seeded category patterns",
		logging.F(logging.FieldCount, created),
		logging.F(logging.FieldOperation, "seed"))
	return created, nil
}

// SeedFromFile resolves filename with FindConfigFile and seeds from it. A
// missing file is not an error.
func SeedFromFile(ctx context.Context, ps PatternStore, filename string, logger logging.Logger) (int, error) {
	logger = logging.OrDiscard(logger)
	if filename == "" {
		filename = DefaultPatternsFile
	}

	path, err := FindConfigFile(filename)
	if err != nil {
		logger.Warn("Patterns file not found", logging.F(logging.FieldFile, filename))
		return 0, nil
	}

	patterns, err := LoadSeedPatterns(path)
	if err != nil {
		return 0, err
	}
	return SeedPatterns(ctx, ps, patterns, logger)
}

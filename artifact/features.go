package artifact

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Canonical feature keys, in the order of the iris dataset columns.
const (
	SepalLength = "sepal_length"
	SepalWidth  = "sepal_width"
	PetalLength = "petal_length"
	PetalWidth  = "petal_width"
)

// CanonicalFeatures lists the feature keys every feature-name artifact must cover.
var CanonicalFeatures = []string{SepalLength, SepalWidth, PetalLength, PetalWidth}

// NormalizeFeatureName maps exported names such as "sepal length (cm)" to
// their canonical key.
func NormalizeFeatureName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimSuffix(name, "(cm)")
	name = strings.TrimSpace(name)
	name = strings.NewReplacer(" ", "_", "-", "_").Replace(name)
	return name
}

// ValidateFeatureNames normalizes names and checks that they are a
// permutation of CanonicalFeatures.
func ValidateFeatureNames(names []string) ([]string, error) {
	if len(names) != len(CanonicalFeatures) {
		return nil, fmt.Errorf("expected %d feature names, got %d", len(CanonicalFeatures), len(names))
	}
	known := make(map[string]bool, len(CanonicalFeatures))
	for _, key := range CanonicalFeatures {
		known[key] = true
	}
	seen := make(map[string]bool, len(names))
	normalized := make([]string, 0, len(names))
	for _, name := range names {
		key := NormalizeFeatureName(name)
		if !known[key] {
			return nil, fmt.Errorf("unknown feature name %q", name)
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate feature name %q", name)
		}
		seen[key] = true
		normalized = append(normalized, key)
	}
	return normalized, nil
}

func loadFeatureNames(path string) ([]string, error) {
	payload, err := readText(path)
	if err != nil {
		return nil, err
	}

	var names []string
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(payload, &names); err != nil {
			return nil, fmt.Errorf("decode feature names: %w", err)
		}
	} else {
		scanner := bufio.NewScanner(bytes.NewReader(payload))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			names = append(names, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}
	return ValidateFeatureNames(names)
}

// readText reads a text artifact, honoring a leading UTF-8 or UTF-16 BOM.
func readText(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	return io.ReadAll(r)
}

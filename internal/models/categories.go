package models

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CategoryPreset is one of the fixed diagnosis choices offered during a
// reading session. Users may always type a custom category instead.
type CategoryPreset struct {
	Value       string `yaml:"value"`
	Label       string `yaml:"label"`
	Description string `yaml:"description,omitempty"`
}

// Categories holds the preset diagnosis choices loaded at startup.
type Categories struct {
	Presets []CategoryPreset `yaml:"categories"`
}

// LoadCategories reads and parses the categories.yaml file.
func LoadCategories(path string) (*Categories, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read categories file: %w", err)
	}

	var cats Categories
	if err := yaml.Unmarshal(data, &cats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal categories YAML: %w", err)
	}
	for i := range cats.Presets {
		cats.Presets[i].Value = strings.ToLower(strings.TrimSpace(cats.Presets[i].Value))
	}
	return &cats, nil
}

// DefaultCategories are the presets used when no categories file is shipped.
func DefaultCategories() *Categories {
	return &Categories{Presets: []CategoryPreset{
		{Value: "normal", Label: "Normal", Description: "No abnormality detected"},
		{Value: "benign", Label: "Benign", Description: "Abnormality present, non-malignant"},
		{Value: "cancer", Label: "Cancer", Description: "Malignant finding"},
	}}
}

// Values returns the preset category values in order.
func (c *Categories) Values() []string {
	vals := make([]string, len(c.Presets))
	for i, p := range c.Presets {
		vals[i] = p.Value
	}
	return vals
}

// Package catalog holds the static reward configuration: the weighted prize
// catalogs and the survey questions. It is loaded once at process start from
// a YAML file and never mutated afterwards; callers receive it by value or
// as a read-only reference.
package catalog

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// weightTolerance absorbs floating-point drift when checking that the
// weights of a catalog sum to 1.
const weightTolerance = 1e-6

// Prize is one entry of a weighted reward catalog.
type Prize struct {
	Slug   string  `yaml:"slug" json:"slug"`
	Name   string  `yaml:"name" json:"name"`
	Weight float64 `yaml:"weight" json:"-"`
	Color  string  `yaml:"color" json:"color,omitempty"`
	Emoji  string  `yaml:"emoji" json:"emoji,omitempty"`
}

// Catalog is an ordered list of prizes whose weights sum to 1.
type Catalog []Prize

// Question is one survey question.
type Question struct {
	ID       string `yaml:"id" json:"id"`
	Label    string `yaml:"label" json:"label"`
	Required bool   `yaml:"required" json:"required"`
}

// Config is the full reward configuration for the event.
type Config struct {
	Roulette struct {
		Prizes Catalog `yaml:"prizes"`
	} `yaml:"roulette"`
	Survey struct {
		Questions []Question `yaml:"questions"`
		Prizes    Catalog    `yaml:"prizes"`
	} `yaml:"survey"`
}

// Load reads and validates the reward configuration from a YAML file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rewards catalog: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse rewards catalog: %w", err)
	}

	if err := cfg.Roulette.Prizes.Validate(); err != nil {
		return nil, fmt.Errorf("roulette catalog: %w", err)
	}
	if err := cfg.Survey.Prizes.Validate(); err != nil {
		return nil, fmt.Errorf("survey catalog: %w", err)
	}
	if len(cfg.Survey.Questions) == 0 {
		return nil, fmt.Errorf("survey catalog: at least one question is required")
	}

	return &cfg, nil
}

// Validate checks that the catalog is non-empty, every weight is in (0,1],
// and the weights sum to 1 within tolerance.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("catalog must not be empty")
	}

	sum := 0.0
	for _, p := range c {
		if p.Slug == "" || p.Name == "" {
			return fmt.Errorf("prize slug and name are required")
		}
		if p.Weight <= 0 || p.Weight > 1 {
			return fmt.Errorf("prize %q weight must be in (0,1], got %v", p.Slug, p.Weight)
		}
		sum += p.Weight
	}

	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("catalog weights must sum to 1, got %v", sum)
	}
	return nil
}

// Find returns the prize with the given slug.
func (c Catalog) Find(slug string) (Prize, bool) {
	for _, p := range c {
		if p.Slug == slug {
			return p, true
		}
	}
	return Prize{}, false
}

// Draw selects one prize using a uniform sample u in [0,1).
//
// The catalog is walked accumulating weights; the first prize whose
// cumulative weight reaches u wins. If rounding leaves u unmatched the last
// entry is returned, so a draw never fails. The draw must only run on the
// trusted side of the API boundary; neither u nor the weights are ever
// exposed to clients.
func (c Catalog) Draw(u float64) Prize {
	cumulative := 0.0
	for _, p := range c {
		cumulative += p.Weight
		if cumulative >= u {
			return p
		}
	}
	return c[len(c)-1]
}

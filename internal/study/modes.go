package study

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// parses a mode string, rejecting anything outside the closed set
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))

	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// returns the response shape the mode is served with
func (m Mode) Shape() Shape {
	if m == ModeQuiz {
		return ShapeStructured
	}

	return ShapeStream
}

func (m Mode) String() string {
	return string(m)
}

// returns the tier for an account's premium flag
func TierFor(isPremium bool) Tier {
	if isPremium {
		return TierPremium
	}

	return TierFree
}

// holds system prompts per mode plus per-tier augmentation
type Catalog struct {
	modes map[Mode]string
	tiers map[Tier]string
}

type catalogFile struct {
	Modes map[string]string `yaml:"modes"`
	Tiers map[string]string `yaml:"tiers"`
}

// loads the built-in prompt catalog
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(defaultPrompts)
}

// parses a YAML prompt catalog; every mode and tier must be present
func LoadCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse prompt catalog: %w", err)
	}

	c := &Catalog{
		modes: make(map[Mode]string, len(Modes)),
		tiers: make(map[Tier]string, 2),
	}

	for name, prompt := range file.Modes {
		mode, err := ParseMode(name)
		if err != nil {
			return nil, fmt.Errorf("prompt catalog: %w", err)
		}

		c.modes[mode] = strings.TrimSpace(prompt)
	}

	for _, mode := range Modes {
		if c.modes[mode] == "" {
			return nil, fmt.Errorf("prompt catalog: missing prompt for mode %q", mode)
		}
	}

	for _, tier := range []Tier{TierFree, TierPremium} {
		text := strings.TrimSpace(file.Tiers[string(tier)])
		if text == "" {
			return nil, fmt.Errorf("prompt catalog: missing augmentation for tier %q", tier)
		}

		c.tiers[tier] = text
	}

	return c, nil
}

// builds the system prompt for a mode and tier
func (c *Catalog) SystemPrompt(mode Mode, tier Tier) string {
	base := c.modes[mode]

	extra, ok := c.tiers[tier]
	if !ok {
		return base
	}

	return base + "\n\n" + extra
}

package config

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// PlaceholderTemplate describes one synthesized event shown by the upcoming
// events endpoint while the events collection is still empty.
type PlaceholderTemplate struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Venue       string `yaml:"venue"`
	DurationMin int    `yaml:"duration_min"`
}

// DefaultPlaceholders is used when no template file is configured.
func DefaultPlaceholders() []PlaceholderTemplate {
	return []PlaceholderTemplate{
		{Title: "Community Meetup", Description: "Meet your neighbours and hear what is planned.", Venue: "Main Hall", DurationMin: 120},
		{Title: "Study Session", Description: "Quiet co-working for students and remote workers.", Venue: "Library Room 2", DurationMin: 180},
		{Title: "Open Sports Night", Description: "Drop-in games, all levels welcome.", Venue: "Sports Court", DurationMin: 90},
	}
}

// LoadPlaceholders reads templates from a YAML file shaped as
//
//	placeholders:
//	  - title: ...
//	    venue: ...
//
// An empty path or a missing file yields the defaults.
func LoadPlaceholders(path string) ([]PlaceholderTemplate, error) {
	if path == "" {
		return DefaultPlaceholders(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultPlaceholders(), nil
		}
		return nil, err
	}
	var doc struct {
		Placeholders []PlaceholderTemplate `yaml:"placeholders"`
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &doc); err != nil {
		return nil, err
	}
	if len(doc.Placeholders) == 0 {
		return DefaultPlaceholders(), nil
	}
	for i := range doc.Placeholders {
		if doc.Placeholders[i].DurationMin <= 0 {
			doc.Placeholders[i].DurationMin = 60
		}
	}
	return doc.Placeholders, nil
}

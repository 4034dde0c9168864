package navigation

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// MenuLink is one sibling-app link.
type MenuLink struct {
	Label string `yaml:"label"`
	Href  string `yaml:"href"`
}

// Menu is the content of the navigation bar.
type Menu struct {
	Dashboard   string     `yaml:"dashboard"`
	BackLabel   string     `yaml:"back_label"`
	Links       []MenuLink `yaml:"links"`
	LogoutLabel string     `yaml:"logout_label"`
}

// DefaultMenu links the dashboard and the three portal apps.
func DefaultMenu() Menu {
	return Menu{
		Dashboard: "dashboard.html",
		BackLabel: "← Tilbage til Dashboard",
		Links: []MenuLink{
			{Label: "📊 Projektplanner", Href: "projektplanner.html"},
			{Label: "📝 Referat", Href: "referat.html"},
			{Label: "👥 Kundestatus", Href: "kundestatus.html"},
		},
		LogoutLabel: "🚪 Log ud",
	}
}

// LoadMenu reads a YAML menu. Keys left out keep their DefaultMenu value.
func LoadMenu(r io.Reader) (Menu, error) {
	m := DefaultMenu()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return Menu{}, fmt.Errorf("failed to parse navigation menu: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Menu{}, err
	}
	return m, nil
}

// LoadMenuFile reads a YAML menu from path.
func LoadMenuFile(path string) (Menu, error) {
	f, err := os.Open(path)
	if err != nil {
		return Menu{}, fmt.Errorf("failed to open navigation menu: %w", err)
	}
	defer f.Close()
	return LoadMenu(f)
}

// Validate checks that every destination is set.
func (m Menu) Validate() error {
	if m.Dashboard == "" {
		return errors.New("navigation menu: dashboard is required")
	}
	for i, l := range m.Links {
		if l.Label == "" || l.Href == "" {
			return fmt.Errorf("navigation menu: link %d needs both label and href", i)
		}
	}
	return nil
}

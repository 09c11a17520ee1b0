// Package profile holds named client connection presets and an interactive
// picker for when --target is omitted, adapted from the teacher's
// sender.Profile/MergeConfig pattern in internal/cli/sender/config.go.
package profile

import (
	"fmt"

	"github.com/charmbracelet/huh"
)

// Profile is one named preset for push/pull/peek invocations.
type Profile struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description,omitempty"`
	Target       string   `yaml:"target"` // user@host or user@host:port
	Port         int      `yaml:"port,omitempty"`
	IdentityFile string   `yaml:"identity,omitempty"`
	Options      []string `yaml:"options,omitempty"`
}

// TopLevel holds the client defaults a profile can override, mirroring the
// teacher's two-tier SenderConfig/Profile merge.
type TopLevel struct {
	IdentityFile string    `yaml:"identity,omitempty"`
	Options      []string  `yaml:"options,omitempty"`
	Profiles     []Profile `yaml:"profiles,omitempty"`
}

// Merge layers profile settings over the top-level defaults; profile fields
// win whenever they're set.
func Merge(top *TopLevel, p *Profile) Profile {
	merged := Profile{}
	if top != nil {
		merged.IdentityFile = top.IdentityFile
		merged.Options = top.Options
	}
	if p != nil {
		merged.Name = p.Name
		merged.Description = p.Description
		merged.Target = p.Target
		merged.Port = p.Port
		if p.IdentityFile != "" {
			merged.IdentityFile = p.IdentityFile
		}
		if len(p.Options) > 0 {
			merged.Options = p.Options
		}
	}
	return merged
}

// Find returns the named profile, or false if no profile with that name
// exists.
func Find(top *TopLevel, name string) (Profile, bool) {
	if top == nil {
		return Profile{}, false
	}
	for _, p := range top.Profiles {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}

// Pick renders an interactive selector over the configured profiles using
// huh, for the case where --target was omitted but named profiles exist.
// It returns the chosen profile's name.
func Pick(top *TopLevel) (string, error) {
	if top == nil || len(top.Profiles) == 0 {
		return "", fmt.Errorf("no profiles configured")
	}
	options := make([]huh.Option[string], 0, len(top.Profiles))
	for _, p := range top.Profiles {
		label := p.Name
		if p.Description != "" {
			label = fmt.Sprintf("%s — %s", p.Name, p.Description)
		}
		options = append(options, huh.NewOption(label, p.Name))
	}

	var chosen string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select a target profile").
				Options(options...).
				Value(&chosen),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("profile picker: %w", err)
	}
	return chosen, nil
}

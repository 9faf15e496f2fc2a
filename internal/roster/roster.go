// Package roster resolves the set of staff members to aggregate. A roster
// comes either from a YAML file, which can carry display names and ICS feed
// URLs, or from a flat email list in the environment.
package roster

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Entry is one staff member.
type Entry struct {
	// ID is the staff identity used by calendar sources, normally the
	// primary email address.
	ID string `yaml:"id"`
	// Name overrides the display name derived from the id. Optional.
	Name string `yaml:"name,omitempty"`
	// ICSURL is a per-staff ICS feed, used when Graph is not configured.
	ICSURL string `yaml:"ics_url,omitempty"`
}

// Roster is an ordered list of staff entries.
type Roster struct {
	Staff []Entry `yaml:"staff"`
}

// Load reads a YAML roster file.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}

	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}

	seen := make(map[string]bool, len(r.Staff))
	for i, e := range r.Staff {
		if e.ID == "" {
			return nil, fmt.Errorf("roster entry %d has no id", i)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("duplicate roster entry %q", e.ID)
		}
		seen[e.ID] = true
	}
	return &r, nil
}

// FromEmails builds a roster from a flat email list.
func FromEmails(emails []string) *Roster {
	r := &Roster{Staff: make([]Entry, 0, len(emails))}
	for _, email := range emails {
		r.Staff = append(r.Staff, Entry{ID: email})
	}
	return r
}

// IDs returns the staff ids in roster order.
func (r *Roster) IDs() []string {
	ids := make([]string, len(r.Staff))
	for i, e := range r.Staff {
		ids[i] = e.ID
	}
	return ids
}

// Names returns explicit display name overrides keyed by staff id. Entries
// without a Name are absent; their display names are derived downstream.
func (r *Roster) Names() map[string]string {
	names := make(map[string]string)
	for _, e := range r.Staff {
		if e.Name != "" {
			names[e.ID] = e.Name
		}
	}
	return names
}

// Feeds returns the staff id to ICS feed URL mapping for entries that have
// one.
func (r *Roster) Feeds() map[string]string {
	feeds := make(map[string]string)
	for _, e := range r.Staff {
		if e.ICSURL != "" {
			feeds[e.ID] = e.ICSURL
		}
	}
	return feeds
}

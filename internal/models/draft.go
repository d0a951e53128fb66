package models

import "strings"

// Draft accumulates roster names while a team is being edited.
type Draft struct {
	names []string
}

// NewDraft seeds a draft from an existing roster.
func NewDraft(players []Player) *Draft {
	d := &Draft{names: make([]string, 0, MaxRosterSize)}
	for _, p := range players {
		d.names = append(d.names, p.Name)
	}
	return d
}

// Add appends a player name. Blank names are ignored; a name beyond the
// roster limit is rejected with ErrRosterFull.
func (d *Draft) Add(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if len(d.names) >= MaxRosterSize {
		return ErrRosterFull
	}
	d.names = append(d.names, name)
	return nil
}

func (d *Draft) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

func (d *Draft) Len() int { return len(d.names) }

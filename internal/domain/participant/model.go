package participant

import (
	"sort"
	"strings"
	"time"
)

// Participant is a registered Secret Santa member. ID is the Telegram user
// ID and doubles as the direct-message chat ID.
type Participant struct {
	ID           int64     `json:"tg_id"`
	Username     string    `json:"username,omitempty"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	FullName     string    `json:"full_name,omitempty"`
	Group        string    `json:"group,omitempty"`
	Room         string    `json:"room,omitempty"`
	Wishes       string    `json:"wishes"`
	RegisteredAt time.Time `json:"registered_at"`
	Assigned     *Assigned `json:"assigned,omitempty"`
}

// Assigned is the giver-side snapshot of the recipient taken at
// distribution time.
type Assigned struct {
	ID         int64     `json:"tg_id"`
	Username   string    `json:"username,omitempty"`
	FullName   string    `json:"full_name"`
	Group      string    `json:"group,omitempty"`
	Room       string    `json:"room,omitempty"`
	Wishes     string    `json:"wishes"`
	AssignedAt time.Time `json:"assigned_at"`
}

// DisplayName returns the name entered during registration, falling back
// to the Telegram first and last name.
func (p *Participant) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Snapshot captures the public profile fields a giver is told about.
func (p *Participant) Snapshot(at time.Time) *Assigned {
	return &Assigned{
		ID:         p.ID,
		Username:   p.Username,
		FullName:   p.DisplayName(),
		Group:      p.Group,
		Room:       p.Room,
		Wishes:     p.Wishes,
		AssignedAt: at,
	}
}

// Set is the whole participant collection keyed by ID.
type Set map[int64]*Participant

// IDs returns participant IDs ordered by registration time, ties broken by
// ID, so that pairing and notification order are reproducible.
func (s Set) IDs() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ti, tj := s[ids[i]].RegisteredAt, s[ids[j]].RegisteredAt
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return ids[i] < ids[j]
	})
	return ids
}

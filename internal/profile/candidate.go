package profile

import (
	"sort"
	"strings"
	"time"

	"github.com/spigell/hh-matcher/internal/geo"
)

type TransportMode string

const (
	Driving TransportMode = "driving"
	Transit TransportMode = "transit"
	Cycling TransportMode = "cycling"
	Walking TransportMode = "walking"
)

// TransportModes lists every supported mode in canonical order.
var TransportModes = []TransportMode{Driving, Transit, Cycling, Walking}

type Location struct {
	Point   *geo.Point `json:"coordinates,omitempty"`
	Address string     `json:"address,omitempty"`
}

func (l Location) HasPoint() bool {
	return l.Point != nil
}

type Skill struct {
	Name        string  `json:"name" validate:"required"`
	Proficiency float64 `json:"proficiency,omitempty" validate:"gte=0,lte=1"`
}

type Position struct {
	Title            string   `json:"title"`
	Company          string   `json:"company,omitempty"`
	Industry         string   `json:"industry,omitempty"`
	Start            Date     `json:"start"`
	End              Date     `json:"end,omitempty"`
	Responsibilities string   `json:"responsibilities,omitempty"`
	Skills           []string `json:"skills,omitempty"`
}

// Current reports whether the position has no end date.
func (p Position) Current() bool {
	return p.End.IsZero()
}

// Years returns the position length in years, counting open positions up to now.
func (p Position) Years(now time.Time) float64 {
	if p.Start.IsZero() {
		return 0
	}
	end := p.End.Or(now)
	if end.Before(p.Start.Time) {
		return 0
	}
	return end.Sub(p.Start.Time).Hours() / 24 / 365.25
}

// YearsSinceEnd returns 0 for current positions.
func (p Position) YearsSinceEnd(now time.Time) float64 {
	if p.Current() || p.End.After(now) {
		return 0
	}
	return now.Sub(p.End.Time).Hours() / 24 / 365.25
}

type Education struct {
	Degree      string `json:"degree,omitempty"`
	Field       string `json:"field,omitempty"`
	Institution string `json:"institution,omitempty"`
	Year        int    `json:"year,omitempty"`
}

type Availability struct {
	EarliestStart Date    `json:"earliestStart,omitempty"`
	LatestStart   Date    `json:"latestStart,omitempty"`
	WorkPattern   string  `json:"workPattern,omitempty" validate:"omitempty,oneof=traditional flexible hybrid startup retail"`
	RemotePref    string  `json:"remotePreference,omitempty" validate:"omitempty,oneof=onsite hybrid remote any"`
	MaxTravel     float64 `json:"maxTravelPercent,omitempty" validate:"gte=0,lte=100"`
	Overtime      string  `json:"overtime,omitempty" validate:"omitempty,oneof=none occasional frequent"`
	NoticeWeeks   int     `json:"noticeWeeks,omitempty" validate:"gte=0"`
}

type Personality struct {
	Values        []string `json:"values,omitempty"`
	WorkStyle     string   `json:"workStyle,omitempty"`
	TeamPref      string   `json:"teamPreference,omitempty"`
	Communication string   `json:"communicationStyle,omitempty"`
	Adaptability  float64  `json:"adaptability,omitempty" validate:"gte=0,lte=1"`
}

type Candidate struct {
	ID             string          `json:"id" validate:"required"`
	Skills         []Skill         `json:"skills,omitempty" validate:"dive"`
	Positions      []Position      `json:"positions,omitempty"`
	Education      []Education     `json:"education,omitempty"`
	Home           Location        `json:"home"`
	PreferredModes []TransportMode `json:"preferredModes,omitempty" validate:"dive,oneof=driving transit cycling walking"`
	Availability   *Availability   `json:"availability,omitempty"`
	Personality    *Personality    `json:"personality,omitempty"`
}

// SortedPositions returns positions ordered most recent first. Current positions lead.
func (c *Candidate) SortedPositions() []Position {
	out := make([]Position, len(c.Positions))
	copy(out, c.Positions)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Current() != b.Current() {
			return a.Current()
		}
		if !a.End.Equal(b.End.Time) {
			return a.End.After(b.End.Time)
		}
		return a.Start.After(b.Start.Time)
	})

	return out
}

// Title returns the most recent position title.
func (c *Candidate) Title() string {
	positions := c.SortedPositions()
	if len(positions) == 0 {
		return ""
	}
	return positions[0].Title
}

func (c *Candidate) SkillNames() []string {
	names := make([]string, 0, len(c.Skills))
	for _, s := range c.Skills {
		names = append(names, s.Name)
	}
	return names
}

// Responsibilities joins all position responsibilities, most recent first.
func (c *Candidate) Responsibilities() string {
	var parts []string
	for _, p := range c.SortedPositions() {
		if text := strings.TrimSpace(p.Responsibilities); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, ". ")
}

// PrefersMode returns the preference rank of mode (0 is primary), or -1.
func (c *Candidate) PrefersMode(mode TransportMode) int {
	for i, m := range c.PreferredModes {
		if m == mode {
			return i
		}
	}
	return -1
}

// PrimaryMode returns the first preferred mode, or "" when none is set.
func (c *Candidate) PrimaryMode() TransportMode {
	if len(c.PreferredModes) == 0 {
		return ""
	}
	return c.PreferredModes[0]
}

// Industry returns the industry of the most recent position carrying one.
func (c *Candidate) Industry() string {
	for _, p := range c.SortedPositions() {
		if p.Industry != "" {
			return p.Industry
		}
	}
	return ""
}

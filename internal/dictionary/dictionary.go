// Package dictionary holds the versioned lookup tables used by the semantic and
// experience criteria: synonym clusters, the skill hierarchy, industry affinity,
// seniority ranks and leadership vocabulary. Tables are read once and never mutated.
package dictionary

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spigell/hh-matcher/internal/textsim"
)

//go:embed default.yaml
var defaultTables []byte

// DefaultRank is the rank of a title carrying no rank token.
const DefaultRank = 2

type file struct {
	Version         string                `yaml:"version"`
	PartialCredit   float64               `yaml:"partial_credit"`
	DefaultAffinity float64               `yaml:"default_affinity"`
	Synonyms        map[string][][]string `yaml:"synonyms"`
	Hierarchy       map[string]string     `yaml:"hierarchy"`
	Industries      struct {
		Aliases  map[string]string `yaml:"aliases"`
		Affinity [][]any           `yaml:"affinity"`
	} `yaml:"industries"`
	TitleRanks         map[string]int `yaml:"title_ranks"`
	LeadershipKeywords []string       `yaml:"leadership_keywords"`
}

type pair struct{ a, b string }

type Dictionary struct {
	version         string
	partialCredit   float64
	defaultAffinity float64
	canonical       map[string]string
	parent          map[string]string
	aliases         map[string]string
	affinity        map[pair]float64
	ranks           map[string]int
	leadership      []string
}

// Default returns the tables embedded in the binary.
func Default() *Dictionary {
	d, err := Load(defaultTables)
	if err != nil {
		panic(fmt.Sprintf("embedded dictionary is broken: %v", err))
	}
	return d
}

// LoadFile reads tables from path.
func LoadFile(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary %s: %w", path, err)
	}
	return Load(data)
}

func Load(data []byte) (*Dictionary, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode dictionary: %w", err)
	}

	if f.Version == "" {
		return nil, fmt.Errorf("dictionary version is required")
	}
	if f.PartialCredit <= 0 || f.PartialCredit >= 1 {
		return nil, fmt.Errorf("partial_credit must be in (0,1), got %v", f.PartialCredit)
	}

	d := &Dictionary{
		version:         f.Version,
		partialCredit:   f.PartialCredit,
		defaultAffinity: f.DefaultAffinity,
		canonical:       make(map[string]string),
		parent:          make(map[string]string),
		aliases:         make(map[string]string),
		affinity:        make(map[pair]float64),
		ranks:           make(map[string]int),
	}

	for _, clusters := range f.Synonyms {
		for _, cluster := range clusters {
			if len(cluster) == 0 {
				continue
			}
			head := textsim.Normalize(cluster[0])
			for _, term := range cluster {
				d.canonical[textsim.Normalize(term)] = head
			}
		}
	}

	for child, parent := range f.Hierarchy {
		d.parent[d.Canonical(child)] = d.Canonical(parent)
	}
	if err := d.checkHierarchy(); err != nil {
		return nil, err
	}

	for alias, industry := range f.Industries.Aliases {
		d.aliases[textsim.Normalize(alias)] = textsim.Normalize(industry)
	}
	for i, row := range f.Industries.Affinity {
		if len(row) != 3 {
			return nil, fmt.Errorf("affinity row %d: want [industry, industry, score]", i)
		}
		a, okA := row[0].(string)
		b, okB := row[1].(string)
		score, okS := toFloat(row[2])
		if !okA || !okB || !okS || score < 0 || score > 1 {
			return nil, fmt.Errorf("affinity row %d is malformed: %v", i, row)
		}
		d.affinity[orderedPair(d.industry(a), d.industry(b))] = score
	}

	for token, rank := range f.TitleRanks {
		d.ranks[textsim.Normalize(token)] = rank
	}
	for _, kw := range f.LeadershipKeywords {
		d.leadership = append(d.leadership, textsim.Normalize(kw))
	}

	return d, nil
}

func (d *Dictionary) Version() string {
	return d.version
}

// PartialCredit is the similarity granted per hierarchy edge.
func (d *Dictionary) PartialCredit() float64 {
	return d.partialCredit
}

// Canonical normalizes term and maps it to the head of its synonym cluster.
func (d *Dictionary) Canonical(term string) string {
	n := textsim.Normalize(term)
	if head, ok := d.canonical[n]; ok {
		return head
	}
	return n
}

// Ancestors returns the canonical parents of term, nearest first.
func (d *Dictionary) Ancestors(term string) []string {
	var out []string
	cur := d.Canonical(term)
	for {
		p, ok := d.parent[cur]
		if !ok {
			return out
		}
		out = append(out, p)
		cur = p
	}
}

// Related returns the similarity implied by the tables alone: 1.0 for synonyms,
// PartialCredit^depth when one term is an ancestor of the other. ok is false
// when the tables say nothing about the pair.
func (d *Dictionary) Related(a, b string) (score float64, ok bool) {
	ca, cb := d.Canonical(a), d.Canonical(b)
	if ca == "" || cb == "" {
		return 0, false
	}
	if ca == cb {
		return 1, true
	}

	if depth := indexOf(d.Ancestors(ca), cb); depth >= 0 {
		return math.Pow(d.partialCredit, float64(depth+1)), true
	}
	if depth := indexOf(d.Ancestors(cb), ca); depth >= 0 {
		return math.Pow(d.partialCredit, float64(depth+1)), true
	}

	return 0, false
}

// Affinity returns the transferability between two industries in [0,1].
// Unknown or empty industries yield 0.5 since nothing is known about them.
func (d *Dictionary) Affinity(a, b string) float64 {
	ia, ib := d.industry(a), d.industry(b)
	if ia == "" || ib == "" {
		return 0.5
	}
	if ia == ib {
		return 1
	}
	if v, ok := d.affinity[orderedPair(ia, ib)]; ok {
		return v
	}
	return d.defaultAffinity
}

// SameIndustry reports whether both industries resolve to the same name.
func (d *Dictionary) SameIndustry(a, b string) bool {
	ia := d.industry(a)
	return ia != "" && ia == d.industry(b)
}

// TitleRank returns the highest rank among the title tokens.
func (d *Dictionary) TitleRank(title string) int {
	best := -1
	for _, tok := range strings.Fields(textsim.Normalize(title)) {
		if r, ok := d.ranks[tok]; ok && r > best {
			best = r
		}
	}
	if best < 0 {
		return DefaultRank
	}
	return best
}

func (d *Dictionary) LeadershipKeywords() []string {
	out := make([]string, len(d.leadership))
	copy(out, d.leadership)
	return out
}

func (d *Dictionary) industry(name string) string {
	n := textsim.Normalize(name)
	if v, ok := d.aliases[n]; ok {
		return v
	}
	return n
}

func (d *Dictionary) checkHierarchy() error {
	for start := range d.parent {
		seen := map[string]struct{}{start: {}}
		cur := start
		for {
			p, ok := d.parent[cur]
			if !ok {
				break
			}
			if _, loop := seen[p]; loop {
				return fmt.Errorf("skill hierarchy has a cycle through %q", start)
			}
			seen[p] = struct{}{}
			cur = p
		}
	}
	return nil
}

func orderedPair(a, b string) pair {
	if a > b {
		a, b = b, a
	}
	return pair{a: a, b: b}
}

func indexOf(items []string, target string) int {
	for i, v := range items {
		if v == target {
			return i
		}
	}
	return -1
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

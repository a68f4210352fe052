package dictionary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLoads(t *testing.T) {
	t.Parallel()

	d := Default()
	assert.NotEmpty(t, d.Version())
	assert.InDelta(t, 0.88, d.PartialCredit(), 1e-9)
	assert.NotEmpty(t, d.LeadershipKeywords())
}

func TestCanonical(t *testing.T) {
	t.Parallel()

	d := Default()
	assert.Equal(t, "javascript", d.Canonical("JS"))
	assert.Equal(t, "kubernetes", d.Canonical("k8s"))
	assert.Equal(t, "marketing director", d.Canonical("Director of Marketing"))
	assert.Equal(t, "welding", d.Canonical("Welding!"))
}

func TestRelated(t *testing.T) {
	t.Parallel()

	d := Default()

	tests := []struct {
		name  string
		a, b  string
		want  float64
		found bool
	}{
		{name: "synonym", a: "Postgres", b: "PostgreSQL", want: 1, found: true},
		{name: "parent", a: "React", b: "JavaScript", want: 0.88, found: true},
		{name: "reverse parent", a: "javascript", b: "react", want: 0.88, found: true},
		{name: "grandparent", a: "react", b: "programming", want: 0.88 * 0.88, found: true},
		{name: "alias then parent", a: "k8s", b: "containers", want: 0.88, found: true},
		{name: "siblings are unknown", a: "react", b: "vue", found: false},
		{name: "unrelated", a: "welding", b: "react", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := d.Related(tt.a, tt.b)
			assert.Equal(t, tt.found, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestAffinity(t *testing.T) {
	t.Parallel()

	d := Default()
	assert.Equal(t, 1.0, d.Affinity("Luxury", "luxury retail"))
	assert.InDelta(t, 0.85, d.Affinity("retail", "luxury retail"), 1e-9)
	assert.InDelta(t, 0.85, d.Affinity("luxury retail", "retail"), 1e-9)
	assert.InDelta(t, 0.3, d.Affinity("luxury retail", "heavy manufacturing"), 1e-9)
	assert.Equal(t, 0.5, d.Affinity("", "retail"))
	assert.True(t, d.SameIndustry("luxury goods", "Luxury Retail"))
	assert.False(t, d.SameIndustry("", ""))
}

func TestTitleRank(t *testing.T) {
	t.Parallel()

	d := Default()
	assert.Equal(t, 0, d.TitleRank("Marketing Intern"))
	assert.Equal(t, 2, d.TitleRank("Sales Associate"))
	assert.Equal(t, 3, d.TitleRank("Senior Sales Associate"))
	assert.Equal(t, 4, d.TitleRank("Office Manager"))
	assert.Equal(t, 5, d.TitleRank("Director of Marketing, Luxury Sector"))
	assert.Equal(t, 6, d.TitleRank("Chief Operating Officer"))
	assert.Equal(t, DefaultRank, d.TitleRank("Welder"))
}

func TestLoadRejects(t *testing.T) {
	t.Parallel()

	_, err := Load([]byte("partial_credit: 0.8"))
	assert.ErrorContains(t, err, "version")

	_, err = Load([]byte("version: x\npartial_credit: 1.5"))
	assert.ErrorContains(t, err, "partial_credit")

	_, err = Load([]byte("version: x\npartial_credit: 0.8\nhierarchy:\n  a: b\n  b: a\n"))
	assert.ErrorContains(t, err, "cycle")

	_, err = Load([]byte("version: x\npartial_credit: 0.8\nindustries:\n  affinity:\n    - [a, b]\n"))
	require.Error(t, err)
}

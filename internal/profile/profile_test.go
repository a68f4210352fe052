package profile

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/hh-matcher/internal/geo"
	"github.com/spigell/hh-matcher/internal/match"
)

func sampleCandidate() *Candidate {
	return &Candidate{
		ID: "cand-1",
		Skills: []Skill{
			{Name: "Budgeting", Proficiency: 0.8},
			{Name: "Team Leadership", Proficiency: 0.9},
		},
		Positions: []Position{
			{Title: "Store Assistant", Industry: "retail", Start: NewDate(2008, 1, 1), End: NewDate(2012, 1, 1)},
			{Title: "Office Manager", Industry: "luxury retail", Start: NewDate(2012, 1, 1), Responsibilities: "Run the office"},
		},
		Home:           Location{Point: &geo.Point{Lat: 48.86, Lon: 2.35}, Address: "Paris"},
		PreferredModes: []TransportMode{Transit, Walking},
	}
}

func TestDateUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{name: "day", in: `"2020-03-15"`, want: time.Date(2020, 3, 15, 0, 0, 0, 0, time.UTC)},
		{name: "month", in: `"2020-03"`, want: time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)},
		{name: "rfc3339", in: `"2020-03-15T10:00:00Z"`, want: time.Date(2020, 3, 15, 10, 0, 0, 0, time.UTC)},
		{name: "empty", in: `""`, want: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var d Date
			require.NoError(t, json.Unmarshal([]byte(tt.in), &d))
			assert.True(t, tt.want.Equal(d.Time), "got %v", d.Time)
		})
	}

	var d Date
	assert.Error(t, json.Unmarshal([]byte(`"15/03/2020"`), &d))
}

func TestCandidateAccessors(t *testing.T) {
	t.Parallel()

	c := sampleCandidate()
	assert.Equal(t, "Office Manager", c.Title())
	assert.Equal(t, "luxury retail", c.Industry())
	assert.Equal(t, Transit, c.PrimaryMode())
	assert.Equal(t, 1, c.PrefersMode(Walking))
	assert.Equal(t, -1, c.PrefersMode(Driving))
	assert.Equal(t, []string{"Budgeting", "Team Leadership"}, c.SkillNames())

	now := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	past := c.Positions[0]
	assert.InDelta(t, 4.0, past.Years(now), 0.01)
	assert.InDelta(t, 10.0, past.YearsSinceEnd(now), 0.01)
	assert.Zero(t, c.Positions[1].YearsSinceEnd(now))
}

func TestFingerprintChangesWithInput(t *testing.T) {
	t.Parallel()

	a := sampleCandidate()
	b := sampleCandidate()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.Skills[0].Proficiency = 0.5
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())

	var none *Company
	assert.Equal(t, none.Fingerprint(), none.Fingerprint())
	assert.NotEqual(t, Hash("a", "bc"), Hash("ab", "c"))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, sampleCandidate().Validate())

	missingID := sampleCandidate()
	missingID.ID = ""
	assert.ErrorIs(t, missingID.Validate(), match.ErrInvalidInput)

	badLat := sampleCandidate()
	badLat.Home.Point = &geo.Point{Lat: 120, Lon: 0}
	assert.ErrorIs(t, badLat.Validate(), match.ErrInvalidInput)

	badMode := sampleCandidate()
	badMode.PreferredModes = []TransportMode{"teleport"}
	assert.ErrorIs(t, badMode.Validate(), match.ErrInvalidInput)

	var nilJob *Job
	assert.ErrorIs(t, nilJob.Validate(), match.ErrInvalidInput)

	job := &Job{ID: "job-1", Seniority: "wizard"}
	assert.ErrorIs(t, job.Validate(), match.ErrInvalidInput)
}

func TestDecodeRequest(t *testing.T) {
	t.Parallel()

	doc := `{
	  "candidate": {"id": "c1", "positions": [{"title": "Analyst", "start": "2019-01"}],
	                "home": {"coordinates": {"lat": 48.8, "lon": 2.3}}},
	  "job": {"id": "j1", "title": "Senior Analyst", "remotePolicy": "hybrid"},
	  "options": {"maxResults": 3}
	}`

	req, err := DecodeRequest([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "c1", req.Candidate.ID)
	assert.Equal(t, "Analyst", req.Candidate.Title())
	require.Len(t, req.AllJobs(), 1)
	assert.Equal(t, RemoteHybrid, req.Job.RemotePolicy)
	assert.EqualValues(t, 3, req.Options["maxResults"])
}

func TestDecodeRequestRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{name: "not json", doc: `{`},
		{name: "no candidate", doc: `{"job": {"id": "j1"}}`},
		{name: "no job", doc: `{"candidate": {"id": "c1"}}`},
		{name: "bad mode", doc: `{"candidate": {"id": "c1", "preferredModes": ["boat"]}, "job": {"id": "j1"}}`},
		{name: "bad seniority", doc: `{"candidate": {"id": "c1"}, "job": {"id": "j1", "seniority": "wizard"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := DecodeRequest([]byte(tt.doc))
			assert.ErrorIs(t, err, match.ErrInvalidInput)
		})
	}
}

func TestCultureFor(t *testing.T) {
	t.Parallel()

	company := &Company{Culture: &Culture{WorkStyle: "collaborative"}}
	job := &Job{ID: "j"}
	assert.Equal(t, company.Culture, CultureFor(job, company))

	job.Culture = &Culture{WorkStyle: "independent"}
	assert.Equal(t, job.Culture, CultureFor(job, company))
	assert.Nil(t, CultureFor(&Job{}, nil))
}

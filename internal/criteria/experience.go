package criteria

import (
	"context"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/hh-matcher/internal/dictionary"
	"github.com/spigell/hh-matcher/internal/logger"
	"github.com/spigell/hh-matcher/internal/match"
	"github.com/spigell/hh-matcher/internal/profile"
	"github.com/spigell/hh-matcher/internal/textsim"
)

// Experience sub-score weights.
const (
	YearsWeight         = 0.35
	ProgressionWeight   = 0.25
	TransferWeight      = 0.20
	LeadershipWeight    = 0.15
	SkillsOverlapWeight = 0.05

	// DecayFloor is the minimum relevance of any past position.
	DecayFloor = 0.30
	// DecayPerYear is the relevance lost per year since a position ended.
	DecayPerYear = 0.07

	// managerRank is the first rank that requires leadership scope.
	managerRank = 4
	// topLevelSkillCredit is granted to a skill listed only on the profile, not on a position.
	topLevelSkillCredit = 0.6
	leadershipFullYears = 5.0
	leadershipFullTerms = 4.0
)

var experienceWeights = []subWeight{
	{"years", YearsWeight},
	{"progression", ProgressionWeight},
	{"transfer", TransferWeight},
	{"leadership", LeadershipWeight},
	{"skills", SkillsOverlapWeight},
}

var seniorityYears = map[profile.Seniority]float64{
	profile.SeniorityIntern:    0.5,
	profile.SeniorityEntry:     1,
	profile.SeniorityJunior:    2,
	profile.SeniorityMid:       4,
	profile.SenioritySenior:    7,
	profile.SeniorityLead:      8,
	profile.SeniorityManager:   8,
	profile.SeniorityDirector:  10,
	profile.SeniorityExecutive: 12,
}

var seniorityRank = map[profile.Seniority]int{
	profile.SeniorityIntern:    0,
	profile.SeniorityEntry:     1,
	profile.SeniorityJunior:    1,
	profile.SeniorityMid:       2,
	profile.SenioritySenior:    3,
	profile.SeniorityLead:      4,
	profile.SeniorityManager:   4,
	profile.SeniorityDirector:  5,
	profile.SeniorityExecutive: 6,
}

// rankYears is used when a job names neither seniority nor required years.
var rankYears = []float64{0.5, 1, 4, 7, 8, 10, 12}

// Decay returns the relevance weight of a position that ended yearsSinceEnd ago.
func Decay(yearsSinceEnd float64) float64 {
	if yearsSinceEnd < 0 {
		yearsSinceEnd = 0
	}
	return math.Max(DecayFloor, 1-yearsSinceEnd*DecayPerYear)
}

type experience struct {
	deps Deps
	log  *zap.Logger
}

func newExperience(deps Deps) *experience {
	return &experience{
		deps: deps,
		log:  logger.WithFields(deps.Logger, logger.CriterionFields(string(match.Experience), 0)...),
	}
}

func (e *experience) sealed() {}

func (e *experience) Criterion() match.Criterion { return match.Experience }

// Variant includes the evaluation date since decay depends on it.
func (e *experience) Variant(in Input) []string {
	return []string{in.Now.UTC().Format("2006-01-02"), e.deps.Dictionary.Version()}
}

func (e *experience) Status() Status {
	return Status{
		Name:    string(match.Experience),
		Enabled: true,
		Details: map[string]string{"dictionary": e.deps.Dictionary.Version()},
	}
}

func (e *experience) Evaluate(_ context.Context, in Input) (*match.CriterionResult, error) {
	return e.score(in), nil
}

func (e *experience) Fallback(in Input) *match.CriterionResult {
	res := e.score(in)
	res.Confidence = match.ConfidenceFallback
	return res
}

type weightedPosition struct {
	profile.Position
	years, decay, affinity float64
	rank                   int
}

func (e *experience) score(in Input) *match.CriterionResult {
	dict := e.deps.Dictionary
	cand, job := in.Candidate, in.Job
	res := newResult(match.Experience)
	res.Details["engine"] = "dictionary"

	positions := make([]weightedPosition, 0, len(cand.Positions))
	for _, p := range cand.SortedPositions() {
		positions = append(positions, weightedPosition{
			Position: p,
			years:    p.Years(in.Now),
			decay:    Decay(p.YearsSinceEnd(in.Now)),
			affinity: dict.Affinity(p.Industry, job.Industry),
			rank:     dict.TitleRank(p.Title),
		})
	}
	if len(positions) == 0 {
		res.Confidence = match.ConfidenceDegraded
		res.Details["reason"] = "no positions"
	}

	jobRank := jobRank(dict, job)
	required := requiredYears(job, jobRank)

	// Time spent well below the opening's level counts for less.
	effective := 0.0
	for _, p := range positions {
		effective += p.years * p.decay * p.affinity * readiness(jobRank-p.rank)
	}
	years := 1.0
	if required > 0 {
		years = math.Min(1, effective/required)
	}

	res.SubScores["years"] = years
	res.SubScores["progression"] = progression(positions, jobRank)
	res.SubScores["transfer"] = transferability(dict, positions, job)
	res.SubScores["leadership"] = leadership(dict, positions, jobRank)
	res.SubScores["skills"] = skillsOverlap(dict, cand, positions, job)
	res.Score = weighted(res.SubScores, experienceWeights)

	res.Details["jobRank"] = strconv.Itoa(jobRank)
	res.Details["requiredYears"] = strconv.FormatFloat(required, 'f', 1, 64)
	res.Details["relevantYears"] = strconv.FormatFloat(effective, 'f', 1, 64)
	if len(positions) > 0 {
		res.Details["currentRank"] = strconv.Itoa(positions[0].rank)
	}

	e.log.Debug("experience evaluated",
		zap.Float64("relevant_years", effective),
		zap.Float64("required_years", required),
		zap.Int("job_rank", jobRank),
	)
	return res
}

func jobRank(dict *dictionary.Dictionary, job *profile.Job) int {
	if r, ok := seniorityRank[job.Seniority]; ok {
		return r
	}
	return dict.TitleRank(job.Title)
}

func requiredYears(job *profile.Job, rank int) float64 {
	if job.RequiredYears > 0 {
		return job.RequiredYears
	}
	if y, ok := seniorityYears[job.Seniority]; ok {
		return y
	}
	rank = max(0, min(rank, len(rankYears)-1))
	return rankYears[rank]
}

// progression blends the rank trend across positions with readiness for the job rank.
// positions are ordered most recent first.
func progression(positions []weightedPosition, jobRank int) float64 {
	if len(positions) == 0 {
		return 0.5*0.5 + 0.5*readiness(jobRank)
	}

	trend := 0.6
	if n := len(positions); n > 1 {
		ups, downs := 0, 0
		for i := n - 1; i > 0; i-- {
			older, newer := positions[i].rank, positions[i-1].rank
			switch {
			case newer > older:
				ups++
			case newer < older:
				downs++
			}
		}
		trend = 0.5 + float64(ups-downs)/float64(2*(n-1))
	}

	return 0.5*trend + 0.5*readiness(jobRank-positions[0].rank)
}

// readiness maps the rank gap between the opening and a position onto [0.2, 1].
func readiness(gap int) float64 {
	switch {
	case gap <= 0:
		return 1
	case gap == 1:
		return 0.8
	case gap == 2:
		return 0.5
	default:
		return 0.2
	}
}

func transferability(dict *dictionary.Dictionary, positions []weightedPosition, job *profile.Job) float64 {
	if len(positions) == 0 {
		return dict.Affinity("", job.Industry)
	}
	total, weights := 0.0, 0.0
	for _, p := range positions {
		total += p.decay * p.affinity
		weights += p.decay
	}
	return total / weights
}

// leadership compares candidate scope against the level the job rank needs.
func leadership(dict *dictionary.Dictionary, positions []weightedPosition, jobRank int) float64 {
	if jobRank < managerRank {
		return 1
	}

	leadYears := 0.0
	var text []string
	for _, p := range positions {
		if p.rank >= managerRank {
			leadYears += p.years
		}
		text = append(text, p.Responsibilities)
	}

	tokens := make(map[string]struct{})
	for _, tok := range textsim.Tokens(strings.Join(text, " ")) {
		tokens[tok] = struct{}{}
	}
	terms := 0
	for _, kw := range dict.LeadershipKeywords() {
		if _, ok := tokens[kw]; ok {
			terms++
		}
	}

	scope := 0.5*math.Min(1, leadYears/leadershipFullYears) + 0.5*math.Min(1, float64(terms)/leadershipFullTerms)

	needed := 0.6
	switch {
	case jobRank >= 6:
		needed = 1.0
	case jobRank == 5:
		needed = 0.8
	}
	return math.Min(1, scope/needed)
}

// skillsOverlap credits each job skill by the most recent position that used it.
func skillsOverlap(dict *dictionary.Dictionary, cand *profile.Candidate, positions []weightedPosition, job *profile.Job) float64 {
	want := job.RequiredSkills
	if len(want) == 0 {
		want = job.DesiredSkills
	}
	if len(want) == 0 {
		return match.NeutralScore
	}

	topLevel := make(map[string]struct{}, len(cand.Skills))
	for _, s := range cand.Skills {
		topLevel[dict.Canonical(s.Name)] = struct{}{}
	}

	total := 0.0
	for _, skill := range want {
		canon := dict.Canonical(skill)
		best := 0.0
		for _, p := range positions {
			if usedIn(dict, p.Position, canon) && p.decay > best {
				best = p.decay
			}
		}
		if _, ok := topLevel[canon]; ok && best < topLevelSkillCredit {
			best = topLevelSkillCredit
		}
		total += best
	}
	return total / float64(len(want))
}

func usedIn(dict *dictionary.Dictionary, p profile.Position, canon string) bool {
	for _, s := range p.Skills {
		if dict.Canonical(s) == canon {
			return true
		}
	}
	text := " " + textsim.Normalize(p.Responsibilities) + " "
	return canon != "" && strings.Contains(text, " "+canon+" ")
}

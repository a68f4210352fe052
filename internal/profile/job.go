package profile

type Seniority string

const (
	SeniorityIntern    Seniority = "intern"
	SeniorityEntry     Seniority = "entry"
	SeniorityJunior    Seniority = "junior"
	SeniorityMid       Seniority = "mid"
	SenioritySenior    Seniority = "senior"
	SeniorityLead      Seniority = "lead"
	SeniorityManager   Seniority = "manager"
	SeniorityDirector  Seniority = "director"
	SeniorityExecutive Seniority = "executive"
)

type RemotePolicy string

const (
	RemoteOnsite RemotePolicy = "onsite"
	RemoteHybrid RemotePolicy = "hybrid"
	RemoteFull   RemotePolicy = "remote"
)

type Compensation struct {
	Min      float64 `json:"min,omitempty" validate:"gte=0"`
	Max      float64 `json:"max,omitempty" validate:"omitempty,gtefield=Min"`
	Currency string  `json:"currency,omitempty"`
}

type Culture struct {
	Values        []string `json:"values,omitempty"`
	WorkStyle     string   `json:"workStyle,omitempty"`
	TeamDynamics  string   `json:"teamDynamics,omitempty"`
	Communication string   `json:"communicationStyle,omitempty"`
	ChangePace    string   `json:"changePace,omitempty" validate:"omitempty,oneof=stable moderate fast"`
}

type Job struct {
	ID               string          `json:"id" validate:"required"`
	Title            string          `json:"title"`
	Industry         string          `json:"industry,omitempty"`
	RequiredSkills   []string        `json:"requiredSkills,omitempty"`
	DesiredSkills    []string        `json:"desiredSkills,omitempty"`
	Responsibilities string          `json:"responsibilities,omitempty"`
	Seniority        Seniority       `json:"seniority,omitempty" validate:"omitempty,oneof=intern entry junior mid senior lead manager director executive"`
	RequiredYears    float64         `json:"requiredYears,omitempty" validate:"gte=0"`
	Location         Location        `json:"location"`
	AccessibleModes  []TransportMode `json:"accessibleModes,omitempty" validate:"dive,oneof=driving transit cycling walking"`
	Compensation     *Compensation   `json:"compensation,omitempty"`
	ContractType     string          `json:"contractType,omitempty"`
	StartDate        Date            `json:"startDate,omitempty"`
	RemotePolicy     RemotePolicy    `json:"remotePolicy,omitempty" validate:"omitempty,oneof=onsite hybrid remote"`
	WorkPattern      string          `json:"workPattern,omitempty" validate:"omitempty,oneof=traditional flexible hybrid startup retail"`
	TravelPercent    float64         `json:"travelPercent,omitempty" validate:"gte=0,lte=100"`
	Overtime         string          `json:"overtime,omitempty" validate:"omitempty,oneof=none occasional frequent"`
	Culture          *Culture        `json:"culture,omitempty"`
}

// Remote reports whether the job is fully remote.
func (j *Job) Remote() bool {
	return j.RemotePolicy == RemoteFull
}

func (j *Job) AllowsMode(mode TransportMode) bool {
	for _, m := range j.AccessibleModes {
		if m == mode {
			return true
		}
	}
	return false
}

type Company struct {
	ID       string   `json:"id,omitempty"`
	Name     string   `json:"name,omitempty"`
	Industry string   `json:"industry,omitempty"`
	Culture  *Culture `json:"culture,omitempty"`
}

// CultureFor returns the job culture, falling back to the company profile.
func CultureFor(job *Job, company *Company) *Culture {
	if job != nil && job.Culture != nil {
		return job.Culture
	}
	if company != nil {
		return company.Culture
	}
	return nil
}

package profile

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/spigell/hh-matcher/internal/match"
)

//go:embed request.schema.json
var requestSchema string

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

// Request is the document accepted by the CLI. Either Job or Jobs must be set.
type Request struct {
	Candidate *Candidate     `json:"candidate"`
	Job       *Job           `json:"job,omitempty"`
	Jobs      []*Job         `json:"jobs,omitempty"`
	Company   *Company       `json:"company,omitempty"`
	Options   map[string]any `json:"options,omitempty"`
}

// DecodeRequest validates data against the request schema and decodes it.
func DecodeRequest(data []byte) (*Request, error) {
	s, err := compiledSchema()
	if err != nil {
		return nil, err
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: request is not valid JSON: %v", match.ErrInvalidInput, err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", match.ErrInvalidInput, strings.Join(msgs, "; "))
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", match.ErrInvalidInput, err)
	}

	if err := req.Candidate.Validate(); err != nil {
		return nil, err
	}
	if err := req.Company.Validate(); err != nil {
		return nil, err
	}
	for _, job := range req.AllJobs() {
		if err := job.Validate(); err != nil {
			return nil, err
		}
	}

	return &req, nil
}

// AllJobs returns Job followed by Jobs.
func (r *Request) AllJobs() []*Job {
	jobs := make([]*Job, 0, len(r.Jobs)+1)
	if r.Job != nil {
		jobs = append(jobs, r.Job)
	}
	for _, j := range r.Jobs {
		if j != nil {
			jobs = append(jobs, j)
		}
	}
	return jobs
}

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(requestSchema))
	})
	return schema, schemaErr
}

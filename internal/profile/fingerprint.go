package profile

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Hash returns the hex xxhash64 of parts joined with a separator that cannot
// appear in normalized input.
func Hash(parts ...string) string {
	d := xxhash.New()
	for i, p := range parts {
		if i > 0 {
			_, _ = d.WriteString("\x00")
		}
		_, _ = d.WriteString(p)
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

// Fingerprint identifies the full candidate record. Any field change yields a new value.
func (c *Candidate) Fingerprint() string {
	return fingerprint("candidate", c)
}

func (j *Job) Fingerprint() string {
	return fingerprint("job", j)
}

// Fingerprint of a nil company is stable so that optional profiles still key correctly.
func (c *Company) Fingerprint() string {
	if c == nil {
		return Hash("company", "none")
	}
	return fingerprint("company", c)
}

func fingerprint(kind string, v any) string {
	// Struct encoding order is fixed by field order, so the output is canonical.
	raw, err := json.Marshal(v)
	if err != nil {
		return Hash(kind, "unencodable")
	}
	return Hash(kind, string(raw))
}

// Normalize lowercases and collapses whitespace for text used in cache keys.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

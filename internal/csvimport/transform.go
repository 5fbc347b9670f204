package csvimport

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/roster/internal/roster"
)

// ErrHeaderMismatch is returned by a strict Mapper when the header row does
// not carry exactly the roster labels.
var ErrHeaderMismatch = errors.New("header mismatch")

// HeaderPolicy decides what happens when the header row differs from the
// roster labels.
type HeaderPolicy int

const (
	// PolicyLenient drops unknown labels and leaves missing fields empty.
	PolicyLenient HeaderPolicy = iota
	// PolicyStrict rejects the file on any unknown or missing label.
	PolicyStrict
)

// ParsePolicy parses "lenient" or "strict".
func ParsePolicy(s string) (HeaderPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lenient":
		return PolicyLenient, nil
	case "strict":
		return PolicyStrict, nil
	}
	return PolicyLenient, fmt.Errorf("unknown header policy %q", s)
}

func (p HeaderPolicy) String() string {
	if p == PolicyStrict {
		return "strict"
	}
	return "lenient"
}

// Mapper applies the header mapping to parsed rows.
type Mapper struct {
	policy HeaderPolicy
}

// NewMapper creates a Mapper with the given policy.
func NewMapper(policy HeaderPolicy) *Mapper {
	return &Mapper{policy: policy}
}

// CheckHeader validates a header row against the policy. Lenient mappers
// accept every header.
func (m *Mapper) CheckHeader(header []string) error {
	if m.policy != PolicyStrict {
		return nil
	}

	var unknown []string
	seen := make(map[roster.Field]bool, len(columns))
	for _, label := range header {
		f, ok := Lookup(label)
		if !ok {
			unknown = append(unknown, label)
			continue
		}
		seen[f] = true
	}

	var missing []string
	for _, c := range columns {
		if !seen[c.field] {
			missing = append(missing, c.label)
		}
	}

	if len(unknown) == 0 && len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: unknown %q, missing %q", ErrHeaderMismatch, unknown, missing)
}

// Transform maps one raw row onto the seven player fields. Values pass
// through untouched; unmapped labels are dropped and absent fields stay empty.
func (m *Mapper) Transform(rec RawRecord) roster.PlayerFields {
	var f roster.PlayerFields
	for label, value := range rec.Values {
		if field, ok := Lookup(label); ok {
			f.Set(field, value)
		}
	}
	return f
}

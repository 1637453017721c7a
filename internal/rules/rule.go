package rules

import (
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/hermit-shells/hermit/internal/types"
)

// Spec holds the raw attributes a Rule is built from.
type Spec struct {
	ID            string
	Pattern       string
	Description   string
	CloudProvider string
	Severity      string
	// MatchTimeout bounds a single match attempt. Zero means no bound.
	MatchTimeout time.Duration
}

// Rule is a named pattern plus metadata. It owns its compiled matcher and is
// never modified after construction, so one Rule can be shared by concurrent
// scans.
type Rule struct {
	id            string
	pattern       string
	description   string
	cloudProvider string
	severity      types.Severity
	re            *regexp2.Regexp
}

// New compiles s.Pattern and returns the resulting Rule. An empty severity
// becomes LOW; any other value is uppercased and kept even if unrecognized.
func New(s Spec) (*Rule, error) {
	re, err := regexp2.Compile(pythonGroups(s.Pattern), regexp2.None)
	if err != nil {
		return nil, err
	}
	if s.MatchTimeout > 0 {
		re.MatchTimeout = s.MatchTimeout
	}
	sev := types.Normalize(s.Severity)
	if sev == "" {
		sev = types.SevLow
	}
	return &Rule{
		id:            s.ID,
		pattern:       s.Pattern,
		description:   s.Description,
		cloudProvider: s.CloudProvider,
		severity:      sev,
		re:            re,
	}, nil
}

// MustNew is like New but panics on an invalid pattern. Intended for tests
// and package-level fixtures.
func MustNew(s Spec) *Rule {
	r, err := New(s)
	if err != nil {
		panic("rules: " + s.ID + ": " + err.Error())
	}
	return r
}

// Accessors for the attributes the Rule was built from. Pattern returns the
// source as written, before any group syntax rewriting.

func (r *Rule) ID() string { return r.id }
func (r *Rule) Pattern() string { return r.pattern }
func (r *Rule) Description() string { return r.description }
func (r *Rule) CloudProvider() string { return r.cloudProvider }
func (r *Rule) Severity() types.Severity { return r.severity }

// EachMatch calls fn with every non-overlapping match of the rule in s, left
// to right. A match timeout ends the iteration and is returned as an error;
// matches reported before the timeout stand.
func (r *Rule) EachMatch(s string, fn func(match string)) error {
	m, err := r.re.FindStringMatch(s)
	for m != nil {
		fn(m.String())
		m, err = r.re.FindNextMatch(m)
	}
	return err
}

// FindAll returns every non-overlapping match of the rule in s.
func (r *Rule) FindAll(s string) []string {
	var out []string
	_ = r.EachMatch(s, func(m string) { out = append(out, m) })
	return out
}

// RuleSet is the ordered collection of rules active for one scan. Order
// follows the source document and decides emission order within a line.
type RuleSet []*Rule

func (rs RuleSet) Len() int { return len(rs) }

// IDs returns the rule IDs in order, duplicates included.
func (rs RuleSet) IDs() []string {
	ids := make([]string, 0, len(rs))
	for _, r := range rs {
		ids = append(ids, r.id)
	}
	return ids
}

// pythonGroups rewrites Python named-group syntax into the form regexp2
// accepts: "(?P<name>" becomes "(?<name>" and "(?P=name)" becomes
// "\k<name>". Escaped text and character classes are left alone.
func pythonGroups(p string) string {
	if !strings.Contains(p, "(?P") {
		return p
	}
	var b strings.Builder
	b.Grow(len(p))
	inClass := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case c == '\\' && i+1 < len(p):
			b.WriteByte(c)
			b.WriteByte(p[i+1])
			i++
			continue
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case strings.HasPrefix(p[i:], "(?P<"):
			b.WriteString("(?<")
			i += len("(?P<") - 1
			continue
		case strings.HasPrefix(p[i:], "(?P="):
			if end := strings.IndexByte(p[i:], ')'); end > 0 {
				b.WriteString(`\k<` + p[i+len("(?P="):i+end] + ">")
				i += end
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

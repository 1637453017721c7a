package rules

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hermit-shells/hermit/internal/logging"
	"github.com/hermit-shells/hermit/internal/types"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRules []byte

// DefaultSource is the document name used for the embedded rule set.
const DefaultSource = "default"

// Document is a named rule document. Name is only used in errors and logs.
type Document struct {
	Name string
	Data []byte
}

// Default returns the embedded default rule document.
func Default() Document {
	return Document{Name: DefaultSource, Data: defaultRules}
}

// record is the on-disk shape of one rule. Pointers distinguish an absent
// key from an empty value.
type record struct {
	ID            *string `yaml:"id"`
	Pattern       *string `yaml:"pattern"`
	Description   *string `yaml:"description"`
	CloudProvider *string `yaml:"cloud_provider"`
	Severity      *string `yaml:"severity"`
}

var errEmptyDocument = errors.New("document contains no rules")

// Loader turns rule documents into a RuleSet.
type Loader struct {
	Logger *zap.Logger
	// MatchTimeout is applied to every compiled rule. Zero means no bound.
	MatchTimeout time.Duration
}

// NewLoader returns a Loader logging to log. A nil logger discards output.
func NewLoader(log *zap.Logger) *Loader {
	return &Loader{Logger: log}
}

func (l *Loader) log() *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return logging.OrNop(l.Logger)
}

// Load parses def, or external when it is non-nil, into a RuleSet. An
// external document replaces the default set entirely and must contain at
// least one rule; def is not parsed at all in that case.
func (l *Loader) Load(def Document, external *Document) (RuleSet, error) {
	log := l.log()
	doc := def
	if external != nil {
		log.Debug("using external rules in place of defaults", zap.String("source", external.Name))
		doc = *external
	}
	recs, err := parseDocument(doc.Data)
	if err == nil && external != nil && len(recs) == 0 {
		err = errEmptyDocument
	}
	if err != nil {
		return nil, &LoadError{Source: doc.Name, Index: -1, Err: err}
	}
	log.Debug("parsed rule document", zap.String("source", doc.Name), zap.Int("records", len(recs)))

	var timeout time.Duration
	if l != nil {
		timeout = l.MatchTimeout
	}
	rs := make(RuleSet, 0, len(recs))
	seen := make(map[string]bool, len(recs))
	for idx, rec := range recs {
		if rec.ID == nil {
			return nil, &LoadError{Source: doc.Name, Index: idx, Field: "id"}
		}
		if rec.Pattern == nil {
			return nil, &LoadError{Source: doc.Name, Index: idx, Field: "pattern"}
		}
		sev := string(types.SevLow)
		if rec.Severity != nil {
			sev = *rec.Severity
		}
		r, err := New(Spec{
			ID:            *rec.ID,
			Pattern:       *rec.Pattern,
			Description:   deref(rec.Description),
			CloudProvider: deref(rec.CloudProvider),
			Severity:      sev,
			MatchTimeout:  timeout,
		})
		if err != nil {
			return nil, &LoadError{Source: doc.Name, Index: idx, RuleID: *rec.ID, Err: err}
		}
		if !r.Severity().Known() {
			log.Warn("rule has unrecognized severity; it will never trip a severity threshold",
				zap.String("rule", r.ID()), zap.String("severity", string(r.Severity())))
		}
		if seen[r.ID()] {
			log.Warn("duplicate rule id", zap.String("rule", r.ID()), zap.Int("index", idx))
		}
		seen[r.ID()] = true
		rs = append(rs, r)
	}
	log.Debug("loaded rules", zap.Int("count", len(rs)))
	return rs, nil
}

// LoadFiles reads the default document from defaultPath and, when
// externalPath is not empty, the override document from externalPath.
func (l *Loader) LoadFiles(defaultPath, externalPath string) (RuleSet, error) {
	if externalPath != "" {
		ext, err := readDocument(externalPath)
		if err != nil {
			return nil, err
		}
		return l.Load(Document{Name: defaultPath}, &ext)
	}
	def, err := readDocument(defaultPath)
	if err != nil {
		return nil, err
	}
	return l.Load(def, nil)
}

// LoadDefault loads the embedded default rules, or only the rules in
// externalPath when it is not empty.
func (l *Loader) LoadDefault(externalPath string) (RuleSet, error) {
	if externalPath == "" {
		return l.Load(Default(), nil)
	}
	ext, err := readDocument(externalPath)
	if err != nil {
		return nil, err
	}
	return l.Load(Default(), &ext)
}

func readDocument(path string) (Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Document{}, &LoadError{Source: path, Index: -1, Err: err}
	}
	return Document{Name: path, Data: b}, nil
}

func parseDocument(data []byte) ([]record, error) {
	var recs []record
	if err := yaml.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return recs, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

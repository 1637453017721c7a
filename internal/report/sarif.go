// internal/report/sarif.go
package report

import (
	"encoding/json"
	"fmt"
	"io"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/hermit-shells/hermit/internal/types"
)

const (
	sarifVersion = "2.1.0"
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	// ToolName is the driver name recorded in SARIF output.
	ToolName = "hermit"
	// FingerprintKey names the partial fingerprint attached to every result.
	FingerprintKey = "hermitMatch/v1"
)

type sarif struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool                     sarifTool     `json:"tool"`
	VersionControlProvenance []sarifVCS    `json:"versionControlProvenance,omitempty"`
	Results                  []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string         `json:"id"`
	ShortDescription sarifMessage   `json:"shortDescription"`
	Properties       sarifRuleProps `json:"properties"`
}

type sarifRuleProps struct {
	Severity string `json:"severity"`
}

type sarifVCS struct {
	RepositoryURI string `json:"repositoryUri"`
	RevisionID    string `json:"revisionId,omitempty"`
	Branch        string `json:"branch,omitempty"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLoc        `json:"locations"`
	Level               string            `json:"level"`
	PartialFingerprints map[string]string `json:"partialFingerprints"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

// sarifPhys carries the matched text in a non-standard "value" field that
// downstream consumers of earlier releases rely on.
type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
	Value            string      `json:"value"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

// SARIFOptions adds run-level metadata to the SARIF document.
type SARIFOptions struct {
	ToolVersion    string
	InformationURI string
	// Provenance, when set, is emitted as versionControlProvenance.
	Provenance *Provenance
}

func sevToLevel(s types.Severity) string {
	switch s {
	case types.SevHigh:
		return "error"
	case types.SevMed:
		return "warning"
	case types.SevLow:
		return "note"
	default:
		return "warning"
	}
}

// Fingerprint identifies a finding by rule, file and matched text so that
// the same match on a shifted line is recognised as the same alert.
func Fingerprint(f types.Finding) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(f.RuleID+"|"+f.File+"|"+f.Match))
}

// WriteSARIF writes findings as SARIF 2.1.0 to the provided writer. Rule
// metadata is listed once per distinct rule ID; when IDs repeat, the first
// finding seen supplies the description and severity.
func WriteSARIF(w io.Writer, findings []types.Finding, opts SARIFOptions) error {
	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{
			Name:           ToolName,
			Version:        opts.ToolVersion,
			InformationURI: opts.InformationURI,
			Rules:          []sarifRule{},
		}},
		Results: []sarifResult{},
	}
	if p := opts.Provenance; p != nil && p.RepositoryURI != "" {
		run.VersionControlProvenance = []sarifVCS{{
			RepositoryURI: p.RepositoryURI,
			RevisionID:    p.RevisionID,
			Branch:        p.Branch,
		}}
	}
	index := map[string]int{}
	for _, f := range findings {
		idx, ok := index[f.RuleID]
		if !ok {
			idx = len(run.Tool.Driver.Rules)
			index[f.RuleID] = idx
			run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{
				ID:               f.RuleID,
				ShortDescription: sarifMessage{Text: f.Description},
				Properties:       sarifRuleProps{Severity: string(f.Severity)},
			})
		}
		run.Results = append(run.Results, sarifResult{
			RuleID:    f.RuleID,
			RuleIndex: idx,
			Message:   sarifMessage{Text: f.Description},
			Locations: []sarifLoc{{
				PhysicalLocation: sarifPhys{
					ArtifactLocation: sarifArt{URI: f.File},
					Region:           sarifRegion{StartLine: f.Line},
					Value:            f.Match,
				},
			}},
			Level:               sevToLevel(f.Severity),
			PartialFingerprints: map[string]string{FingerprintKey: Fingerprint(f)},
		})
	}
	doc := sarif{Version: sarifVersion, Schema: sarifSchema, Runs: []sarifRun{run}}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteSARIFFile writes the SARIF document to path.
func WriteSARIFFile(path string, findings []types.Finding, opts SARIFOptions) error {
	return writeFile(path, func(w io.Writer) error { return WriteSARIF(w, findings, opts) })
}

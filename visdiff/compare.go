// Package visdiff scores a reproduction page against an original by
// comparing live computed CSS over a fixed set of structural selector
// classes. It is independent of the capture pipeline.
package visdiff

import (
	"fmt"
	"strings"
)

// PassThreshold is the fixed match percentage at or above which a page
// passes. There is no partial-credit tier.
const PassThreshold = 80.0

// selectorClasses are the structural classes sampled on both sides. A class
// with zero matches on either side is skipped entirely.
var selectorClasses = []string{
	"button",
	"a",
	"input",
	"h1",
	"h2",
	"p",
	"nav",
	"form",
	"header",
	"footer",
}

// comparedProps is the fixed property vector extracted per compared pair.
var comparedProps = []string{
	"color",
	"backgroundColor",
	"fontSize",
	"fontWeight",
	"padding",
	"margin",
	"borderRadius",
	"display",
	"textAlign",
}

// PropertyMatch is one compared property value pair.
type PropertyMatch struct {
	Selector  string `json:"selector"`
	Property  string `json:"property"`
	Original  string `json:"original"`
	Generated string `json:"generated"`
}

// Result is the outcome of comparing one page identifier.
type Result struct {
	Page            string          `json:"page"`
	Passed          bool            `json:"passed"`
	MatchPercentage string          `json:"matchPercentage"`
	Matches         []PropertyMatch `json:"matches"`
	Mismatches      []PropertyMatch `json:"mismatches"`
	Error           string          `json:"error,omitempty"`
}

// PropertyVector maps selector class -> property -> computed value.
type PropertyVector map[string]map[string]string

// cssValuesMatch compares two computed values after normalizing whitespace
// and case. A missing value normalizes to the empty string, so two missing
// values count as a match.
func cssValuesMatch(a, b string) bool {
	return normalizeCSS(a) == normalizeCSS(b)
}

func normalizeCSS(v string) string {
	var sb strings.Builder
	for _, r := range v {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		}
		sb.WriteRune(r)
	}
	return strings.ToLower(sb.String())
}

// CompareVectors scores a reproduction vector against an original vector.
// Classes absent on either side are skipped, not counted as mismatches.
func CompareVectors(pageID string, original, generated PropertyVector) *Result {
	res := &Result{
		Page:       pageID,
		Matches:    []PropertyMatch{},
		Mismatches: []PropertyMatch{},
	}

	for _, sel := range selectorClasses {
		origVec, okO := original[sel]
		genVec, okG := generated[sel]
		if !okO || !okG {
			continue
		}
		for _, prop := range comparedProps {
			pm := PropertyMatch{
				Selector:  sel,
				Property:  prop,
				Original:  origVec[prop],
				Generated: genVec[prop],
			}
			if cssValuesMatch(origVec[prop], genVec[prop]) {
				res.Matches = append(res.Matches, pm)
			} else {
				res.Mismatches = append(res.Mismatches, pm)
			}
		}
	}

	total := len(res.Matches) + len(res.Mismatches)
	pct := 0.0
	if total > 0 {
		pct = float64(len(res.Matches)) / float64(total) * 100
	}
	res.MatchPercentage = fmt.Sprintf("%.2f", pct)
	res.Passed = pct >= PassThreshold
	return res
}

// Summary aggregates a comparison batch, persisted once at batch end.
type Summary struct {
	Passed   int      `json:"passed"`
	Failed   int      `json:"failed"`
	Accuracy string   `json:"accuracy"`
	Tests    []Result `json:"tests"`
}

// Summarize builds the batch summary. Pages that errored count as failed.
func Summarize(results []Result) *Summary {
	s := &Summary{Tests: results}
	for _, r := range results {
		if r.Passed && r.Error == "" {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	total := s.Passed + s.Failed
	acc := 0.0
	if total > 0 {
		acc = float64(s.Passed) / float64(total) * 100
	}
	s.Accuracy = fmt.Sprintf("%.2f", acc)
	return s
}

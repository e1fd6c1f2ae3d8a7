package domain

import "strings"

// Result is the outcome of a single verification.
// OK is true exactly when Issues is empty.
type Result struct {
	Subject string   `json:"subject" yaml:"subject"`
	OK      bool     `json:"ok" yaml:"ok"`
	Issues  []string `json:"issues" yaml:"issues"`
	Cached  bool     `json:"cached,omitempty" yaml:"cached,omitempty"`
}

// NewResult builds a Result whose OK flag follows the issue list
func NewResult(subject string, issues []string) Result {
	if issues == nil {
		issues = []string{}
	}
	return Result{
		Subject: subject,
		OK:      len(issues) == 0,
		Issues:  issues,
	}
}

// Aborted reports whether the verification could not run to completion
func (r Result) Aborted() bool {
	for _, issue := range r.Issues {
		if strings.HasPrefix(issue, VerifyFailedPrefix) {
			return true
		}
	}
	return false
}

// FailedResult builds a Result carrying a single verify-failed issue
func FailedResult(subject string, err error) Result {
	return NewResult(subject, []string{VerifyFailed(err)})
}

// Checked counts the artifacts examined during a repository run
type Checked struct {
	SumsFiles int `json:"sums_files" yaml:"sums_files"`
	Anchors   int `json:"anchors" yaml:"anchors"`
	Bundles   int `json:"bundles" yaml:"bundles"`
	Index     int `json:"index" yaml:"index"`
}

// Report aggregates the issues of one command invocation
type Report struct {
	Subject string   `json:"subject" yaml:"subject"`
	OK      bool     `json:"ok" yaml:"ok"`
	Issues  []string `json:"issues" yaml:"issues"`
	Checked Checked  `json:"checked" yaml:"checked"`
}

// NewReport creates an empty passing report for subject
func NewReport(subject string) *Report {
	return &Report{
		Subject: subject,
		OK:      true,
		Issues:  []string{},
	}
}

// Add appends issues, each prefixed when prefix is not empty
func (r *Report) Add(prefix string, issues ...string) {
	for _, issue := range issues {
		if prefix != "" {
			issue = prefix + ": " + issue
		}
		r.Issues = append(r.Issues, issue)
	}
	r.OK = len(r.Issues) == 0
}

// FromResult wraps a single verification result as a report
func FromResult(res Result) *Report {
	r := NewReport(res.Subject)
	r.Add("", res.Issues...)
	return r
}

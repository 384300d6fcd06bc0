// Package skip decides whether a row-level error may be absorbed instead of failing the run.
package skip

import (
	"github.com/tigerroll/userload/pkg/batch/support/util/exception"
)

// SkipPolicy is consulted for every skippable error raised while classifying a row.
// Implementations are stateful and scoped to one run.
type SkipPolicy interface {
	// ShouldSkip reports whether err may be skipped and, if so, counts it.
	ShouldSkip(err error) bool
	// GetSkipCount returns the number of errors skipped so far.
	GetSkipCount() int
	// GetSkipLimit returns the configured limit. 0 means unlimited.
	GetSkipLimit() int
}

// limitSkipPolicy skips BatchErrors flagged skippable until skipLimit is reached.
type limitSkipPolicy struct {
	skipLimit        int
	currentSkipCount int
}

// NewLimitSkipPolicy creates a SkipPolicy allowing at most skipLimit skips. 0 means unlimited.
func NewLimitSkipPolicy(skipLimit int) SkipPolicy {
	return &limitSkipPolicy{skipLimit: skipLimit}
}

// ShouldSkip refuses errors not flagged skippable and any error past the limit.
func (p *limitSkipPolicy) ShouldSkip(err error) bool {
	if err == nil || !exception.IsSkippable(err) {
		return false
	}
	if p.skipLimit > 0 && p.currentSkipCount >= p.skipLimit {
		return false
	}
	p.currentSkipCount++
	return true
}

func (p *limitSkipPolicy) GetSkipCount() int {
	return p.currentSkipCount
}

func (p *limitSkipPolicy) GetSkipLimit() int {
	return p.skipLimit
}

// Package filter decides which captured lines are kept. Token matching
// happens inside the capture sources; these predicates refine the result
// before it reaches the store.
package filter

import (
	"regexp"
)

// Filter determines if a captured line should be included.
type Filter interface {
	// Match returns true if the line passes the filter.
	Match(text string) bool
}

// Chain combines multiple filters (all must pass).
type Chain struct {
	filters []Filter
}

// NewChain creates a filter chain from multiple filters.
func NewChain(filters ...Filter) *Chain {
	return &Chain{filters: filters}
}

// Match returns true only if all filters pass.
func (c *Chain) Match(text string) bool {
	for _, f := range c.filters {
		if !f.Match(text) {
			return false
		}
	}
	return true
}

// Add appends a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Apply filters a batch in place-order, returning the surviving lines.
// A nil chain keeps everything.
func (c *Chain) Apply(lines []string) []string {
	if c == nil || len(c.filters) == 0 {
		return lines
	}
	var out []string
	for _, line := range lines {
		if c.Match(line) {
			out = append(out, line)
		}
	}
	return out
}

// PatternFilter keeps lines matching a regex pattern.
type PatternFilter struct {
	pattern *regexp.Regexp
}

// NewPatternFilter creates an inclusion filter from a pattern string.
func NewPatternFilter(pattern string) (*PatternFilter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &PatternFilter{pattern: re}, nil
}

// Match returns true if the line matches the pattern.
func (f *PatternFilter) Match(text string) bool {
	if f.pattern == nil {
		return true
	}
	return f.pattern.MatchString(text)
}

// ExcludePatternFilter drops lines matching a regex pattern.
type ExcludePatternFilter struct {
	pattern *regexp.Regexp
}

// NewExcludePatternFilter creates an exclusion filter from a pattern string.
func NewExcludePatternFilter(pattern string) (*ExcludePatternFilter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &ExcludePatternFilter{pattern: re}, nil
}

// Match returns true if the line does NOT match the exclusion pattern.
func (f *ExcludePatternFilter) Match(text string) bool {
	if f.pattern == nil {
		return true
	}
	return !f.pattern.MatchString(text)
}

// FromFlags builds a chain from the tail command's pattern/exclude flags.
// Returns nil when neither is set.
func FromFlags(pattern string, excludes []string) (*Chain, error) {
	if pattern == "" && len(excludes) == 0 {
		return nil, nil
	}
	chain := NewChain()
	if pattern != "" {
		f, err := NewPatternFilter(pattern)
		if err != nil {
			return nil, err
		}
		chain.Add(f)
	}
	for _, ex := range excludes {
		f, err := NewExcludePatternFilter(ex)
		if err != nil {
			return nil, err
		}
		chain.Add(f)
	}
	return chain, nil
}

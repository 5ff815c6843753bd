// Package filter gates which message senders are considered for extraction.
package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// SenderFilter accepts or rejects message source addresses before any
// extraction work is spent on the message body. An empty pattern set
// accepts everything.
type SenderFilter struct {
	exact   map[string]struct{}
	regexes []*regexp.Regexp
}

// New compiles the configured patterns. A pattern wrapped in slashes
// (`/VM-.*BANK/`) is treated as a case-insensitive regular expression;
// anything else is a case-insensitive exact match.
func New(patterns []string) (*SenderFilter, error) {
	f := &SenderFilter{exact: make(map[string]struct{})}

	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if len(p) > 1 && strings.HasPrefix(p, "/") && strings.HasSuffix(p, "/") {
			expr := p[1 : len(p)-1]
			if !strings.HasPrefix(expr, "(?i)") {
				expr = "(?i)" + expr
			}
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("failed to compile sender pattern %s: %w", p, err)
			}
			f.regexes = append(f.regexes, re)
			continue
		}
		f.exact[strings.ToLower(p)] = struct{}{}
	}

	return f, nil
}

// Accept reports whether a message from address should be processed.
// First match wins; there is no precedence beyond set membership.
func (f *SenderFilter) Accept(address string) bool {
	if len(f.exact) == 0 && len(f.regexes) == 0 {
		return true
	}

	if _, ok := f.exact[strings.ToLower(address)]; ok {
		return true
	}
	for _, re := range f.regexes {
		if re.MatchString(address) {
			return true
		}
	}
	return false
}

// Empty reports whether the filter was configured with no patterns.
func (f *SenderFilter) Empty() bool {
	return len(f.exact) == 0 && len(f.regexes) == 0
}

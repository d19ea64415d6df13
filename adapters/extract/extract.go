// Package extract models identifier fallback chains as data. Each network
// names its identifiers differently and often moves them between top-level
// fields and nested result envelopes; a Chain is the ordered list of
// locations one identifier may live at, applied until the first hit. Chains
// are plain values, so every network's table is testable against canned
// bodies without any HTTP.
package extract

import (
	"strings"

	"github.com/buger/jsonparser"
)

// Rule names one location: a dot-separated key path into the JSON body.
type Rule struct {
	Path []string
}

// Chain is an ordered list of locations; the first rule that yields a
// non-empty scalar wins. Never guess beyond the chain: a miss is a miss.
type Chain []Rule

// NewChain builds a chain from dot-separated paths, e.g.
// NewChain("appKey", "key", "data.id").
func NewChain(paths ...string) Chain {
	chain := make(Chain, 0, len(paths))
	for _, path := range paths {
		chain = append(chain, Rule{Path: strings.Split(path, ".")})
	}
	return chain
}

// Extract applies the chain to the body. Strings come back as-is, numbers
// as their decimal form, so callers always get one canonical string type.
// The second return is false when no rule matched.
func (c Chain) Extract(body []byte) (string, bool) {
	for _, rule := range c {
		value, dataType, _, err := jsonparser.Get(body, rule.Path...)
		if err != nil {
			continue
		}
		switch dataType {
		case jsonparser.String:
			parsed, err := jsonparser.ParseString(value)
			if err != nil || parsed == "" {
				continue
			}
			return parsed, true
		case jsonparser.Number:
			return string(value), true
		}
	}
	return "", false
}

// ExtractFrom is Extract with a list of candidate envelopes: the chain runs
// against each body in order. Networks that sometimes wrap their payload in
// a "data" envelope and sometimes do not are handled by passing both.
func (c Chain) ExtractFrom(bodies ...[]byte) (string, bool) {
	for _, body := range bodies {
		if len(body) == 0 {
			continue
		}
		if value, ok := c.Extract(body); ok {
			return value, true
		}
	}
	return "", false
}

// Envelope returns the sub-document at the first matching path, falling
// back to the body itself. List parsers use this to find the array that
// holds the items ("applications", "data.list", or the bare body).
func Envelope(body []byte, paths ...string) []byte {
	for _, path := range paths {
		value, dataType, _, err := jsonparser.Get(body, strings.Split(path, ".")...)
		if err != nil || dataType == jsonparser.NotExist || dataType == jsonparser.Null {
			continue
		}
		return value
	}
	return body
}

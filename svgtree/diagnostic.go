package svgtree

import (
	"fmt"
	"strings"
)

// Kind classifies a recoverable problem met while simplifying
// or rendering a document.
type Kind uint8

const (
	// MalformedInput is an unparsable value, replaced by its default.
	MalformedInput Kind = iota
	// UnresolvableReference is a dangling or cyclic reference,
	// replaced by an empty or identity fallback.
	UnresolvableReference
	// ResourceLimitExceeded reports a truncated expansion.
	ResourceLimitExceeded
	// UnsupportedFeature is a known construct which is not implemented.
	UnsupportedFeature
)

func (k Kind) String() string {
	switch k {
	case MalformedInput:
		return "malformed input"
	case UnresolvableReference:
		return "unresolvable reference"
	case ResourceLimitExceeded:
		return "resource limit exceeded"
	case UnsupportedFeature:
		return "unsupported feature"
	default:
		return "<unknown Kind>"
	}
}

// Diagnostic describes one recovered problem.
type Diagnostic struct {
	Kind     Kind
	Location string // element (tag and id) or operation concerned
	Message  string
}

func (d Diagnostic) String() string {
	if d.Location == "" {
		return d.Kind.String() + ": " + d.Message
	}
	return fmt.Sprintf("%s: %s: %s", d.Kind, d.Location, d.Message)
}

// Diagnostics accumulates the problems met during one operation.
// The zero value is ready to use.
type Diagnostics []Diagnostic

// Add records a new diagnostic, and logs it with the level Warn.
func (ds *Diagnostics) Add(kind Kind, location, format string, args ...interface{}) {
	d := Diagnostic{Kind: kind, Location: location, Message: fmt.Sprintf(format, args...)}
	*ds = append(*ds, d)
	Logger().Warn(d.Message, "kind", kind.String(), "location", location)
}

// Count returns the number of diagnostics of the given kind.
func (ds Diagnostics) Count(kind Kind) int {
	n := 0
	for _, d := range ds {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Has returns true if at least one diagnostic has the given kind.
func (ds Diagnostics) Has(kind Kind) bool { return ds.Count(kind) > 0 }

func (ds Diagnostics) String() string {
	lines := make([]string, len(ds))
	for i, d := range ds {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}

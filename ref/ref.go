// Package ref provides functionality to parse and format catalog entity references.
package ref

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// DefaultNamespace is the namespace assumed for references that do not name one.
const DefaultNamespace = "default"

// ErrInvalidRef is the sentinel wrapped by every ParseError.
var ErrInvalidRef = errors.New("invalid entity reference")

// ParseError describes why an input could not be parsed into a Ref.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrInvalidRef, e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrInvalidRef
}

// Ref represents the parsed structure of an entity reference.
//
// The format of an entity reference is:
//
//	[<kind>:][<namespace>/]<name>
//
// All parts compare case-insensitively, but keep their case for display.
type Ref struct {
	Kind      string
	Namespace string
	Name      string
}

// String formats the reference as kind:namespace/name without altering case.
func (r Ref) String() string {
	var sb strings.Builder
	if r.Kind != "" {
		sb.WriteString(r.Kind + ":")
	}
	if r.Namespace != "" {
		sb.WriteString(r.Namespace + "/")
	}
	sb.WriteString(r.Name)
	return sb.String()
}

// Canonical returns the case folded form of the reference.
// Two references denote the same entity exactly when their canonical strings are equal.
func (r Ref) Canonical() string {
	return Ref{Kind: Fold(r.Kind), Namespace: Fold(r.Namespace), Name: Fold(r.Name)}.String()
}

// Equal reports whether r and o denote the same entity.
func (r Ref) Equal(o Ref) bool {
	return r.Canonical() == o.Canonical()
}

type parseOptions struct {
	defaultKind      string
	defaultNamespace string
}

// ParseOption customizes Parse.
type ParseOption func(*parseOptions)

// WithDefaultKind sets the kind used when the input omits one.
func WithDefaultKind(kind string) ParseOption {
	return func(o *parseOptions) {
		o.defaultKind = kind
	}
}

// WithDefaultNamespace sets the namespace used when the input omits one.
// An empty namespace keeps DefaultNamespace.
func WithDefaultNamespace(namespace string) ParseOption {
	return func(o *parseOptions) {
		if namespace != "" {
			o.defaultNamespace = namespace
		}
	}
}

// Parse parses an input string into a Ref.
// Accepted inputs are of the forms
//
//   - <kind>:<namespace>/<name>
//   - <kind>:<name> (namespace defaulted)
//   - <namespace>/<name> or <name> (requires WithDefaultKind)
func Parse(input string, opts ...ParseOption) (Ref, error) {
	options := parseOptions{defaultNamespace: DefaultNamespace}
	for _, opt := range opts {
		opt(&options)
	}

	if strings.TrimSpace(input) == "" {
		return Ref{}, &ParseError{Input: input, Reason: "reference is empty"}
	}

	var r Ref
	rest := input

	// Step 1: Extract optional kind
	if idx := strings.Index(rest, ":"); idx != -1 {
		r.Kind = rest[:idx]
		rest = rest[idx+1:]
		if r.Kind == "" {
			return Ref{}, &ParseError{Input: input, Reason: "kind before ':' is empty"}
		}
	}

	// Step 2: Extract optional namespace
	if idx := strings.Index(rest, "/"); idx != -1 {
		r.Namespace = rest[:idx]
		rest = rest[idx+1:]
		if r.Namespace == "" {
			return Ref{}, &ParseError{Input: input, Reason: "namespace before '/' is empty"}
		}
	}

	// Step 3: Validate name
	if rest == "" {
		return Ref{}, &ParseError{Input: input, Reason: "name is empty"}
	}
	if strings.ContainsAny(rest, ":/") {
		return Ref{}, &ParseError{Input: input, Reason: fmt.Sprintf("name %q contains a reserved separator", rest)}
	}
	r.Name = rest

	// Step 4: Apply defaults
	if r.Kind == "" {
		if options.defaultKind == "" {
			return Ref{}, &ParseError{Input: input, Reason: "kind is missing and no default kind was given"}
		}
		r.Kind = options.defaultKind
	}
	if r.Namespace == "" {
		r.Namespace = options.defaultNamespace
	}

	return r, nil
}

// MustParse is like Parse but panics on error.
func MustParse(input string, opts ...ParseOption) Ref {
	r, err := Parse(input, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// folder is stateless and safe for concurrent use.
var folder = cases.Fold()

// Fold returns the locale-insensitive case folded form of s.
func Fold(s string) string {
	return folder.String(s)
}

// EqualFold reports whether a and b are equal under locale-insensitive case folding.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}

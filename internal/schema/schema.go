// Package schema checks raw deck documents against the embedded CUE schema
// before they are coerced into the typed model.
package schema

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	derrors "git.home.luguber.info/inful/deckbuilder/internal/foundation/errors"
)

//go:embed deck.cue
var deckSchema []byte

// Source returns the schema text, for `deckbuilder doc`.
func Source() string { return string(deckSchema) }

// Violation is one schema failure at a document path.
type Violation struct {
	Path    string
	Message string
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Message
	}
	return v.Path + ": " + v.Message
}

// Error collects the violations of one document.
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	if len(e.Violations) == 1 {
		return "schema: " + e.Violations[0].String()
	}
	lines := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		lines[i] = v.String()
	}
	return "schema: validation failed:\n  " + strings.Join(lines, "\n  ")
}

// Classify implements derrors.Classifier.
func (e *Error) Classify() *derrors.ClassifiedError {
	b := derrors.SchemaError(e.Error())
	if len(e.Violations) > 0 {
		b = b.WithContext("field", e.Violations[0].Path)
	}
	return b.WithContext("violations", len(e.Violations)).Build()
}

// Validator checks documents against the compiled #Deck definition.
// It is safe for concurrent use.
type Validator struct {
	mu   sync.Mutex
	ctx  *cue.Context
	deck cue.Value
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	root := ctx.CompileBytes(deckSchema, cue.Filename("deck.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile deck schema: %w", err)
	}
	deck := root.LookupPath(cue.ParsePath("#Deck"))
	if err := deck.Err(); err != nil {
		return nil, fmt.Errorf("schema definition #Deck not found: %w", err)
	}
	return &Validator{ctx: ctx, deck: deck}, nil
}

// Validate checks a decoded document. Keys must already be normalized.
func (v *Validator) Validate(doc map[string]any) error {
	// cue.Context is not safe for concurrent use.
	v.mu.Lock()
	defer v.mu.Unlock()

	data := v.ctx.Encode(doc)
	if err := data.Err(); err != nil {
		return violations(err)
	}
	if err := v.deck.Unify(data).Validate(cue.Concrete(true)); err != nil {
		return violations(err)
	}
	return nil
}

func violations(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Violations: []Violation{{Message: err.Error()}}}
	}
	out := &Error{}
	seen := make(map[string]bool)
	for _, e := range errs {
		path := formatPath(cueerrors.Path(e))
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		key := path + "\x00" + msg
		if seen[key] {
			continue
		}
		seen[key] = true
		out.Violations = append(out.Violations, Violation{Path: path, Message: msg})
	}
	return out
}

// formatPath renders a CUE selector path as nav[0].sub[1].title.
func formatPath(path []string) string {
	var b strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

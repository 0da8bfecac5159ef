package project

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	derrors "git.home.luguber.info/inful/deckbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/deckbuilder/internal/schema"
	"git.home.luguber.info/inful/deckbuilder/internal/slides"
)

// StaticDir is the asset mirror directory inside a project.
const StaticDir = "static"

// DocumentNames are the deck file names tried in order.
var DocumentNames = []string{"reveal.yaml", "reveal.yml", "reveal.json", "reveal.toml"}

// Project identifies one deck on a file system. It is read-only once found.
type Project struct {
	Fs   afero.Fs
	Dir  string
	File string
}

// Find looks in dir for a deck document.
func Find(fsys afero.Fs, dir string) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "resolve project directory").
			WithContext("path", dir).Build()
	}
	for _, name := range DocumentNames {
		p := filepath.Join(abs, name)
		if ok, _ := afero.Exists(fsys, p); ok {
			return &Project{Fs: fsys, Dir: abs, File: p}, nil
		}
	}
	return nil, derrors.NotFoundError(fmt.Sprintf("no deck document in %s", abs)).
		WithContext("path", abs).
		WithContext("tried", DocumentNames).
		Build()
}

// StaticPath is the project's static asset mirror.
func (p *Project) StaticPath() string {
	return filepath.Join(p.Dir, StaticDir)
}

// Load reads and decodes the deck document. Keys come back normalized.
func (p *Project) Load() (map[string]any, error) {
	data, err := afero.ReadFile(p.Fs, p.File)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "read deck document").
			WithContext("path", p.File).Build()
	}
	doc, err := Decode(data, FormatOf(p.File))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.File, err)
	}
	return doc, nil
}

// Deck loads, validates and builds the project's deck.
func (p *Project) Deck(v *schema.Validator) (*slides.Config, error) {
	doc, err := p.Load()
	if err != nil {
		return nil, err
	}
	return Compile(doc, v)
}

// Compile validates a decoded document against the schema, when a validator is
// given, and builds the typed deck.
func Compile(doc map[string]any, v *schema.Validator) (*slides.Config, error) {
	if v != nil {
		if err := v.Validate(doc); err != nil {
			return nil, err
		}
	}
	return slides.Build(doc)
}

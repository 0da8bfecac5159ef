package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/deckbuilder/internal/project"
	"git.home.luguber.info/inful/deckbuilder/internal/schema"
	"git.home.luguber.info/inful/deckbuilder/internal/slides"
)

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct {
	Path string `arg:"" optional:"" default:"." help:"Project path"`
}

func (v *ValidateCmd) Run(_ *Global, _ *CLI) error {
	return RunValidate(os.Stdout, afero.NewOsFs(), v.Path)
}

// RunValidate builds the project's deck and prints its slide tree.
func RunValidate(w io.Writer, fsys afero.Fs, path string) error {
	p, err := project.Find(fsys, path)
	if err != nil {
		return err
	}
	validator, err := schema.New()
	if err != nil {
		return err
	}
	deck, err := p.Deck(validator)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "%s: %q, %d slides\n", p.File, deck.Title, deck.SlideCount())
	printTree(w, deck)
	return nil
}

func printTree(w io.Writer, deck *slides.Config) {
	deck.Walk(func(top, child int, s *slides.Slide) {
		title := s.Title
		if title == "" {
			title = "(untitled)"
		}
		if child == 0 {
			_, _ = fmt.Fprintf(w, "%d. %s\n", top+1, title)
			return
		}
		_, _ = fmt.Fprintf(w, "   %d.%d %s\n", top+1, child, title)
	})
}

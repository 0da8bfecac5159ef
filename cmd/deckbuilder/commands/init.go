package commands

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/spf13/afero"

	"git.home.luguber.info/inful/deckbuilder/internal/config"
	derrors "git.home.luguber.info/inful/deckbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/deckbuilder/internal/project"
)

//go:embed templates/reveal.yaml templates/deploy.yaml templates/icon.png
var templates embed.FS

// WorkflowPath is where init places the deploy workflow.
var WorkflowPath = filepath.Join(".github", "workflows", "deploy.yaml")

// IconPath is where the default deck icon lands, relative to the project.
var IconPath = filepath.Join(project.StaticDir, "img", "icon.png")

// InitCmd implements the 'init' command.
type InitCmd struct {
	Path       string `arg:"" optional:"" default:"." help:"Project path"`
	NoWorkflow bool   `name:"no-workflow" help:"Don't generate a GitHub workflow"`
	NoGit      bool   `name:"no-git" help:"Don't initialize a git repository"`
}

func (i *InitCmd) Run(_ *Global, _ *CLI) error {
	created, err := RunInit(i.Path, !i.NoWorkflow, !i.NoGit)
	for _, p := range created {
		fmt.Printf("created %s\n", p)
	}
	return err
}

// RunInit lays out a project at dir. Existing files are left alone. It
// returns the paths it created, relative to dir.
func RunInit(dir string, workflow, gitInit bool) ([]string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "resolve project path").Build()
	}
	if err := os.MkdirAll(filepath.Join(abs, project.StaticDir), 0o755); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "create static directory").
			WithContext("path", abs).Build()
	}
	var created []string

	if _, err := project.Find(afero.NewOsFs(), abs); err != nil {
		if err := writeTemplate(abs, project.DocumentNames[0], "templates/reveal.yaml"); err != nil {
			return created, err
		}
		created = append(created, project.DocumentNames[0])
	}
	ok, err := writeIfMissing(abs, IconPath, func() ([]byte, error) { return templates.ReadFile("templates/icon.png") })
	if err != nil {
		return created, err
	}
	if ok {
		created = append(created, IconPath)
	}
	if workflow {
		ok, err := writeIfMissing(abs, WorkflowPath, func() ([]byte, error) { return templates.ReadFile("templates/deploy.yaml") })
		if err != nil {
			return created, err
		}
		if ok {
			created = append(created, WorkflowPath)
		}
	}
	ok, err = writeIfMissing(abs, config.FileName, config.Sample)
	if err != nil {
		return created, err
	}
	if ok {
		created = append(created, config.FileName)
	}

	if gitInit {
		_, err := git.PlainInit(abs, false)
		switch {
		case errors.Is(err, git.ErrRepositoryAlreadyExists):
		case err != nil:
			return created, derrors.WrapError(err, derrors.CategoryFileSystem, "initialize git repository").
				WithContext("path", abs).Build()
		default:
			created = append(created, ".git")
		}
	}
	return created, nil
}

func writeTemplate(dir, name, tpl string) error {
	_, err := writeIfMissing(dir, name, func() ([]byte, error) { return templates.ReadFile(tpl) })
	return err
}

func writeIfMissing(dir, name string, content func() ([]byte, error)) (bool, error) {
	p := filepath.Join(dir, name)
	if _, err := os.Stat(p); err == nil {
		return false, nil
	}
	data, err := content()
	if err != nil {
		return false, derrors.WrapError(err, derrors.CategoryInternal, "load template").WithContext("name", name).Build()
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return false, derrors.WrapError(err, derrors.CategoryFileSystem, "create directory").WithContext("path", p).Build()
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return false, derrors.WrapError(err, derrors.CategoryFileSystem, "write file").WithContext("path", p).Build()
	}
	return true, nil
}

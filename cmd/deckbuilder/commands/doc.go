package commands

import (
	_ "embed"
	"net"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/deckbuilder/internal/config"
	derrors "git.home.luguber.info/inful/deckbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/deckbuilder/internal/project"
)

//go:embed docs/reveal.yaml
var docsDeck []byte

// docsDir is where the documentation deck lives on its in-memory file system.
const docsDir = "/deckbuilder-docs"

// DocCmd implements the 'doc' command.
type DocCmd struct {
	IP   string `arg:"" optional:"" default:"localhost" help:"IP address to bind"`
	Port int    `name:"port" default:"0" help:"Port to listen on; 0 picks a free port"`
}

func (d *DocCmd) Run(g *Global, root *CLI) error {
	p, err := docsProject()
	if err != nil {
		return err
	}
	cfg := config.Default()
	setupLogging(g, logLevel(root.Verbose, cfg.Logging.Level), cfg.Logging.Format)
	return serveProject(cfg, p, net.JoinHostPort(d.IP, strconv.Itoa(d.Port)), false, "", "")
}

// docsProject mounts the built-in documentation deck on a memory file system.
func docsProject() (*project.Project, error) {
	fsys := afero.NewMemMapFs()
	if err := fsys.MkdirAll(filepath.Join(docsDir, project.StaticDir), 0o755); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryInternal, "prepare documentation").Build()
	}
	if err := afero.WriteFile(fsys, filepath.Join(docsDir, project.DocumentNames[0]), docsDeck, 0o644); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryInternal, "prepare documentation").Build()
	}
	icon, err := templates.ReadFile("templates/icon.png")
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryInternal, "prepare documentation").Build()
	}
	if err := afero.WriteFile(fsys, filepath.Join(docsDir, IconPath), icon, 0o644); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryInternal, "prepare documentation").Build()
	}
	return project.Find(fsys, docsDir)
}

package version

import "fmt"

// Version is the deckbuilder release, set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/deckbuilder/internal/version.Version=v0.3.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by `deckbuilder --version`.
func String() string {
	return fmt.Sprintf("deckbuilder %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}

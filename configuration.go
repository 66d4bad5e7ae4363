package portwatch

import (
	"os"
	"path"
	"slices"

	"github.com/pkg/errors"
)

// Standard paths to store portwatch related data
// https://specifications.freedesktop.org/basedir-spec/latest/
type StandardPaths struct {
	// Can be used to change the profile
	// Default: "portwatch"
	APPNAME string
	// Path to state directory, holds the scan history database
	// Default: "$XDG_STATE_HOME/$APPNAME" or "$HOME/.local/state/$APPNAME" if unset
	STATE_HOME string
	// Path to data directory, default destination for exports
	// Default: "$XDG_DATA_HOME/$APPNAME" or "$HOME/.local/share/$APPNAME"
	DATA_HOME string
}

func (s StandardPaths) init() error {
	for _, p := range []string{s.STATE_HOME, s.DATA_HOME} {
		if err := os.MkdirAll(p, 0700); err != nil {
			return errors.Wrapf(err, "failed to create standard path: %s", p)
		}
	}
	return nil
}

type stdpathsBuilder struct {
	stdpaths *StandardPaths
	home     string

	app   string
	state string
	data  string
}

func newStdpathsBuilder() *stdpathsBuilder {
	return &stdpathsBuilder{home: os.Getenv("HOME")}
}

func (b *stdpathsBuilder) withStdpaths(stdpaths *StandardPaths) *stdpathsBuilder {
	bcp := *b
	bcp.stdpaths = stdpaths
	return &bcp
}

func (b *stdpathsBuilder) isValid(val string) bool {
	return !slices.Contains([]string{"", "-"}, val)
}

func (b *stdpathsBuilder) bind(val, env, def string) string {
	if b.isValid(val) {
		return val
	}
	if v := os.Getenv(env); b.isValid(v) {
		return v
	}
	return def
}

func (b *stdpathsBuilder) bindToApp(val, env, def string) string {
	v := b.bind(val, env, def)
	if v == val {
		return val
	}
	return path.Join(v, b.app)
}

func (b *stdpathsBuilder) setApp(val string) *stdpathsBuilder {
	b.app = b.bind(val, "PORTWATCH_APPNAME", "portwatch")
	return b
}

func (b *stdpathsBuilder) setState(val string) *stdpathsBuilder {
	b.state = b.bindToApp(val, "XDG_STATE_HOME", path.Join(b.home, ".local", "state"))
	return b
}

func (b *stdpathsBuilder) setData(val string) *stdpathsBuilder {
	b.data = b.bindToApp(val, "XDG_DATA_HOME", path.Join(b.home, ".local", "share"))
	return b
}

func (b *stdpathsBuilder) build() *StandardPaths {
	stdpaths := b.stdpaths
	stdpaths.APPNAME = b.app
	stdpaths.STATE_HOME = b.state
	stdpaths.DATA_HOME = b.data
	return stdpaths
}

// Overrides empty standard paths. More of a purge or clean job.
func BindStandardPaths(stdpaths *StandardPaths) *StandardPaths {
	b := newStdpathsBuilder().withStdpaths(stdpaths)
	return b.setApp(stdpaths.APPNAME).
		setData(stdpaths.DATA_HOME).
		setState(stdpaths.STATE_HOME).
		build()
}

type Configuration struct {
	paths StandardPaths
}

// Where the scan history lives
func (c *Configuration) HistoryDB() DatabaseLocation {
	return DatabaseLocation(path.Join(c.paths.STATE_HOME, "history.db"))
}

// Default destination for exported snapshots
func (c *Configuration) Exports() string {
	return c.paths.DATA_HOME
}

func LoadConfiguration(stdpaths StandardPaths, conf *Configuration) error {
	// initialize paths
	if err := stdpaths.init(); err != nil {
		return errors.Wrap(err, "failed to initialize standard paths")
	}

	conf.paths = stdpaths
	return nil
}

package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/thatguystone/revreplace"
	"github.com/thatguystone/revreplace/manifest"
	"github.com/thatguystone/revreplace/rewrite"
	"gopkg.in/yaml.v2"
)

// DefaultModeEnv is the environment variable that selects the run mode
const DefaultModeEnv = "NODE_ENV"

// C stands for "config".
type C struct {
	// Manifest mapping original paths to revisioned paths
	Manifest string

	// Directory of built files to rewrite in place
	Output string

	// Files in Output to rewrite, in doublestar syntax
	Patterns []string

	// Added to every revisioned name (eg. a CDN origin)
	Prefix string

	// If rewritten files should be minified
	Minify bool

	// Files processed concurrently; 0 uses every CPU
	Workers int

	// Environment variable read for the mode
	ModeEnv string `yaml:"mode_env"`

	// Forces the mode, ignoring ModeEnv
	Mode string
}

// New creates a config with all defaults set
func New() *C {
	return &C{
		Manifest: manifest.DefaultName,
		Output:   "public/",
		Patterns: append([]string(nil), rewrite.DefaultPatterns...),
		ModeEnv:  DefaultModeEnv,
	}
}

// Load extra configs on top of this config.
func (c *C) Load(files ...string) error {
	for _, file := range files {
		b, err := os.ReadFile(file)
		if err != nil {
			return errors.Wrap(err, "failed to read config file")
		}

		err = yaml.UnmarshalStrict(b, c)
		if err != nil {
			return errors.Wrapf(err, "failed to unmarshal config file %s", file)
		}
	}

	return nil
}

// InDir prefixes each non-absolute path in C with the given dir.
func (c C) InDir(dir string) *C {
	pfx := []*string{
		&c.Manifest,
		&c.Output,
	}

	for _, p := range pfx {
		if !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}

	return &c
}

// RunMode determines the mode: Mode if set, otherwise the value of the
// ModeEnv variable, as looked up by getenv.
func (c *C) RunMode(getenv func(string) string) rewrite.Mode {
	if c.Mode != "" {
		return rewrite.ParseMode(c.Mode)
	}

	if c.ModeEnv == "" {
		return rewrite.Development
	}

	return rewrite.ParseMode(getenv(c.ModeEnv))
}

// Rewrite creates the config for a rewrite run
func (c *C) Rewrite(mode rewrite.Mode, log revreplace.Logger) rewrite.Config {
	return rewrite.Config{
		Manifest: c.Manifest,
		Output:   c.Output,
		Patterns: c.Patterns,
		Mode:     mode,
		Prefix:   c.Prefix,
		Minify:   c.Minify,
		Workers:  c.Workers,
		Log:      log,
	}
}

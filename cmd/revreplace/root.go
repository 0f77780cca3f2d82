package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thatguystone/revreplace"
	"github.com/thatguystone/revreplace/internal"
	"github.com/thatguystone/revreplace/internal/config"
	"github.com/thatguystone/revreplace/rewrite"
	"github.com/thatguystone/revreplace/watch"
)

const rootLongDescription = `Rewrite references to assets in built files so that they point at their
revisioned (content-hashed) names, as recorded in a rev manifest.

Config files are YAML and are applied in order; flags override them. Nothing
is rewritten when the mode is development: by default, when $NODE_ENV is
empty or "development".`

type flags struct {
	dir      string
	manifest string
	output   string
	patterns []string
	mode     string
	prefix   string
	minify   bool
	workers  int
	watch    bool
}

func newRootCmd(getenv func(string) string, logf internal.LogFunc) *cobra.Command {
	var fl flags

	cmd := &cobra.Command{
		Use:           "revreplace [config.yml ...]",
		Short:         "Rewrite asset references to revisioned names",
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := internal.NewLogger("revreplace", logf)

			err := run(cmd, args, fl, getenv, log)
			if err != nil {
				log.Error(err, "failed")
			}

			return err
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&fl.dir, "dir", "C", ".", "directory relative paths are resolved against")
	fs.StringVarP(&fl.manifest, "manifest", "m", "", "path to the rev manifest")
	fs.StringVarP(&fl.output, "output", "o", "", "directory of built files to rewrite")
	fs.StringArrayVarP(&fl.patterns, "pattern", "p", nil, "files in the output dir to rewrite (doublestar syntax, repeatable)")
	fs.StringVar(&fl.mode, "mode", "", "force the mode instead of reading the environment")
	fs.StringVar(&fl.prefix, "prefix", "", "prefix added to every revisioned name (eg. a CDN origin)")
	fs.BoolVar(&fl.minify, "minify", false, "minify files whose references were rewritten")
	fs.IntVarP(&fl.workers, "workers", "j", 0, "files processed concurrently (0 = all CPUs)")
	fs.BoolVarP(&fl.watch, "watch", "w", false, "rewrite again whenever the manifest changes")

	return cmd
}

func run(
	cmd *cobra.Command,
	args []string,
	fl flags,
	getenv func(string) string,
	log revreplace.Logger) error {

	cfg := config.New()

	err := cfg.Load(args...)
	if err != nil {
		return err
	}

	fl.apply(cmd.Flags(), cfg)
	cfg = cfg.InDir(fl.dir)

	rc := cfg.Rewrite(cfg.RunMode(getenv), log)

	err = runOnce(cmd.Context(), rc, log)
	if err != nil || !fl.watch {
		return err
	}

	return watchManifest(cmd.Context(), rc, log)
}

// apply copies all flags that were explicitly set over the config
func (fl flags) apply(fs *pflag.FlagSet, cfg *config.C) {
	if fs.Changed("manifest") {
		cfg.Manifest = fl.manifest
	}

	if fs.Changed("output") {
		cfg.Output = fl.output
	}

	if fs.Changed("pattern") {
		cfg.Patterns = fl.patterns
	}

	if fs.Changed("mode") {
		cfg.Mode = fl.mode
	}

	if fs.Changed("prefix") {
		cfg.Prefix = fl.prefix
	}

	if fs.Changed("minify") {
		cfg.Minify = fl.minify
	}

	if fs.Changed("workers") {
		cfg.Workers = fl.workers
	}
}

func runOnce(ctx context.Context, rc rewrite.Config, log revreplace.Logger) error {
	stats, err := rewrite.RunContext(ctx, rc)
	if err != nil {
		return err
	}

	if stats.Skipped {
		return nil
	}

	if stats.Duration > time.Millisecond {
		stats.Duration = stats.Duration.Truncate(time.Millisecond)
	}

	log.Log(fmt.Sprintf(
		"rewrote %d of %d files (%d references) in %v",
		stats.Rewritten, stats.Files, stats.Replaced, stats.Duration))

	return nil
}

// watchManifest reruns the rewrite every time the manifest changes, until ctx
// is done. Failed reruns are logged, not returned: the next manifest change
// might fix them.
func watchManifest(ctx context.Context, rc rewrite.Config, log revreplace.Logger) error {
	path, err := filepath.Abs(rc.Manifest)
	if err != nil {
		return err
	}

	// Events come back with symlinks resolved
	dir, err := filepath.EvalSymlinks(filepath.Dir(path))
	if err != nil {
		return err
	}

	path = filepath.Join(dir, filepath.Base(path))

	w, err := watch.New(dir)
	if err != nil {
		return err
	}

	defer w.Stop()

	changed := make(chan struct{}, 1)
	w.Notify(watch.WatcherFunc(func(evs watch.Events) {
		if evs.Has(path) {
			select {
			case changed <- struct{}{}:
			default:
			}
		}
	}))

	log.Log(fmt.Sprintf("watching %s for changes...", rc.Manifest))

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-changed:
			log.Log("manifest changed, rewriting...")

			err := runOnce(ctx, rc, log)
			if err != nil {
				log.Error(err, "rewrite failed")
			}
		}
	}
}

package rewrite

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/thatguystone/revreplace"
	"github.com/thatguystone/revreplace/internal"
	"github.com/thatguystone/revreplace/manifest"
	"golang.org/x/sync/errgroup"
)

// DefaultPatterns matches every CSS and JS file in the output dir
var DefaultPatterns = []string{"**/*.{css,js}"}

// Config configures a Run
type Config struct {
	Manifest string            // Path to the manifest
	Output   string            // Dir of built files, rewritten in place
	Patterns []string          // Files in Output to rewrite (doublestar syntax)
	Mode     Mode              // Nothing is done in Development
	Prefix   string            // Added to every revisioned name (eg. a CDN origin)
	Minify   bool              // Minify files whose references were rewritten
	Workers  int               // Files processed concurrently
	Log      revreplace.Logger // Where to log progress
}

// Stats describes what a Run did
type Stats struct {
	Skipped   bool // Run was a no-op because of its Mode
	Files     int  // Files processed
	Rewritten int  // Files whose content changed
	Replaced  int  // References replaced across all files
	Duration  time.Duration
}

// Run rewrites all matching files in cfg.Output
func Run(cfg Config) (Stats, error) {
	return RunContext(context.Background(), cfg)
}

// RunContext is Run with a context. Cancelling ctx stops new files from
// being processed; files already being written are finished.
//
// If the manifest can't be loaded, no file is touched and a
// *manifest.LoadError is returned. Files that fail to be read or written are
// reported in an Error; the remaining files are still processed.
func RunContext(ctx context.Context, cfg Config) (Stats, error) {
	start := time.Now()

	if len(cfg.Patterns) == 0 {
		cfg.Patterns = DefaultPatterns
	}

	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(-1)
	}

	if cfg.Log == nil {
		cfg.Log = internal.NewLogger("rewrite", log.Printf)
	}

	if cfg.Mode == Development {
		cfg.Log.Log(fmt.Sprintf("%s mode: leaving files untouched", cfg.Mode))
		return Stats{Skipped: true}, nil
	}

	m, err := manifest.Load(cfg.Manifest)
	if err != nil {
		return Stats{}, err
	}

	paths, err := findSources(cfg.Output, cfg.Patterns)
	if err != nil {
		return Stats{}, err
	}

	r := runner{
		cfg: cfg,
		rw:  New(m.WithPrefix(cfg.Prefix)),
		err: make(Error),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	for _, path := range paths {
		path := path

		g.Go(func() error {
			err := gctx.Err()
			if err == nil {
				r.process(path)
			}

			return err
		})
	}

	err = g.Wait()

	r.stats.Duration = time.Since(start)

	if err != nil {
		return r.stats, errors.Wrap(err, "rewrite interrupted")
	}

	return r.stats, r.err.getError()
}

type runner struct {
	cfg Config
	rw  *Rewriter

	mtx   sync.Mutex
	err   Error
	stats Stats
}

func (r *runner) process(path string) {
	sf, err := readSource(r.cfg.Output, path)
	if err != nil {
		r.addError(path, ReadError{Path: path, Err: err})
		return
	}

	res := r.rw.RewriteFile(sf)

	// Files without references pass through byte-for-byte, even when minifying
	if r.cfg.Minify && res.Changed() {
		res.Content, err = minifyContent(path, res.Content)
		if err != nil {
			r.addError(path, errors.Wrap(err, "minify failed"))
			return
		}
	}

	r.count(res)

	// Leave identical files alone so that their mod times don't change
	if res.Content == sf.Content {
		return
	}

	err = saveResult(r.cfg.Output, res)
	if err != nil {
		r.addError(path, WriteError{Path: path, Err: err})
		return
	}

	r.cfg.Log.Log(fmt.Sprintf("%s: replaced %d references", path, res.Replaced))
}

func (r *runner) count(res Result) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.stats.Files++
	r.stats.Replaced += res.Replaced
	if res.Changed() {
		r.stats.Rewritten++
	}
}

func (r *runner) addError(path string, err error) {
	r.cfg.Log.Error(err, path)

	r.mtx.Lock()
	r.err.add(path, err)
	r.mtx.Unlock()
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/thatguystone/cog/check"
)

type testLog struct {
	mtx   sync.Mutex
	lines []string
}

func (l *testLog) logf(format string, a ...interface{}) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	l.lines = append(l.lines, fmt.Sprintf(format, a...))
}

func (l *testLog) String() string {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	return strings.Join(l.lines, "\n")
}

type testSite struct {
	c   *check.C
	dir string
}

func newTestSite(c *check.C) *testSite {
	dir, err := os.MkdirTemp("", "revreplace-cmd-")
	c.Must.Nil(err)

	site := &testSite{c: c, dir: dir}
	site.write("rev-manifest.json", `{"app.js": "app-a1b2c3.js"}`)
	site.write("public/index.js", `<script src="app.js">`)

	return site
}

func (s *testSite) clean() {
	os.RemoveAll(s.dir)
}

func (s *testSite) write(path, content string) {
	path = filepath.Join(s.dir, path)

	err := os.MkdirAll(filepath.Dir(path), 0750)
	s.c.Must.Nil(err)

	err = os.WriteFile(path, []byte(content), 0640)
	s.c.Must.Nil(err)
}

func (s *testSite) read(path string) string {
	b, err := os.ReadFile(filepath.Join(s.dir, path))
	s.c.Must.Nil(err)
	return string(b)
}

func (s *testSite) exec(env map[string]string, args ...string) (*testLog, error) {
	var log testLog

	err := s.execContext(context.Background(), &log, env, args...)
	s.c.Log(log.String())

	return &log, err
}

func (s *testSite) execContext(
	ctx context.Context,
	log *testLog,
	env map[string]string,
	args ...string,
) error {
	cmd := newRootCmd(
		func(k string) string { return env[k] },
		log.logf)
	cmd.SetArgs(append([]string{"-C", s.dir}, args...))

	return cmd.ExecuteContext(ctx)
}

// waitFor polls until cond is true, failing the test after a while
func (s *testSite) waitFor(what string, cond func() bool) {
	s.c.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			s.c.Fatalf("timed out waiting for %s", what)
		}

		time.Sleep(10 * time.Millisecond)
	}
}

func TestRootProduction(t *testing.T) {
	c := check.New(t)

	site := newTestSite(c)
	defer site.clean()

	log, err := site.exec(map[string]string{"NODE_ENV": "production"})
	c.Must.Nil(err)

	c.Equal(site.read("public/index.js"), `<script src="app-a1b2c3.js">`)
	c.Contains(log.String(), "rewrote 1 of 1 files")
}

func TestRootDevelopment(t *testing.T) {
	c := check.New(t)

	site := newTestSite(c)
	defer site.clean()

	for _, env := range []map[string]string{
		nil,
		{"NODE_ENV": "development"},
	} {
		_, err := site.exec(env)
		c.Must.Nil(err)
		c.Equal(site.read("public/index.js"), `<script src="app.js">`)
	}
}

func TestRootFlags(t *testing.T) {
	c := check.New(t)

	site := newTestSite(c)
	defer site.clean()

	site.write("build/manifest.json", `{"app.js": "app-ffff.js"}`)
	site.write("dist/page.html", `<script src="app.js">`)

	_, err := site.exec(nil,
		"--mode", "production",
		"--manifest", "build/manifest.json",
		"--output", "dist",
		"--pattern", "**/*.html")
	c.Must.Nil(err)

	c.Equal(site.read("dist/page.html"), `<script src="app-ffff.js">`)
	c.Equal(site.read("public/index.js"), `<script src="app.js">`)
}

func TestRootConfigFile(t *testing.T) {
	c := check.New(t)

	site := newTestSite(c)
	defer site.clean()

	site.write("revreplace.yml", "mode_env: APP_ENV\nprefix: /assets/\n")
	site.write("public/index.js", `["app.js", "vendor.js"]`)

	_, err := site.exec(
		map[string]string{"APP_ENV": "staging"},
		filepath.Join(site.dir, "revreplace.yml"))
	c.Must.Nil(err)

	c.Equal(site.read("public/index.js"), `["/assets/app-a1b2c3.js", "vendor.js"]`)
}

func TestRootErrors(t *testing.T) {
	c := check.New(t)

	site := newTestSite(c)
	defer site.clean()

	log, err := site.exec(
		map[string]string{"NODE_ENV": "production"},
		"--manifest", "narp.json")
	c.NotNil(err)
	c.Contains(log.String(), "E: revreplace: failed")
	c.Equal(site.read("public/index.js"), `<script src="app.js">`)

	_, err = site.exec(nil, filepath.Join(site.dir, "narp.yml"))
	c.NotNil(err)
}

func TestRootWatch(t *testing.T) {
	c := check.New(t)

	site := newTestSite(c)
	defer site.clean()

	site.write("public/vendor.js", `import "vendor/lib.js";`)

	var log testLog
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errs := make(chan error, 1)
	go func() {
		errs <- site.execContext(ctx, &log,
			map[string]string{"NODE_ENV": "production"},
			"--watch")
	}()

	site.waitFor("watch to start", func() bool {
		return strings.Contains(log.String(), "watching ")
	})

	c.Equal(site.read("public/index.js"), `<script src="app-a1b2c3.js">`)
	c.Equal(site.read("public/vendor.js"), `import "vendor/lib.js";`)

	site.write("rev-manifest.json",
		`{"app.js": "app-a1b2c3.js", "vendor/lib.js": "vendor/lib-d4e5.js"}`)

	site.waitFor("rewrite after manifest change", func() bool {
		b, err := os.ReadFile(filepath.Join(site.dir, "public/vendor.js"))
		return err == nil && string(b) == `import "vendor/lib-d4e5.js";`
	})

	c.Equal(site.read("public/index.js"), `<script src="app-a1b2c3.js">`)

	cancel()

	select {
	case err := <-errs:
		c.Nil(err)
	case <-time.After(5 * time.Second):
		c.Fatal("watch did not stop after cancel")
	}

	c.Log(log.String())
	c.Contains(log.String(), "manifest changed, rewriting...")
}

package rewrite

import (
	"os"
	"path/filepath"
	"time"

	"github.com/thatguystone/cog/cfs"
	"github.com/thatguystone/cog/check"
)

type testNS struct {
	c    *check.C
	root string
}

func newTestNS(c *check.C, files map[string]string) *testNS {
	root, err := os.MkdirTemp("", "revreplace-test-")
	c.Must.Nil(err)

	ns := testNS{
		c:    c,
		root: root,
	}

	for path, content := range files {
		ns.writeFile(path, content)
	}

	return &ns
}

func (ns *testNS) clean() {
	err := os.RemoveAll(ns.root)
	ns.c.Nil(err)
}

func (ns *testNS) path(p string) string {
	return filepath.Join(ns.root, filepath.Clean(p))
}

func (ns *testNS) writeFile(path, content string) {
	ns.c.Helper()

	path = ns.path(path)

	err := os.MkdirAll(filepath.Dir(path), 0750)
	ns.c.Must.Nil(err)

	err = os.WriteFile(path, []byte(content), 0640)
	ns.c.Must.Nil(err)
}

func (ns *testNS) readFile(path string) string {
	ns.c.Helper()

	b, err := os.ReadFile(ns.path(path))
	ns.c.Must.Nil(err)
	return string(b)
}

func (ns *testNS) checkFileExists(path string) {
	ns.c.Helper()

	ok, err := cfs.FileExists(ns.path(path))
	ns.c.Must.Nil(err)
	ns.c.True(ok, "expected file %q to exist", path)
}

// age sets a file's mod time into the past and returns it
func (ns *testNS) age(path string) time.Time {
	ns.c.Helper()

	mod := time.Now().Add(-time.Hour).Truncate(time.Second)
	err := os.Chtimes(ns.path(path), mod, mod)
	ns.c.Must.Nil(err)

	return mod
}

func (ns *testNS) modTime(path string) time.Time {
	ns.c.Helper()

	info, err := os.Stat(ns.path(path))
	ns.c.Must.Nil(err)
	return info.ModTime()
}

func (ns *testNS) config(mode Mode) Config {
	return Config{
		Manifest: ns.path("/rev-manifest.json"),
		Output:   ns.path("/public"),
		Mode:     mode,
		Log:      testLogger{ns.c},
	}
}

type testLogger struct {
	c *check.C
}

func (l testLogger) Log(msg string) {
	l.c.Log(msg)
}

func (l testLogger) Error(err error, msg string) {
	l.c.Logf("%s: %v", msg, err)
}

package rewrite

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// findSources finds all regular files under root that match any of the
// patterns. Paths are slash-separated, relative to root, and sorted.
func findSources(root string, patterns []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrap(err, "invalid output dir")
	}

	if !info.IsDir() {
		return nil, errors.Errorf("output %q is not a directory", root)
	}

	fsys := os.DirFS(root)
	seen := make(map[string]struct{})

	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Wrapf(err, "invalid pattern %q", pattern)
		}

		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}

			seen[m] = struct{}{}
			paths = append(paths, m)
		}
	}

	sort.Strings(paths)
	return paths, nil
}

func readSource(root, rel string) (SourceFile, error) {
	b, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return SourceFile{}, err
	}

	return SourceFile{
		Path:    rel,
		Content: string(b),
	}, nil
}

// saveResult is writeResult; tests swap it to fail writes
var saveResult = writeResult

// writeResult saves a result over its source, keeping the source's
// permissions.
func writeResult(root string, res Result) error {
	path := filepath.Join(root, filepath.FromSlash(res.Path))

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	defer f.Close()

	_, err = f.WriteString(res.Content)
	if err != nil {
		return err
	}

	return f.Close()
}

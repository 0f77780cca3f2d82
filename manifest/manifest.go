// Package manifest loads rev manifests: JSON objects that map original asset
// paths to their revisioned names.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// DefaultName is the file name manifest generators write by default
const DefaultName = "rev-manifest.json"

// A Manifest maps original relative paths to revisioned relative paths. It
// must not be modified once loaded.
type Manifest map[string]string

// A LoadError is returned when a manifest can't be read or is invalid
type LoadError struct {
	Path string
	Err  error
}

func (err *LoadError) Error() string {
	return fmt.Sprintf("failed to load manifest %q: %v", err.Path, err.Err)
}

// Cause implements errors.Cause
func (err *LoadError) Cause() error { return err.Err }

// Unwrap implements errors.Unwrap
func (err *LoadError) Unwrap() error { return err.Err }

// Load reads and parses the manifest at the given path
func Load(path string) (Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	m, err := Parse(b)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	return m, nil
}

// Parse parses a manifest from its JSON form. Every key and value must be a
// relative path that stays within its root; duplicate keys are rejected.
func Parse(b []byte) (Manifest, error) {
	dec := json.NewDecoder(bytes.NewReader(b))

	err := expectDelim(dec, '{')
	if err != nil {
		return nil, err
	}

	m := make(Manifest)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "invalid key")
		}

		rawKey := tok.(string)

		var rawVal string
		err = dec.Decode(&rawVal)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid value for %q", rawKey)
		}

		key, err := cleanPath(rawKey)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid key %q", rawKey)
		}

		val, err := cleanPath(rawVal)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid value for %q", rawKey)
		}

		if _, ok := m[key]; ok {
			return nil, errors.Errorf("duplicate key %q", rawKey)
		}

		m[key] = val
	}

	err = expectDelim(dec, '}')
	if err != nil {
		return nil, err
	}

	_, err = dec.Token()
	if err != io.EOF {
		return nil, errors.New("unexpected data after manifest object")
	}

	return m, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return errors.Wrap(err, "invalid manifest")
	}

	if d, ok := tok.(json.Delim); !ok || d != want {
		return errors.Errorf("invalid manifest: expected %q, got %v", want, tok)
	}

	return nil
}

func cleanPath(p string) (string, error) {
	p = strings.Replace(p, `\`, "/", -1)

	switch {
	case p == "":
		return "", errors.New("empty path")
	case path.IsAbs(p):
		return "", errors.New("path must be relative")
	}

	p = path.Clean(p)
	if p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return "", errors.New("path escapes its root")
	}

	return p, nil
}

// Keys returns all original paths, sorted
func (m Manifest) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)
	return keys
}

// WithPrefix returns a copy of the manifest with the prefix added to every
// revisioned name, so that references point at eg. a CDN. Originals are
// matched as-is. An empty prefix returns m.
func (m Manifest) WithPrefix(prefix string) Manifest {
	if prefix == "" {
		return m
	}

	pm := make(Manifest, len(m))
	for k, v := range m {
		pm[k] = prefix + v
	}

	return pm
}

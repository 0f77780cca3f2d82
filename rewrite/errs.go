package rewrite

import (
	"fmt"
	"sort"
	"strings"

	"github.com/thatguystone/cog/stringc"
	"github.com/thatguystone/revreplace/internal"
)

// An Error is returned when any files couldn't be rewritten. It maps each
// file, relative to the output dir, to what went wrong.
type Error map[string][]error

func (err Error) getError() error {
	if len(err) == 0 {
		return nil
	}

	return err
}

func (err Error) add(path string, e error) {
	err[path] = append(err[path], e)
}

func (err Error) Error() string {
	var paths []string
	for path := range err {
		paths = append(paths, path)
	}

	sort.Strings(paths)

	var b strings.Builder
	b.WriteString("the following files have errors:\n")

	for _, path := range paths {
		fmt.Fprintf(&b, internal.Indent+"%q\n", path)

		for _, err := range err[path] {
			b.WriteString(stringc.Indent(err.Error(), internal.Indent+internal.Indent))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// A ReadError is returned when a source file can't be read
type ReadError struct {
	Path string
	Err  error
}

func (err ReadError) Error() string {
	return fmt.Sprintf("read %s failed: %v", err.Path, err.Err)
}

// Cause implements errors.Cause
func (err ReadError) Cause() error { return err.Err }

// A WriteError is returned when rewritten content can't be saved
type WriteError struct {
	Path string
	Err  error
}

func (err WriteError) Error() string {
	return fmt.Sprintf("write %s failed: %v", err.Path, err.Err)
}

// Cause implements errors.Cause
func (err WriteError) Cause() error { return err.Err }

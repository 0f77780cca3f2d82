// Package revreplace rewrites asset references in built files to point at
// their revisioned names.
package revreplace

// A Logger is used for all revreplace logging
type Logger interface {
	Log(msg string)
	Error(err error, msg string)
}

package rewrite

import (
	"path"

	"github.com/tdewolff/minify"
	"github.com/tdewolff/minify/css"
	"github.com/tdewolff/minify/js"
)

const (
	cssType = "text/css"
	jsType  = "application/javascript"
)

var (
	mini = minify.New()

	mediaTypes = map[string]string{
		".css": cssType,
		".js":  jsType,
		".mjs": jsType,
	}
)

func init() {
	mini.AddFunc(cssType, css.Minify)
	mini.AddFunc(jsType, js.Minify)
}

// minifyContent minifies content by the file's extension. Files that aren't
// CSS or JS are returned as-is.
func minifyContent(file, content string) (string, error) {
	mediaType, ok := mediaTypes[path.Ext(file)]
	if !ok {
		return content, nil
	}

	b, err := mini.Bytes(mediaType, []byte(content))
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// Package templates embeds the page templates and static assets.
package templates

import (
	"embed"
	"io/fs"
)

//go:embed *.tmpl
var FS embed.FS

//go:embed assets
var assets embed.FS

// Assets returns the static files rooted at the assets directory.
func Assets() fs.FS {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}

package ui

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

//go:embed all:dist
var distFS embed.FS

// Page files inside dist/.
const (
	indexPage = "index.html"
	loginPage = "login.html"
)

// DistFS returns the embedded dist/ filesystem with the "dist" prefix stripped.
func DistFS() (fs.FS, error) {
	return fs.Sub(distFS, "dist")
}

// Handler returns an http.Handler that serves the embedded pages. /login gets
// the login page, static files are served directly, and other paths without
// a file extension get the board page. Missing assets return 404.
func Handler() (http.Handler, error) {
	sub, err := DistFS()
	if err != nil {
		return nil, err
	}

	fileServer := http.FileServerFS(sub)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := path.Clean(r.URL.Path)
		switch p {
		case "/":
			servePage(w, r, sub, indexPage)
			return
		case "/login":
			servePage(w, r, sub, loginPage)
			return
		}

		p = strings.TrimPrefix(p, "/")
		if _, err := fs.Stat(sub, p); err == nil && !strings.HasSuffix(p, ".html") {
			fileServer.ServeHTTP(w, r)
			return
		}

		// Has extension (e.g. .js, .css, .png): genuine missing asset
		if strings.Contains(path.Base(p), ".") {
			http.NotFound(w, r)
			return
		}

		servePage(w, r, sub, indexPage)
	}), nil
}

func servePage(w http.ResponseWriter, r *http.Request, fsys fs.FS, name string) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		http.Error(w, "page not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

// Package web holds the embedded HTML views and static assets of the site.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/template/html/v2"
)

// DefaultLayout wraps every page.
const DefaultLayout = "layouts/main"

//go:embed views
var viewsFS embed.FS

//go:embed static
var staticFS embed.FS

// ServiceOptions are the topics offered in the contact and request forms.
var ServiceOptions = []string{
	"Website institucional",
	"Loja online",
	"Aplicação móvel",
	"Software à medida",
	"Consultoria tecnológica",
}

var lisbon = loadLocation("Europe/Lisbon")

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NewEngine returns the Fiber view engine over the embedded templates.
func NewEngine() *html.Engine {
	views, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(views), ".html")
	engine.AddFunc("formatDate", func(t time.Time) string {
		return t.In(lisbon).Format("02/01/2006 15:04")
	})
	engine.AddFunc("serviceOptions", func() []string {
		return ServiceOptions
	})
	return engine
}

// Static exposes the embedded assets rooted at static/.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

package api

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/switzea/portal/internal/interaction"
	"github.com/switzea/portal/internal/middleware"
	"github.com/switzea/portal/internal/portal"
)

func renderHTML(c *gin.Context, status int, node g.Node) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	_ = node.Render(c.Writer)
}

// handlePage serves the login page to everyone and the app pages of the menu
// to signed-in users only.
func (s *Server) handlePage(c *gin.Context) {
	page := c.Param("page")
	if page == path.Base(s.wrapper.LoginPath()) {
		renderHTML(c, http.StatusOK, loginPage())
		return
	}
	title, ok := s.appPages()[page]
	if !ok {
		c.JSON(http.StatusNotFound, middleware.ErrorResponse{Error: "page not found"})
		return
	}

	ui := middleware.RequestUI(c)
	if _, err := s.wrapper.WithUI(ui).CheckAuth(c.Request.Context()); err != nil {
		if errors.Is(err, portal.ErrUnauthenticated) {
			dest, _ := ui.RedirectTarget()
			c.Redirect(http.StatusSeeOther, dest)
			return
		}
		c.AbortWithStatus(http.StatusRequestTimeout)
		return
	}
	renderHTML(c, http.StatusOK, s.nav.Page(title, h.Div(h.ID("app"), g.Attr("data-page", strings.TrimSuffix(page, ".html")))))
}

// appPages maps the page file names the menu links to onto their titles.
func (s *Server) appPages() map[string]string {
	m := s.nav.Menu()
	pages := map[string]string{path.Base(s.cfg.DashboardPath): "Dashboard", m.Dashboard: "Dashboard"}
	for _, l := range m.Links {
		pages[path.Base(l.Href)] = pageTitle(l.Href)
	}
	return pages
}

func pageTitle(href string) string {
	name := strings.TrimSuffix(path.Base(href), path.Ext(href))
	if name == "" {
		return href
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func loginPage() g.Node {
	return h.Doctype(
		h.HTML(
			h.Lang("da"),
			h.Head(
				h.Meta(h.Charset("utf-8")),
				h.Meta(h.Name("viewport"), h.Content("width=device-width, initial-scale=1")),
				h.TitleEl(g.Text("Log ind | Switzea")),
			),
			h.Body(h.Main(h.ID("login"))),
		),
	)
}

func (s *Server) noticePage(notices []interaction.Notice) g.Node {
	return s.nav.Page("Fejl",
		h.Ul(h.Class("notices"),
			g.Map(notices, func(n interaction.Notice) g.Node {
				return h.Li(h.Class("notice notice-"+string(n.Level)), g.Text(n.Message))
			}),
		),
	)
}

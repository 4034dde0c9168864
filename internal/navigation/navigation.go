// Package navigation renders the navigation bar shared by every portal app
// and registers the endpoints it relies on.
package navigation

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/switzea/portal/internal/interaction"
	"github.com/switzea/portal/internal/portal"
)

// Paths registered by Init.
const (
	LogoutPath = "/logout"
	CSSPath    = "/navigation.css"
	HTMLPath   = "/navigation.html"
)

// Navigation renders one menu.
type Navigation struct {
	menu Menu
}

// New returns a Navigation for menu.
func New(menu Menu) *Navigation {
	return &Navigation{menu: menu}
}

var defaultNav = New(DefaultMenu())

// HTML returns the navigation bar markup with the default menu.
func HTML() string { return defaultNav.HTML() }

// CSS returns the navigation bar style sheet.
func CSS() string { return css }

// Init registers the logout handler and the navigation assets on routes.
func Init(routes gin.IRoutes, logout gin.HandlerFunc) {
	defaultNav.Register(routes, logout)
}

// HTML returns the navigation bar markup.
func (n *Navigation) HTML() string {
	var b strings.Builder
	_ = n.Node().Render(&b)
	return b.String()
}

// Register installs logout at LogoutPath and serves the assets.
func (n *Navigation) Register(routes gin.IRoutes, logout gin.HandlerFunc) {
	markup := n.HTML()
	routes.POST(LogoutPath, logout)
	routes.GET(CSSPath, func(c *gin.Context) {
		c.Data(http.StatusOK, "text/css; charset=utf-8", []byte(css))
	})
	routes.GET(HTMLPath, func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(markup))
	})
}

// Node is the navigation bar as a gomponents node.
func (n *Navigation) Node() g.Node {
	m := n.menu
	return h.Div(h.Class("switzea-nav-bar"),
		h.Div(h.Class("nav-content"),
			h.Button(
				h.Type("button"),
				h.Class("nav-back-btn"),
				g.Attr("onclick", fmt.Sprintf("window.location.href=%q", m.Dashboard)),
				g.Text(m.BackLabel),
			),
			h.Div(h.Class("nav-app-links"),
				g.Map(m.Links, func(l MenuLink) g.Node {
					return h.A(h.Href(l.Href), g.Text(l.Label))
				}),
			),
			h.Form(
				h.Method("post"),
				h.Action(strings.TrimPrefix(LogoutPath, "/")),
				h.Class("nav-logout"),
				g.Attr("onsubmit", fmt.Sprintf("return confirm(%q)", portal.LogoutQuestion)),
				h.Input(h.Type("hidden"), h.Name(interaction.ConfirmParam), h.Value("yes")),
				h.Button(h.Type("submit"), h.Class("nav-logout-btn"), g.Text(m.LogoutLabel)),
			),
		),
	)
}

// Page is the shell of an authenticated app page: the navigation bar above content.
func (n *Navigation) Page(title string, content ...g.Node) g.Node {
	return h.Doctype(
		h.HTML(
			h.Lang("da"),
			h.Head(
				h.Meta(h.Charset("utf-8")),
				h.Meta(h.Name("viewport"), h.Content("width=device-width, initial-scale=1")),
				h.TitleEl(g.Text(title+" | Switzea")),
				h.Link(h.Rel("stylesheet"), h.Href(strings.TrimPrefix(CSSPath, "/"))),
			),
			h.Body(
				n.Node(),
				h.Main(h.Class("switzea-app"), g.Group(content)),
			),
		),
	)
}

const css = `
/* SWITZEA Navigation Bar */
.switzea-nav-bar {
    background: linear-gradient(135deg, #2C5F7D 0%, #3A7CA5 100%);
    color: white;
    padding: 12px 20px;
    box-shadow: 0 2px 8px rgba(44,95,125,0.2);
    position: sticky;
    top: 0;
    z-index: 999;
}

.nav-content {
    max-width: 1400px;
    margin: 0 auto;
    display: flex;
    justify-content: space-between;
    align-items: center;
    gap: 20px;
}

.nav-logout {
    margin: 0;
}

.nav-back-btn, .nav-logout-btn {
    background: #8B7355;
    border: none;
    color: white;
    padding: 8px 16px;
    border-radius: 6px;
    cursor: pointer;
    font-size: 14px;
    font-weight: 500;
    transition: all 0.2s;
}

.nav-back-btn:hover, .nav-logout-btn:hover {
    background: #6B5845;
    transform: translateY(-1px);
}

.nav-app-links {
    display: flex;
    gap: 12px;
}

.nav-app-links a {
    color: white;
    text-decoration: none;
    padding: 6px 12px;
    border-radius: 4px;
    font-size: 13px;
    transition: background 0.2s;
}

.nav-app-links a:hover {
    background: rgba(139, 115, 85, 0.3);
}

@media (max-width: 768px) {
    .nav-content {
        flex-direction: column;
        gap: 8px;
    }
    .nav-app-links {
        order: -1;
    }
}
`

// Menu returns the menu n renders.
func (n *Navigation) Menu() Menu {
	return n.menu
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"

	"github.com/switzea/portal/internal/config"
	"github.com/switzea/portal/internal/identity"
	"github.com/switzea/portal/internal/identity/identitytest"
	"github.com/switzea/portal/internal/interaction"
	"github.com/switzea/portal/internal/navigation"
	"github.com/switzea/portal/internal/portal"
	"github.com/switzea/portal/pkg/database"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeIssuer struct{ err error }

func (f fakeIssuer) ExchangeIDToken(_ context.Context, idToken string, _ time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "cookie-for-" + idToken, nil
}

type harness struct {
	server *Server
	ids    *identitytest.Provider
	store  *database.MemoryStore
}

func testConfig() *config.Config {
	return &config.Config{
		FirebaseProjectID: "switzea-test",
		StoreBackend:      config.StoreMemory,
		LoginPath:         "/index.html",
		DashboardPath:     "/dashboard.html",
		SessionCookieName: "__session",
		SessionCookieTTL:  time.Hour,
		RateLimitRPS:      1000,
		RateLimitBurst:    1000,
	}
}

func newHarness(t *testing.T, issuer SessionIssuer) *harness {
	t.Helper()
	ids := identitytest.New()
	ids.Add("good-cookie", &identity.Session{UID: "u1", Email: "u1@switzea.dk", Authenticated: true})
	store := database.NewMemoryStore()
	w, err := portal.New(portal.Options{Identity: ids, Store: store, LoginPath: "/index.html"})
	require.NoError(t, err)

	s, err := NewServer(Deps{
		Config:   testConfig(),
		Wrapper:  w,
		Sessions: issuer,
		Metrics:  promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{}),
	})
	require.NoError(t, err)
	return &harness{server: s, ids: ids, store: store}
}

func (h *harness) do(req *http.Request, signedIn bool) *httptest.ResponseRecorder {
	if signedIn {
		req.AddCookie(&http.Cookie{Name: "__session", Value: "good-cookie"})
	}
	w := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(w, req)
	return w
}

func jsonRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

type apiResponse struct {
	ID        string               `json:"id"`
	Error     string               `json:"error"`
	Deleted   bool                 `json:"deleted"`
	LoggedOut bool                 `json:"loggedOut"`
	Redirect  string               `json:"redirect"`
	Notices   []interaction.Notice `json:"notices"`
	Documents []map[string]any     `json:"documents"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var r apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r), w.Body.String())
	return r
}

func TestNewServer_RequiresDeps(t *testing.T) {
	_, err := NewServer(Deps{})
	require.Error(t, err)
	_, err = NewServer(Deps{Config: testConfig()})
	require.Error(t, err)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(httptest.NewRequest(http.MethodGet, "/health", nil), false)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = h.do(httptest.NewRequest(http.MethodGet, "/metrics", nil), false)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCollections_RequireSession(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/collections/kunder", nil), false)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "/index.html", decode(t, w).Redirect)
}

func TestCollections_CRUD(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(jsonRequest(http.MethodPost, "/api/v1/collections/kunder", map[string]any{"name": "Acme", "status": "ny"}), true)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)
	require.NotEmpty(t, created.ID)
	require.Equal(t, []interaction.Notice{{Level: interaction.LevelSuccess, Message: "Gemt"}}, created.Notices)

	w = h.do(httptest.NewRequest(http.MethodGet, "/api/v1/collections/kunder", nil), true)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)
	require.Len(t, list.Documents, 1)
	require.Equal(t, created.ID, list.Documents[0]["id"])
	require.Equal(t, "Acme", list.Documents[0]["name"])
	require.Equal(t, "u1", list.Documents[0]["createdBy"])

	w = h.do(jsonRequest(http.MethodPatch, "/api/v1/collections/kunder/"+created.ID, map[string]any{"status": "aktiv"}), true)
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(httptest.NewRequest(http.MethodGet, "/api/v1/collections/kunder?orderBy=updatedAt&direction=asc", nil), true)
	list = decode(t, w)
	require.Len(t, list.Documents, 1)
	require.Equal(t, "aktiv", list.Documents[0]["status"])

	// no confirmation: nothing is deleted
	w = h.do(httptest.NewRequest(http.MethodDelete, "/api/v1/collections/kunder/"+created.ID, nil), true)
	require.Equal(t, http.StatusOK, w.Code)
	require.False(t, decode(t, w).Deleted)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/collections/kunder/"+created.ID, nil)
	req.Header.Set(interaction.ConfirmHeader, "yes")
	w = h.do(req, true)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, decode(t, w).Deleted)

	w = h.do(httptest.NewRequest(http.MethodGet, "/api/v1/collections/kunder", nil), true)
	require.Empty(t, decode(t, w).Documents)
}

func TestCreate_RequiredFields(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(jsonRequest(http.MethodPost, "/api/v1/collections/kunder?required=Name,Email", map[string]any{"Name": " ", "Email": ""}), true)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Equal(t, []interaction.Notice{{Level: interaction.LevelError, Message: "Udfyld venligst: Name"}}, decode(t, w).Notices)

	w = h.do(jsonRequest(http.MethodPost, "/api/v1/collections/kunder?required=Name", map[string]any{"Name": "x"}), true)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestCreate_BadPayload(t *testing.T) {
	h := newHarness(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/collections/kunder", strings.NewReader("[1,2"))
	req.Header.Set("Content-Type", "application/json")
	require.Equal(t, http.StatusBadRequest, h.do(req, true).Code)
}

func TestUpdate_Missing(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(jsonRequest(http.MethodPatch, "/api/v1/collections/kunder/nope", map[string]any{"a": 1}), true)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestList_BadDirection(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/collections/kunder?direction=up", nil), true)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestList_InvalidCollectionDegrades(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/collections/__reserved__", nil), true)
	require.Equal(t, http.StatusOK, w.Code)
	r := decode(t, w)
	require.NotNil(t, r.Documents)
	require.Empty(t, r.Documents)
	require.Len(t, r.Notices, 1)
	require.Equal(t, interaction.LevelError, r.Notices[0].Level)
}

func TestPages(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(httptest.NewRequest(http.MethodGet, "/index.html", nil), false)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `<main id="login">`)

	w = h.do(httptest.NewRequest(http.MethodGet, "/referat.html", nil), false)
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/index.html", w.Header().Get("Location"))

	w = h.do(httptest.NewRequest(http.MethodGet, "/referat.html", nil), true)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "<title>Referat | Switzea</title>")
	require.Contains(t, w.Body.String(), navigation.HTML())

	w = h.do(httptest.NewRequest(http.MethodGet, "/secret.html", nil), true)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(httptest.NewRequest(http.MethodGet, "/", nil), false)
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/dashboard.html", w.Header().Get("Location"))
}

func TestNavigationAssets(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(httptest.NewRequest(http.MethodGet, "/navigation.css", nil), false)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, navigation.CSS(), w.Body.String())
}

func TestSessionLogin(t *testing.T) {
	h := newHarness(t, fakeIssuer{})
	w := h.do(jsonRequest(http.MethodPost, "/sessionLogin", map[string]string{"idToken": "tok"}), false)
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "__session", cookies[0].Name)
	require.Equal(t, "cookie-for-tok", cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)
	require.Equal(t, 3600, cookies[0].MaxAge)

	w = h.do(jsonRequest(http.MethodPost, "/sessionLogin", map[string]string{}), false)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionLogin_Rejected(t *testing.T) {
	h := newHarness(t, fakeIssuer{err: identity.ErrStaleSignIn})
	w := h.do(jsonRequest(http.MethodPost, "/sessionLogin", map[string]string{"idToken": "old"}), false)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Recent sign-in required")

	h = newHarness(t, nil)
	w = h.do(jsonRequest(http.MethodPost, "/sessionLogin", map[string]string{"idToken": "x"}), false)
	require.Equal(t, http.StatusNotImplemented, w.Code)
}

func formLogout(confirm string) *http.Request {
	body := url.Values{}
	if confirm != "" {
		body.Set(interaction.ConfirmParam, confirm)
	}
	req := httptest.NewRequest(http.MethodPost, "/logout", strings.NewReader(body.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestLogout_Form(t *testing.T) {
	h := newHarness(t, nil)

	req := formLogout("")
	req.Header.Set("Referer", "/referat.html")
	w := h.do(req, true)
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/referat.html", w.Header().Get("Location"))
	require.Empty(t, h.ids.SignedOut())

	w = h.do(formLogout("yes"), true)
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/index.html", w.Header().Get("Location"))
	require.Equal(t, []string{"u1"}, h.ids.SignedOut())
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "", cookies[0].Value)
	require.True(t, cookies[0].MaxAge < 0)
}

func TestLogout_JSON(t *testing.T) {
	h := newHarness(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set(interaction.ConfirmHeader, "true")
	w := h.do(req, true)
	require.Equal(t, http.StatusOK, w.Code)
	r := decode(t, w)
	require.True(t, r.LoggedOut)
	require.Equal(t, "/index.html", r.Redirect)

	// the session is gone now
	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set(interaction.ConfirmHeader, "true")
	w = h.do(req, true)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "/index.html", decode(t, w).Redirect)
}

func TestLogout_Failure(t *testing.T) {
	h := newHarness(t, nil)
	h.ids.FailSignOut(errors.New("identity service down"))

	w := h.do(formLogout("yes"), true)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "Fejl ved logout: identity service down")

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set(interaction.ConfirmHeader, "yes")
	w = h.do(req, true)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	r := decode(t, w)
	require.False(t, r.LoggedOut)
	require.Equal(t, []interaction.Notice{{Level: interaction.LevelError, Message: "Fejl ved logout: identity service down"}}, r.Notices)
}

func TestShutdownBeforeRun(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.server.Shutdown(context.Background()))
}

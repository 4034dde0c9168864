package interaction

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(true, false)

	require.True(t, r.Confirm(ctx, "first?"))
	require.False(t, r.Confirm(ctx, "second?"))
	require.False(t, r.Confirm(ctx, "exhausted?"))
	require.Equal(t, []string{"first?", "second?", "exhausted?"}, r.Questions())

	r.Notify(ctx, LevelSuccess, "saved")
	r.Notify(ctx, LevelError, "failed")
	require.Equal(t, []Notice{{LevelSuccess, "saved"}, {LevelError, "failed"}}, r.Notices())

	r.Redirect(ctx, "/index.html")
	require.Equal(t, []string{"/index.html"}, r.Redirects())
}

func TestRequest_ConfirmSources(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		req  func() *http.Request
		want bool
	}{
		{"no answer", func() *http.Request {
			return httptest.NewRequest(http.MethodDelete, "/x", nil)
		}, false},
		{"header", func() *http.Request {
			r := httptest.NewRequest(http.MethodDelete, "/x", nil)
			r.Header.Set(ConfirmHeader, "true")
			return r
		}, true},
		{"header declines", func() *http.Request {
			r := httptest.NewRequest(http.MethodDelete, "/x?confirm=yes", nil)
			r.Header.Set(ConfirmHeader, "no")
			return r
		}, false},
		{"query", func() *http.Request {
			return httptest.NewRequest(http.MethodDelete, "/x?confirm=ja", nil)
		}, true},
		{"form", func() *http.Request {
			body := url.Values{ConfirmParam: {"yes"}}.Encode()
			r := httptest.NewRequest(http.MethodPost, "/logout", strings.NewReader(body))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			return r
		}, true},
		{"garbage", func() *http.Request {
			return httptest.NewRequest(http.MethodDelete, "/x?confirm=maybe", nil)
		}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ui := NewRequest(tc.req())
			require.Equal(t, tc.want, ui.Confirm(ctx, "sure?"))
			require.Equal(t, []string{"sure?"}, ui.Questions())
		})
	}
}

func TestRequest_CollectsOutcome(t *testing.T) {
	ctx := context.Background()
	ui := NewRequest(httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, ui.Notices())
	_, ok := ui.RedirectTarget()
	require.False(t, ok)

	ui.Notify(ctx, LevelError, "boom")
	ui.Redirect(ctx, "/a")
	ui.Redirect(ctx, "/index.html")

	require.Equal(t, []Notice{{LevelError, "boom"}}, ui.Notices())
	dest, ok := ui.RedirectTarget()
	require.True(t, ok)
	require.Equal(t, "/index.html", dest)
}

func TestNop(t *testing.T) {
	var ui UI = Nop{}
	require.False(t, ui.Confirm(context.Background(), "?"))
}

package interaction

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// ConfirmHeader carries the answer to a confirmation asked in the browser.
const ConfirmHeader = "X-Portal-Confirm"

// ConfirmParam is the form or query equivalent of ConfirmHeader.
const ConfirmParam = "confirm"

// Request is the UI of a single HTTP request. The browser asks the question
// before sending the request, so Confirm reads the answer from the request.
// Notices and the redirect target are collected for the response.
type Request struct {
	answer bool

	mu        sync.Mutex
	questions []string
	notices   []Notice
	redirect  string
}

var _ UI = (*Request)(nil)

// NewRequest builds the UI for r.
func NewRequest(r *http.Request) *Request {
	v := r.Header.Get(ConfirmHeader)
	if v == "" {
		v = r.URL.Query().Get(ConfirmParam)
	}
	if v == "" && r.Method != http.MethodGet {
		v = r.PostFormValue(ConfirmParam)
	}
	return &Request{answer: parseAnswer(v)}
}

func parseAnswer(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "yes", "y", "ja", "on":
		return true
	}
	ok, err := strconv.ParseBool(v)
	return err == nil && ok
}

func (r *Request) Confirm(_ context.Context, question string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questions = append(r.questions, question)
	return r.answer
}

func (r *Request) Notify(_ context.Context, level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, Notice{Level: level, Message: message})
}

// Redirect records dest. The last call wins.
func (r *Request) Redirect(_ context.Context, dest string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redirect = dest
}

// Questions returns the confirmations asked while handling the request.
func (r *Request) Questions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.questions...)
}

// Notices returns the notices to render, never nil.
func (r *Request) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice{}, r.notices...)
}

// RedirectTarget returns the recorded redirect, if any.
func (r *Request) RedirectTarget() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.redirect, r.redirect != ""
}

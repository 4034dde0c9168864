// Package interaction abstracts the user-facing side effects of portal
// operations: asking for confirmation, showing notices and navigating.
package interaction

import (
	"context"
	"sync"
)

// Level classifies a notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// UI is the set of interaction capabilities an operation may use.
type UI interface {
	// Confirm asks question and reports whether the user accepted.
	Confirm(ctx context.Context, question string) bool
	// Notify shows a transient message to the user.
	Notify(ctx context.Context, level Level, message string)
	// Redirect navigates the user to dest.
	Redirect(ctx context.Context, dest string)
}

// Notice is a message shown to the user.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Nop declines every confirmation and discards everything else.
type Nop struct{}

func (Nop) Confirm(context.Context, string) bool { return false }
func (Nop) Notify(context.Context, Level, string) {}
func (Nop) Redirect(context.Context, string) {}

// Recorder is a headless UI with scripted confirmation answers.
type Recorder struct {
	mu        sync.Mutex
	answers   []bool
	questions []string
	notices   []Notice
	redirects []string
}

var _ UI = (*Recorder)(nil)

// NewRecorder returns a Recorder that answers confirmations with answers in
// order. Once they run out every further confirmation is declined.
func NewRecorder(answers ...bool) *Recorder {
	return &Recorder{answers: answers}
}

func (r *Recorder) Confirm(_ context.Context, question string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questions = append(r.questions, question)
	if len(r.answers) == 0 {
		return false
	}
	ok := r.answers[0]
	r.answers = r.answers[1:]
	return ok
}

func (r *Recorder) Notify(_ context.Context, level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, Notice{Level: level, Message: message})
}

func (r *Recorder) Redirect(_ context.Context, dest string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redirects = append(r.redirects, dest)
}

// Questions returns every confirmation question asked so far.
func (r *Recorder) Questions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.questions...)
}

// Notices returns every notice shown so far.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Redirects returns every redirect target in order.
func (r *Recorder) Redirects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.redirects...)
}

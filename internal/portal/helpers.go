package portal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/switzea/portal/internal/interaction"
)

// DanishDateLayout is the DD-MM-YYYY form used across the portal.
const DanishDateLayout = "02-01-2006"

// FormatDate renders an ISO date or RFC 3339 timestamp as DD-MM-YYYY.
// Empty or unparseable input yields "".
func FormatDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(DanishDateLayout)
		}
	}
	return ""
}

// ShowSuccess shows a success notice.
func ShowSuccess(ctx context.Context, ui interaction.UI, message string) {
	ui.Notify(ctx, interaction.LevelSuccess, message)
}

// ShowError shows an error notice.
func ShowError(ctx context.Context, ui interaction.UI, message string) {
	ui.Notify(ctx, interaction.LevelError, message)
}

// Field is a named form value.
type Field struct {
	Name  string
	Value string
}

// ValidateRequired reports the first blank field, in argument order, and
// returns false. It returns true only when every value is non-blank.
func ValidateRequired(ctx context.Context, ui interaction.UI, fields ...Field) bool {
	for _, f := range fields {
		if strings.TrimSpace(f.Value) == "" {
			ShowError(ctx, ui, fmt.Sprintf("Udfyld venligst: %s", f.Name))
			return false
		}
	}
	return true
}

// UI returns the interaction w is bound to.
func (w *Wrapper) UI() interaction.UI {
	return w.ui
}

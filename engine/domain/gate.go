package domain

import (
	"fmt"
	"strings"
	"time"
)

// AccessGate optionally restricts queries to a configured window of
// local hours. Operators can bypass it by embedding the configured
// token anywhere in the raw query.
type AccessGate struct {
	Enabled     bool
	OpenHour    int // inclusive, 0-23
	CloseHour   int // exclusive, 0-24
	Location    *time.Location
	BypassToken string

	now func() time.Time // test hook
}

// NewAccessGate builds a gate for the given window. A nil location
// means UTC.
func NewAccessGate(enabled bool, openHour, closeHour int, loc *time.Location, bypass string) *AccessGate {
	if loc == nil {
		loc = time.UTC
	}
	return &AccessGate{
		Enabled:     enabled,
		OpenHour:    openHour,
		CloseHour:   closeHour,
		Location:    loc,
		BypassToken: bypass,
		now:         time.Now,
	}
}

// Check evaluates the gate against the raw query. A non-nil Rejection
// means the query arrived outside the allowed window; the message
// carries the evaluated time and timezone for transparency.
func (g *AccessGate) Check(raw string) *Rejection {
	if g == nil || !g.Enabled {
		return nil
	}
	if g.BypassToken != "" && strings.Contains(raw, g.BypassToken) {
		return nil
	}

	t := g.now().In(g.Location)
	h := t.Hour()
	open := h >= g.OpenHour && h < g.CloseHour
	if g.OpenHour > g.CloseHour { // window wraps midnight
		open = h >= g.OpenHour || h < g.CloseHour
	}
	if open {
		return nil
	}
	return &Rejection{
		Kind: RejectTimeGated,
		Message: fmt.Sprintf("This assistant answers between %02d:00 and %02d:00 (%s); it is now %s.",
			g.OpenHour, g.CloseHour, g.Location.String(), t.Format("15:04 MST")),
		Suggestion: "Please come back during the allowed window.",
	}
}

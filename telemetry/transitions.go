package telemetry

import "log/slog"

// Reason identifies what started a transition.
type Reason string

const (
	ReasonLoad   Reason = "load"   // first field of a batch
	ReasonAuto   Reason = "auto"   // countdown expiry
	ReasonSelect Reason = "select" // explicit selection
	ReasonDelete Reason = "delete" // active entry removed
	ReasonReset  Reason = "reset"
)

// Transition is one change of the displayed field.
type Transition struct {
	TimeSec float64 `csv:"time"`
	Reason  Reason  `csv:"reason"`
	From    int     `csv:"from"` // -1 when nothing was shown
	To      int     `csv:"to"`   // -1 after a reset
	Name    string  `csv:"name"`
}

// LogTransition logs the transition using slog.
func (t Transition) LogTransition() {
	slog.Info("transition",
		"time", t.TimeSec,
		"reason", string(t.Reason),
		"from", t.From,
		"to", t.To,
		"name", t.Name,
	)
}

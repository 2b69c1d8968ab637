// Package event provides the shared player event model for Hytale Companion.
// This package is used by the extract, reconcile, and store packages.
package event

// Event kind constants.
const (
	KindJoin  = "join"
	KindLeave = "leave"
)

// Event represents a single player join or leave extracted from server log
// text. Events are immutable once extracted.
//
// Timestamp is kept exactly as it appears in the source line. journald's
// short-iso output is fixed width, so lexicographic ordering matches
// emission order, and the raw string round-trips back into a journalctl
// --since expression without reformatting.
type Event struct {
	Timestamp string
	PlayerID  string
	Name      string
	Kind      string
	World     string // set for joins, empty for leaves
}

// IsJoin reports whether the event is a join.
func (e Event) IsJoin() bool { return e.Kind == KindJoin }

package pbp

import "errors"

var (
	// ErrStructural marks a document that is garbled or a placeholder page
	// rather than real data. Callers fall back to another provider or retry
	// the game; they never feed such a document onward.
	ErrStructural = errors.New("malformed document")

	// ErrNoShiftData marks a game that ships without shift reports.
	ErrNoShiftData = errors.New("no shift data")
)

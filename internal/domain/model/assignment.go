package model

import "time"

// AssignmentEvent asks the ticket store to assign an item.
// An empty MemberID requests automatic selection of the top candidate.
type AssignmentEvent struct {
	EventID  string    // unique id for idempotency
	ItemKey  string    // work item to assign
	MemberID string    // explicit assignee; empty selects automatically
	TS       time.Time // time the command was accepted
}

// Auto reports whether the event delegates the choice to the ranker.
func (e AssignmentEvent) Auto() bool { return e.MemberID == "" }

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/taskflow/internal/adapters/mq/queue"
	"github.com/okian/taskflow/internal/adapters/mq/worker"
	"github.com/okian/taskflow/internal/domain/model"
	"github.com/okian/taskflow/pkg/logger"
	"github.com/okian/taskflow/pkg/metrics"
)

// AssignmentState is the lifecycle of an assignment request.
type AssignmentState string

// Assignment request states.
const (
	StateQueued  AssignmentState = "queued"
	StateApplied AssignmentState = "applied"
	StateFailed  AssignmentState = "failed"
)

// AssignmentRequest asks for an item to be assigned. Without MemberID the
// top eligible candidate is chosen when the request is processed.
type AssignmentRequest struct {
	EventID  string `json:"event_id"`
	ItemKey  string `json:"item_key"`
	MemberID string `json:"member_id,omitempty"`
}

// AssignmentStatus reports what happened to a request.
type AssignmentStatus struct {
	EventID   string          `json:"eventId"`
	ItemKey   string          `json:"itemKey"`
	MemberID  string          `json:"memberId,omitempty"`
	Mode      string          `json:"mode"`
	State     AssignmentState `json:"state"`
	Error     string          `json:"error,omitempty"`
	Submitted time.Time       `json:"submittedAt"`
	Completed time.Time       `json:"completedAt,omitzero"`
}

// EnqueueAssignment validates and queues req. A request whose event id was
// already seen is not queued again; duplicate is true and the known status
// is returned.
func (s *Service) EnqueueAssignment(ctx context.Context, req AssignmentRequest) (status AssignmentStatus, duplicate bool, err error) {
	if err := s.ready(); err != nil {
		return AssignmentStatus{}, false, err
	}

	req.EventID = strings.TrimSpace(req.EventID)
	req.ItemKey = strings.TrimSpace(req.ItemKey)
	req.MemberID = strings.TrimSpace(req.MemberID)
	if req.ItemKey == "" {
		return AssignmentStatus{}, false, fmt.Errorf("%w: missing item_key", ErrInvalidRequest)
	}
	if _, err := s.store.Item(ctx, req.ItemKey); err != nil {
		return AssignmentStatus{}, false, err
	}
	if req.MemberID != "" {
		m, err := s.store.Member(ctx, req.MemberID)
		if err != nil {
			return AssignmentStatus{}, false, err
		}
		req.MemberID = m.ID
	}
	if req.EventID == "" {
		req.EventID = uuid.NewString()
	}

	if s.deduper.SeenAndRecord(ctx, req.EventID) {
		metrics.RecordAssignmentDuplicate()
		s.logger.Debug(ctx, "duplicate assignment request, skipping",
			logger.String("eventID", req.EventID),
			logger.String("itemKey", req.ItemKey),
		)
		if known, ok := s.tracker.get(req.EventID); ok {
			return known, true, nil
		}
		return AssignmentStatus{EventID: req.EventID, ItemKey: req.ItemKey, MemberID: req.MemberID}, true, nil
	}

	event := model.AssignmentEvent{
		EventID:  req.EventID,
		ItemKey:  req.ItemKey,
		MemberID: req.MemberID,
		TS:       time.Now().UTC(),
	}
	status = AssignmentStatus{
		EventID:   event.EventID,
		ItemKey:   event.ItemKey,
		MemberID:  event.MemberID,
		Mode:      worker.ModeManual,
		State:     StateQueued,
		Submitted: event.TS,
	}
	if event.Auto() {
		status.Mode = worker.ModeAuto
	}
	s.tracker.put(status)

	if err := s.queue.Enqueue(ctx, event); err != nil {
		s.deduper.Unrecord(ctx, event.EventID)
		s.tracker.forget(event.EventID)
		if errors.Is(err, queue.ErrFull) {
			return AssignmentStatus{}, false, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return AssignmentStatus{}, false, fmt.Errorf("enqueue assignment: %w", err)
	}

	s.logger.Debug(ctx, "assignment request queued",
		logger.String("eventID", event.EventID),
		logger.String("itemKey", event.ItemKey),
		logger.String("mode", status.Mode),
	)
	return status, false, nil
}

// Assignment returns the status of the request eventID.
func (s *Service) Assignment(_ context.Context, eventID string) (AssignmentStatus, error) {
	if err := s.ready(); err != nil {
		return AssignmentStatus{}, err
	}
	st, ok := s.tracker.get(eventID)
	if !ok {
		return AssignmentStatus{}, fmt.Errorf("%w: %s", ErrAssignmentNotFound, eventID)
	}
	return st, nil
}

// tracker keeps the most recent request statuses, oldest evicted first.
type tracker struct {
	mu    sync.Mutex
	max   int
	byID  map[string]AssignmentStatus
	order []string
}

func newTracker(maxSize int) *tracker {
	return &tracker{max: maxSize, byID: make(map[string]AssignmentStatus)}
}

func (t *tracker) put(st AssignmentStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byID[st.EventID]; !ok {
		t.order = append(t.order, st.EventID)
		if t.max > 0 && len(t.order) > t.max {
			delete(t.byID, t.order[0])
			t.order = t.order[1:]
		}
	}
	t.byID[st.EventID] = st
}

func (t *tracker) get(id string) (AssignmentStatus, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.byID[id]
	return st, ok
}

func (t *tracker) forget(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byID[id]; !ok {
		return
	}
	delete(t.byID, id)
	for i, k := range t.order {
		if k == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

func (t *tracker) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byID)
}

// complete records a worker result.
func (t *tracker) complete(_ context.Context, r worker.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.byID[r.EventID]
	if !ok {
		return
	}
	st.MemberID = r.MemberID
	st.Mode = r.Mode
	st.Completed = r.Completed
	st.State = StateApplied
	if r.Err != nil {
		st.State = StateFailed
		st.Error = r.Err.Error()
	}
	t.byID[r.EventID] = st
}

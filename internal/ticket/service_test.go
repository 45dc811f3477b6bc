package ticket

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/psds-microservice/workflow-service/internal/errs"
	"github.com/psds-microservice/workflow-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memTicketStore struct {
	mu     sync.Mutex
	seq    uint64
	evSeq  uint64
	rows   map[uint64]model.SupportTicket
	events map[uint64][]model.TicketEvent
}

func newMemTicketStore() *memTicketStore {
	return &memTicketStore{
		rows:   make(map[uint64]model.SupportTicket),
		events: make(map[uint64][]model.TicketEvent),
	}
}

func (s *memTicketStore) Create(_ context.Context, t *model.SupportTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t.ID = s.seq
	t.CreatedAt = time.Now()
	s.rows[t.ID] = *t
	return nil
}

func (s *memTicketStore) Get(_ context.Context, id uint64) (*model.SupportTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.rows[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	t.Events = append([]model.TicketEvent(nil), s.events[id]...)
	return &t, nil
}

func (s *memTicketStore) Update(_ context.Context, t *model.SupportTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rows[t.ID]
	if !ok {
		return errs.ErrNotFound
	}
	if stored.Version != t.Version {
		return errs.ErrConcurrentModification
	}
	t.Version++
	cp := *t
	cp.Events = nil
	s.rows[t.ID] = cp
	return nil
}

func (s *memTicketStore) UpdateWithEvent(_ context.Context, t *model.SupportTicket, ev *model.TicketEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rows[t.ID]
	if !ok {
		return errs.ErrNotFound
	}
	if stored.Version != t.Version {
		return errs.ErrConcurrentModification
	}
	t.Version++
	cp := *t
	cp.Events = nil
	s.rows[t.ID] = cp
	s.evSeq++
	ev.ID = s.evSeq
	ev.CreatedAt = time.Now()
	s.events[ev.TicketID] = append(s.events[ev.TicketID], *ev)
	return nil
}

func (s *memTicketStore) AppendEvent(_ context.Context, ev *model.TicketEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evSeq++
	ev.ID = s.evSeq
	ev.CreatedAt = time.Now()
	s.events[ev.TicketID] = append(s.events[ev.TicketID], *ev)
	return nil
}

func (s *memTicketStore) List(_ context.Context, _ map[string]interface{}, _, _ int) ([]model.SupportTicket, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.SupportTicket, 0, len(s.rows))
	for _, t := range s.rows {
		out = append(out, t)
	}
	return out, int64(len(out)), nil
}

func (s *memTicketStore) ActiveCount(_ context.Context, assigneeID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.rows {
		if t.AssigneeID == assigneeID && !t.Status.Terminal() {
			n++
		}
	}
	return n, nil
}

func (s *memTicketStore) ActiveCountByAssignee(_ context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int)
	for _, t := range s.rows {
		if t.AssigneeID != "" && !t.Status.Terminal() {
			out[t.AssigneeID]++
		}
	}
	return out, nil
}

type memTeamStore struct {
	members map[string]model.TeamMember
}

func (s *memTeamStore) Members(_ context.Context) ([]model.TeamMember, error) {
	out := make([]model.TeamMember, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, m)
	}
	return out, nil
}

func (s *memTeamStore) Member(_ context.Context, userID string) (*model.TeamMember, error) {
	m, ok := s.members[userID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &m, nil
}

type nopProducer struct{}

func (nopProducer) Produce(context.Context, string, map[string]interface{}) {}

func newTestService(t *testing.T) (*Service, *memTicketStore) {
	t.Helper()
	store := newMemTicketStore()
	team := &memTeamStore{members: map[string]model.TeamMember{
		"agent-1": {UserID: "agent-1", Role: "support_agent", MaxConcurrentTickets: 2},
		"agent-2": {UserID: "agent-2", Role: "support_agent", MaxConcurrentTickets: 5},
		"lead-1":  {UserID: "lead-1", Role: "support_lead", MaxConcurrentTickets: 3},
	}}
	return NewService(store, team, nopProducer{}, zap.NewNop()), store
}

func createTicket(t *testing.T, svc *Service) *model.SupportTicket {
	t.Helper()
	tk := &model.SupportTicket{
		Title:          "printer on fire",
		RequesterID:    "user-9",
		SLATargetHours: 24,
	}
	require.NoError(t, svc.Create(context.Background(), tk))
	return tk
}

func TestCreateStartsPendingUnassigned(t *testing.T) {
	svc, _ := newTestService(t)
	tk := createTicket(t, svc)
	assert.Equal(t, model.TicketStatusPending, tk.Status)
	assert.Empty(t, tk.AssigneeID)
	assert.Zero(t, tk.EscalationLevel)
	assert.Equal(t, model.TicketPriorityMedium, tk.Priority)
}

func TestAssignMovesToInProgressAndStampsFirstResponse(t *testing.T) {
	svc, _ := newTestService(t)
	tk := createTicket(t, svc)
	ctx := context.Background()

	got, err := svc.Assign(ctx, tk.ID, "agent-1", "mgr-1", false)
	require.NoError(t, err)
	assert.Equal(t, "agent-1", got.AssigneeID)
	assert.Equal(t, model.TicketStatusInProgress, got.Status)
	require.NotNil(t, got.FirstResponseAt)
	first := *got.FirstResponseAt

	// Reassignment needs the manager override and must not move
	// FirstResponseAt.
	_, err = svc.Assign(ctx, tk.ID, "agent-2", "mgr-1", false)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	got, err = svc.Assign(ctx, tk.ID, "agent-2", "mgr-1", true)
	require.NoError(t, err)
	assert.Equal(t, "agent-2", got.AssigneeID)
	require.NotNil(t, got.FirstResponseAt)
	assert.True(t, got.FirstResponseAt.Equal(first), "first response is stamped at most once")
}

func TestAssignRefusesOverCapacityTarget(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Fill agent-1 to their ceiling of 2.
	for i := 0; i < 2; i++ {
		tk := createTicket(t, svc)
		_, err := svc.Assign(ctx, tk.ID, "agent-1", "mgr-1", false)
		require.NoError(t, err)
	}

	tk := createTicket(t, svc)
	_, err := svc.Assign(ctx, tk.ID, "agent-1", "mgr-1", false)
	assert.ErrorIs(t, err, errs.ErrOverCapacity)

	// Manager override bypasses the ceiling.
	got, err := svc.Assign(ctx, tk.ID, "agent-1", "mgr-1", true)
	require.NoError(t, err)
	assert.Equal(t, "agent-1", got.AssigneeID)
}

func TestAssignUnknownMemberSkipsCapacityCheck(t *testing.T) {
	svc, _ := newTestService(t)
	tk := createTicket(t, svc)
	got, err := svc.Assign(context.Background(), tk.ID, "contractor-7", "mgr-1", false)
	require.NoError(t, err)
	assert.Equal(t, "contractor-7", got.AssigneeID)
}

func TestEscalateTwiceYieldsTwoOrderedEvents(t *testing.T) {
	svc, _ := newTestService(t)
	tk := createTicket(t, svc)
	ctx := context.Background()

	got, err := svc.Escalate(ctx, tk.ID, "mgr-1", "agent-2", "no response", "paging next tier")
	require.NoError(t, err)
	assert.Equal(t, 1, got.EscalationLevel)
	assert.Equal(t, "agent-2", got.AssigneeID)
	assert.Equal(t, model.TicketStatusPending, got.Status, "escalation does not change status")

	got, err = svc.Escalate(ctx, tk.ID, "mgr-1", "lead-1", "still stuck", "")
	require.NoError(t, err)
	assert.Equal(t, 2, got.EscalationLevel)

	full, err := svc.Get(ctx, tk.ID)
	require.NoError(t, err)
	require.Len(t, full.Events, 2)
	assert.Equal(t, model.TicketEventEscalation, full.Events[0].Kind)
	assert.Equal(t, "no response", full.Events[0].Reason)
	assert.Equal(t, "agent-2", full.Events[0].EscalatedTo)
	assert.Equal(t, "still stuck", full.Events[1].Reason)
	assert.True(t, full.Events[0].ID < full.Events[1].ID, "events are ordered")
}

// trailFailStore simulates an events table that refuses writes; the combined
// update must then fail as a whole.
type trailFailStore struct {
	*memTicketStore
}

func (s *trailFailStore) UpdateWithEvent(context.Context, *model.SupportTicket, *model.TicketEvent) error {
	return errors.New("events table unavailable")
}

func TestEscalateLeavesStateIntactWhenTrailWriteFails(t *testing.T) {
	store := newMemTicketStore()
	team := &memTeamStore{members: map[string]model.TeamMember{}}
	svc := NewService(&trailFailStore{store}, team, nopProducer{}, zap.NewNop())
	ctx := context.Background()

	tk := &model.SupportTicket{Title: "printer on fire", RequesterID: "user-9", SLATargetHours: 24}
	require.NoError(t, svc.Create(ctx, tk))

	_, err := svc.Escalate(ctx, tk.ID, "mgr-1", "agent-2", "no response", "")
	require.Error(t, err)

	got, err := svc.Get(ctx, tk.ID)
	require.NoError(t, err)
	assert.Zero(t, got.EscalationLevel, "a failed escalation must not raise the level")
	assert.Empty(t, got.AssigneeID)
	assert.Nil(t, got.FirstResponseAt)
	assert.Empty(t, got.Events)
}

func TestEscalateStampsFirstResponseOnce(t *testing.T) {
	svc, _ := newTestService(t)
	tk := createTicket(t, svc)
	ctx := context.Background()

	// The escalation target is the first responder this ticket ever had.
	got, err := svc.Escalate(ctx, tk.ID, "mgr-1", "agent-2", "no response", "")
	require.NoError(t, err)
	require.NotNil(t, got.FirstResponseAt)
	first := *got.FirstResponseAt

	got, err = svc.Escalate(ctx, tk.ID, "mgr-1", "lead-1", "still stuck", "")
	require.NoError(t, err)
	require.NotNil(t, got.FirstResponseAt)
	assert.True(t, got.FirstResponseAt.Equal(first), "first response is stamped at most once")
}

func TestAssignUnknownTicketBeatsCapacityError(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Fill agent-1 to their ceiling of 2, then target them on a ticket that
	// does not exist.
	for i := 0; i < 2; i++ {
		tk := createTicket(t, svc)
		_, err := svc.Assign(ctx, tk.ID, "agent-1", "mgr-1", false)
		require.NoError(t, err)
	}

	_, err := svc.Assign(ctx, 404, "agent-1", "mgr-1", false)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestEscalateTerminalTicketFails(t *testing.T) {
	svc, _ := newTestService(t)
	tk := createTicket(t, svc)
	ctx := context.Background()

	_, err := svc.Resolve(ctx, tk.ID, "mgr-1")
	require.NoError(t, err)

	_, err = svc.Escalate(ctx, tk.ID, "mgr-1", "agent-2", "too late", "")
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
}

func TestResolveAndClose(t *testing.T) {
	svc, _ := newTestService(t)
	tk := createTicket(t, svc)
	ctx := context.Background()

	got, err := svc.Resolve(ctx, tk.ID, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusResolved, got.Status)
	require.NotNil(t, got.ResolvedAt)

	_, err = svc.Resolve(ctx, tk.ID, "agent-1")
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)

	got, err = svc.Close(ctx, tk.ID, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusClosed, got.Status)

	_, err = svc.Assign(ctx, tk.ID, "agent-1", "mgr-1", true)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
}

func TestCloseRequiresResolved(t *testing.T) {
	svc, _ := newTestService(t)
	tk := createTicket(t, svc)
	_, err := svc.Close(context.Background(), tk.ID, "agent-1")
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
}

func TestCommentAppendsToTrail(t *testing.T) {
	svc, _ := newTestService(t)
	tk := createTicket(t, svc)
	ctx := context.Background()

	ev, err := svc.Comment(ctx, tk.ID, "user-9", "any update?")
	require.NoError(t, err)
	assert.Equal(t, model.TicketEventComment, ev.Kind)

	full, err := svc.Get(ctx, tk.ID)
	require.NoError(t, err)
	require.Len(t, full.Events, 1)
	assert.Equal(t, "any update?", full.Events[0].Body)
}

func TestCommentUnknownTicket(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Comment(context.Background(), 404, "user-9", "hello?")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

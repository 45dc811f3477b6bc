package ticket

import (
	"context"
	"testing"

	"github.com/psds-microservice/workflow-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberLoad(t *testing.T) {
	m := model.TeamMember{UserID: "agent-1", MaxConcurrentTickets: 4}

	u := MemberLoad(m, 1)
	assert.InDelta(t, 25, u.UtilizationPct, 1e-9)
	assert.False(t, u.OverCapacity)

	u = MemberLoad(m, 4)
	assert.InDelta(t, 100, u.UtilizationPct, 1e-9)
	assert.True(t, u.OverCapacity)
}

func TestMemberLoadOverCapacityNotClamped(t *testing.T) {
	m := model.TeamMember{UserID: "agent-1", MaxConcurrentTickets: 4}
	u := MemberLoad(m, 6)
	assert.InDelta(t, 150, u.UtilizationPct, 1e-9, "the raw ratio must stay visible past 100")
	assert.True(t, u.OverCapacity)
}

func TestMemberLoadZeroCeiling(t *testing.T) {
	u := MemberLoad(model.TeamMember{UserID: "x"}, 3)
	assert.Zero(t, u.UtilizationPct)
	assert.False(t, u.OverCapacity)
	assert.Equal(t, 3, u.ActiveTickets)
}

func TestTeamUtilization(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tk := createTicket(t, svc)
		_, err := svc.Assign(ctx, tk.ID, "agent-2", "mgr-1", false)
		require.NoError(t, err)
	}
	tk := createTicket(t, svc)
	_, err := svc.Resolve(ctx, tk.ID, "mgr-1")
	require.NoError(t, err)

	rows, err := svc.TeamUtilization(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"agent-1", "agent-2", "lead-1"},
		[]string{rows[0].UserID, rows[1].UserID, rows[2].UserID}, "ordered by user id")

	assert.Zero(t, rows[0].ActiveTickets)
	assert.Equal(t, 3, rows[1].ActiveTickets)
	assert.InDelta(t, 60, rows[1].UtilizationPct, 1e-9)
}

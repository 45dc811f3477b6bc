package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainLinkEligible(t *testing.T) {
	link := ApprovalChainLink{EligibleApproverIDs: []string{"A", "B"}}
	assert.True(t, link.Eligible("A"))
	assert.False(t, link.Eligible("C"))
	assert.False(t, (&ApprovalChainLink{}).Eligible("A"))
}

func TestCurrentLink(t *testing.T) {
	w := &WorkflowInstance{
		Chain: ApprovalChain{
			{Level: 0, Role: "manager"},
			{Level: 1, Role: "director"},
		},
		CurrentLevel: 1,
	}
	require.NotNil(t, w.CurrentLink())
	assert.Equal(t, "director", w.CurrentLink().Role)

	w.CurrentLevel = 2
	assert.Nil(t, w.CurrentLink())
}

func TestApprovalChainValueScan(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	in := ApprovalChain{
		{Level: 0, Role: "manager", EligibleApproverIDs: []string{"A"}, Status: ApprovalStatusApproved, ApprovedBy: "A", ApprovedAt: &at},
		{Level: 1, Role: "director", EligibleApproverIDs: []string{"B"}, Status: ApprovalStatusPending},
	}
	v, err := in.Value()
	require.NoError(t, err)

	var out ApprovalChain
	require.NoError(t, out.Scan([]byte(v.(string))))
	require.Len(t, out, 2)
	assert.Equal(t, "A", out[0].ApprovedBy)
	assert.True(t, out[0].ApprovedAt.Equal(at))
	assert.Equal(t, ApprovalStatusPending, out[1].Status)
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDetailsPerType(t *testing.T) {
	cases := []struct {
		rt   RequestType
		raw  string
		want RequestDetails
	}{
		{RequestTypeBudget, `{"department":"eng","period":"2026-Q3"}`, &BudgetDetails{Department: "eng", Period: "2026-Q3"}},
		{RequestTypeLeave, `{"leave_type":"annual","start_date":"2026-09-01","end_date":"2026-09-05"}`,
			&LeaveDetails{LeaveType: "annual", StartDate: "2026-09-01", EndDate: "2026-09-05"}},
		{RequestTypeExpense, `{"category":"travel"}`, &ExpenseDetails{Category: "travel"}},
		{RequestTypeProject, `{"project_code":"PRJ-7"}`, &ProjectDetails{ProjectCode: "PRJ-7"}},
		{RequestTypeAsset, `{"asset_type":"laptop","quantity":2}`, &AssetDetails{AssetType: "laptop", Quantity: 2}},
	}
	for _, tc := range cases {
		t.Run(string(tc.rt), func(t *testing.T) {
			got, err := DecodeDetails(tc.rt, []byte(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeDetailsEmptyPayload(t *testing.T) {
	got, err := DecodeDetails(RequestTypeLeave, nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDecodeDetailsUnknownType(t *testing.T) {
	_, err := DecodeDetails(RequestType("travel"), []byte(`{}`))
	assert.Error(t, err)
}

func TestDecodeDetailsMalformedPayload(t *testing.T) {
	_, err := DecodeDetails(RequestTypeAsset, []byte(`{"quantity":"two"}`))
	assert.Error(t, err)
}

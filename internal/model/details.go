package model

import (
	"encoding/json"
	"fmt"
)

// RequestDetails is the closed union of per-type request payloads, keyed by
// RequestType. The raw JSON is persisted untouched; decoding exists so that
// submission can reject payloads that do not match the request type.
type RequestDetails interface {
	requestDetails()
}

type BudgetDetails struct {
	Department string `json:"department"`
	Period     string `json:"period,omitempty"`
	CostCenter string `json:"cost_center,omitempty"`
}

type LeaveDetails struct {
	LeaveType string `json:"leave_type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type ExpenseDetails struct {
	Category   string `json:"category"`
	ReceiptRef string `json:"receipt_ref,omitempty"`
}

type ProjectDetails struct {
	ProjectCode string `json:"project_code"`
	Sponsor     string `json:"sponsor,omitempty"`
}

type AssetDetails struct {
	AssetType string `json:"asset_type"`
	Quantity  int    `json:"quantity,omitempty"`
}

func (BudgetDetails) requestDetails()  {}
func (LeaveDetails) requestDetails()   {}
func (ExpenseDetails) requestDetails() {}
func (ProjectDetails) requestDetails() {}
func (AssetDetails) requestDetails()   {}

// DecodeDetails parses a raw details payload into the variant for the request
// type. An empty payload is valid for every type.
func DecodeDetails(rt RequestType, raw []byte) (RequestDetails, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	decode := func(dst RequestDetails) (RequestDetails, error) {
		if err := json.Unmarshal(raw, dst); err != nil {
			return nil, fmt.Errorf("decode %s details: %w", rt, err)
		}
		return dst, nil
	}
	switch rt {
	case RequestTypeBudget:
		return decode(&BudgetDetails{})
	case RequestTypeLeave:
		return decode(&LeaveDetails{})
	case RequestTypeExpense:
		return decode(&ExpenseDetails{})
	case RequestTypeProject:
		return decode(&ProjectDetails{})
	case RequestTypeAsset:
		return decode(&AssetDetails{})
	default:
		return nil, fmt.Errorf("no details variant for request type %q", rt)
	}
}

package workflow

import (
	"fmt"
	"os"

	"github.com/psds-microservice/workflow-service/internal/model"
	"gopkg.in/yaml.v2"
)

// Registry is the static table of approval rules per request type. Rule order
// within a type is authoritative: the chain preserves declaration order, not
// threshold order, so a higher authority may be declared ahead of a
// lower-threshold approver. Read-only after construction.
type Registry struct {
	rules map[model.RequestType][]model.WorkflowRule
}

// NewRegistry copies the given rule table so later mutation of the input
// cannot reach the registry.
func NewRegistry(rules map[model.RequestType][]model.WorkflowRule) *Registry {
	cp := make(map[model.RequestType][]model.WorkflowRule, len(rules))
	for rt, rs := range rules {
		cp[rt] = append([]model.WorkflowRule(nil), rs...)
	}
	return &Registry{rules: cp}
}

// DefaultRegistry returns the built-in rule table used when no rules file is
// configured.
func DefaultRegistry() *Registry {
	return NewRegistry(map[model.RequestType][]model.WorkflowRule{
		model.RequestTypeBudget: {
			{Role: "team_lead", AmountThreshold: 0, Label: "Team Lead Approval"},
			{Role: "finance_manager", AmountThreshold: 10000, Label: "Finance Review"},
			{Role: "director", AmountThreshold: 50000, Label: "Director Sign-off"},
			{Role: "ceo", AmountThreshold: 250000, Label: "Executive Approval"},
		},
		model.RequestTypeExpense: {
			{Role: "manager", AmountThreshold: 0, Label: "Manager Approval"},
			{Role: "finance_manager", AmountThreshold: 5000, Label: "Finance Review"},
		},
		model.RequestTypeLeave: {
			{Role: "manager", AmountThreshold: 0, Label: "Manager Approval"},
			{Role: "hr_manager", AmountThreshold: 0, Label: "HR Approval"},
		},
		model.RequestTypeProject: {
			{Role: "director", AmountThreshold: 0, Label: "Director Approval"},
			{Role: "ceo", AmountThreshold: 100000, Label: "Executive Approval"},
		},
		model.RequestTypeAsset: {
			{Role: "manager", AmountThreshold: 0, Label: "Manager Approval"},
			{Role: "procurement", AmountThreshold: 2500, Label: "Procurement Review"},
			{Role: "cfo", AmountThreshold: 50000, Label: "CFO Sign-off"},
		},
	})
}

// LoadRegistry reads a rule table from a YAML file:
//
//	budget:
//	  - role: team_lead
//	    threshold: 0
//	    label: Team Lead Approval
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var raw map[string][]model.WorkflowRule
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	rules := make(map[model.RequestType][]model.WorkflowRule, len(raw))
	for rt, rs := range raw {
		if len(rs) == 0 {
			return nil, fmt.Errorf("rules file: request type %q has no rules", rt)
		}
		for _, r := range rs {
			if r.Role == "" {
				return nil, fmt.Errorf("rules file: request type %q has a rule without a role", rt)
			}
		}
		rules[model.RequestType(rt)] = rs
	}
	return NewRegistry(rules), nil
}

// Rules returns the declared rules for a request type, in declaration order.
// The second result is false when the type is not registered.
func (r *Registry) Rules(rt model.RequestType) ([]model.WorkflowRule, bool) {
	rs, ok := r.rules[rt]
	return rs, ok
}

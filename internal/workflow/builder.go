package workflow

import (
	"context"
	"fmt"

	"github.com/psds-microservice/workflow-service/internal/errs"
	"github.com/psds-microservice/workflow-service/internal/model"
)

// RoleDirectory resolves a role name to the identities currently holding it.
// The real implementation talks to the identity service; actors reaching the
// engine are assumed already authenticated.
type RoleDirectory interface {
	UsersWithRole(ctx context.Context, role string) ([]string, error)
}

// Builder materializes approval chains from the rule registry.
type Builder struct {
	registry  *Registry
	directory RoleDirectory
}

func NewBuilder(registry *Registry, directory RoleDirectory) *Builder {
	return &Builder{registry: registry, directory: directory}
}

// BuildChain selects the rules for the request type whose threshold is met by
// the amount (non-monetary types pass amount 0) and turns each into one chain
// level in declaration order. Every level is pre-populated with the eligible
// approver identities for its role and is immutable once built.
func (b *Builder) BuildChain(ctx context.Context, rt model.RequestType, amount float64) (model.ApprovalChain, error) {
	rules, ok := b.registry.Rules(rt)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrInvalidRequestType, rt)
	}

	chain := make(model.ApprovalChain, 0, len(rules))
	for _, rule := range rules {
		if rule.AmountThreshold > amount {
			continue
		}
		approvers, err := b.directory.UsersWithRole(ctx, rule.Role)
		if err != nil {
			return nil, fmt.Errorf("resolve role %q: %w", rule.Role, err)
		}
		if len(approvers) == 0 {
			// The level could never be approved; fail before anything persists.
			return nil, fmt.Errorf("%w: %q", errs.ErrNoEligibleApprovers, rule.Role)
		}
		chain = append(chain, model.ApprovalChainLink{
			Level:               len(chain),
			Role:                rule.Role,
			Label:               rule.Label,
			EligibleApproverIDs: approvers,
			Status:              model.ApprovalStatusPending,
		})
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: no rule for %q matches amount %.2f", errs.ErrInvalidRequestType, rt, amount)
	}
	return chain, nil
}

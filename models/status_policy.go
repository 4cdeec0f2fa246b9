package models

import "fmt"

// StatusPolicy decides which status transitions an order accepts.
type StatusPolicy interface {
	Name() string
	CanTransition(from, to OrderStatus) bool
}

const (
	StatusPolicyPermissive = "permissive"
	StatusPolicyWorkflow   = "workflow"
)

// PermissiveStatusPolicy lets staff set any status from any other, including
// moving an order out of delivered or cancelled.
type PermissiveStatusPolicy struct{}

func (PermissiveStatusPolicy) Name() string { return StatusPolicyPermissive }

func (PermissiveStatusPolicy) CanTransition(from, to OrderStatus) bool {
	return from.IsValid() && to.IsValid()
}

// WorkflowStatusPolicy follows the kitchen flow. Cancellation is allowed from
// every non-terminal status; delivered and cancelled accept nothing.
type WorkflowStatusPolicy struct{}

var workflowTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:     {OrderStatusDelivered, OrderStatusCancelled},
}

func (WorkflowStatusPolicy) Name() string { return StatusPolicyWorkflow }

func (WorkflowStatusPolicy) CanTransition(from, to OrderStatus) bool {
	if from.IsTerminal() {
		return false
	}
	for _, allowed := range workflowTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// NewStatusPolicy returns the policy registered under name.
func NewStatusPolicy(name string) (StatusPolicy, error) {
	switch name {
	case "", StatusPolicyPermissive:
		return PermissiveStatusPolicy{}, nil
	case StatusPolicyWorkflow:
		return WorkflowStatusPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown status policy %q", name)
	}
}

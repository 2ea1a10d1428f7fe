package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestIsConfigurationError(t *testing.T) {
	configErrs := []error{
		&domain.DuplicateNodeError{Name: "a"},
		&domain.DuplicateEdgeError{From: "a"},
		&domain.UnknownNodeError{Name: "a"},
		&domain.DanglingNodeError{Node: "a"},
		&domain.GraphError{Errors: []error{&domain.DanglingNodeError{Node: "a"}}},
		fmt.Errorf("edge: %w", domain.ErrEmptyBranchMap),
	}
	for _, err := range configErrs {
		assert.True(t, domain.IsConfigurationError(err), "%T should be a configuration error", err)
	}

	walkErrs := []error{
		&domain.UnmappedBranchError{From: "a", Key: "z"},
		&domain.NodeExecutionError{Node: "a", Err: errors.New("boom")},
		&domain.StepBudgetExceededError{Limit: 3},
		&domain.CancelledError{Step: "a", Err: context.Canceled},
	}
	for _, err := range walkErrs {
		assert.False(t, domain.IsConfigurationError(err), "%T should not be a configuration error", err)
	}
}

func TestGraphError_UnwrapsMembers(t *testing.T) {
	err := error(&domain.GraphError{Errors: []error{
		&domain.UnknownNodeError{Name: "x", From: "a"},
		&domain.DanglingNodeError{Node: "b"},
	}})

	var unknown *domain.UnknownNodeError
	assert.True(t, errors.As(err, &unknown))
	assert.Equal(t, "x", unknown.Name)

	var dangling *domain.DanglingNodeError
	assert.True(t, errors.As(err, &dangling))
	assert.Equal(t, "b", dangling.Node)
	assert.Contains(t, err.Error(), "2 problems")
}

func TestNodeExecutionError_Unwrap(t *testing.T) {
	cause := errors.New("provider down")
	err := error(&domain.NodeExecutionError{Node: "respond", Err: cause})
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), `node "respond" failed`)

	cancelled := error(&domain.CancelledError{Step: "respond", Err: context.DeadlineExceeded})
	assert.ErrorIs(t, cancelled, context.DeadlineExceeded)
}

package graph_test

import (
	"errors"
	"testing"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := graph.NewRegistry()
	require.NoError(t, r.Register("respond", passthrough(nil)))

	fn, err := r.Get("respond")
	require.NoError(t, err)
	assert.NotNil(t, fn)
	assert.True(t, r.Has("respond"))
	assert.Equal(t, []string{"respond"}, r.Names())
}

func TestRegistry_Duplicate(t *testing.T) {
	r := graph.NewRegistry()
	require.NoError(t, r.Register("respond", passthrough(nil)))

	err := r.Register("respond", passthrough(nil))
	var dup *domain.DuplicateNodeError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "respond", dup.Name)
}

func TestRegistry_Unknown(t *testing.T) {
	r := graph.NewRegistry()
	_, err := r.Get("missing")

	var unknown *domain.UnknownNodeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "missing", unknown.Name)
}

func TestRegistry_RejectsInvalidNames(t *testing.T) {
	r := graph.NewRegistry()
	assert.Error(t, r.Register("", passthrough(nil)))
	assert.Error(t, r.Register(domain.Terminal, passthrough(nil)))
	assert.Error(t, r.Register("nil", nil))
	assert.Empty(t, r.Names())
}

package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator_Generate(t *testing.T) {
	g := UUIDv7Generator{}

	id := g.Generate()
	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.NotEqual(t, id, g.Generate())
}

func TestFixedGenerator_RepeatsLast(t *testing.T) {
	g := NewFixedGenerator("req-1", "req-2")

	assert.Equal(t, "req-1", g.Generate())
	assert.Equal(t, "req-2", g.Generate())
	assert.Equal(t, "req-2", g.Generate())
}

func TestFixedGenerator_DefaultID(t *testing.T) {
	assert.Equal(t, "fixed-id", NewFixedGenerator().Generate())
}

package ui

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdemeulenaere/compose-driver/internal/fault"
)

func TestKeyByName_IgnoresCase(t *testing.T) {
	for _, name := range []string{"Enter", "enter", "ENTER", " Enter "} {
		k, err := KeyByName(name)
		require.NoError(t, err, name)
		assert.Equal(t, Key{Name: "Enter", Code: 66}, k)
	}
}

func TestKeyByName_Table(t *testing.T) {
	tests := map[string]int{
		"A":           29,
		"Z":           54,
		"Zero":        7,
		"Nine":        16,
		"F1":          131,
		"F12":         142,
		"DirectionUp": 19,
		"ShiftLeft":   59,
		"CtrlLeft":    113,
		"Back":        4,
	}
	for name, code := range tests {
		k, err := KeyByName(name)
		require.NoError(t, err, name)
		assert.Equal(t, code, k.Code, name)
	}
}

func TestKeyByName_Unknown(t *testing.T) {
	_, err := KeyByName("Hyper")
	require.Error(t, err)

	var fe *fault.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fault.CodeValidation, fe.Code)
	assert.Equal(t, "key", fe.Param)
	assert.Contains(t, fe.Message, "Unknown key: 'Hyper'")
}

func TestKeys_SortedByCodeWithUniqueNames(t *testing.T) {
	keys := Keys()
	assert.True(t, sort.SliceIsSorted(keys, func(i, j int) bool { return keys[i].Code < keys[j].Code }))

	seen := map[string]bool{}
	for _, k := range keys {
		assert.False(t, seen[k.Name], "duplicate key %s", k.Name)
		seen[k.Name] = true
	}

	// Callers get a copy.
	keys[0].Name = "changed"
	assert.NotEqual(t, "changed", Keys()[0].Name)
}

func TestParseKeyAction(t *testing.T) {
	a, err := ParseKeyAction("")
	require.NoError(t, err)
	assert.Equal(t, KeyPress, a)

	a, err = ParseKeyAction("DOWN")
	require.NoError(t, err)
	assert.Equal(t, KeyDown, a)

	_, err = ParseKeyAction("tap")
	assert.True(t, fault.IsValidation(err))
}

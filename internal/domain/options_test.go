package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionSetToggleTwiceRestoresEmpty(t *testing.T) {
	var s OptionSet
	s = s.Toggle(OptionCoffee)
	assert.True(t, s.Has(OptionCoffee))
	s = s.Toggle(OptionCoffee)
	assert.True(t, s.Empty())
}

func TestOptionSetOrderIndependent(t *testing.T) {
	a := OptionSet{}.Toggle(OptionCoffee).Toggle(OptionIT)
	b := OptionSet{}.Toggle(OptionIT).Toggle(OptionCoffee)
	assert.Equal(t, a.Tags(), b.Tags())
	assert.Equal(t, []OptionTag{OptionIT, OptionCoffee}, a.Tags())
	assert.Equal(t, "it, coffee", a.Join())
}

func TestOptionSetToggleDoesNotMutateReceiver(t *testing.T) {
	base := NewOptionSet(OptionEquipment)
	_ = base.Toggle(OptionCleaning)
	assert.Equal(t, 1, base.Len())
}

func TestParseOptionSet(t *testing.T) {
	s, err := ParseOptionSet("coffee, it,coffee")
	require.NoError(t, err)
	assert.Equal(t, []string{"IT-поддержка", "Кофе"}, s.Labels())

	empty, err := ParseOptionSet("")
	require.NoError(t, err)
	assert.True(t, empty.Empty())

	_, err = ParseOptionSet("coffee, tea")
	assert.Error(t, err)
}

func TestRequestTypeLabels(t *testing.T) {
	for _, rt := range RequestTypes {
		got, ok := RequestTypeFromLabel(rt.Label())
		require.True(t, ok, rt)
		assert.Equal(t, rt, got)
	}
	_, ok := RequestTypeFromLabel("🚀 Космос")
	assert.False(t, ok)
}

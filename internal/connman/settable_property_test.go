package connman

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSettableProperty builds a settableProperty with no backing
// technology, valid as long as the test never exercises setProperty (which
// needs a live D-Bus connection).
func newTestSettableProperty(initial bool, onChanged func()) *settableProperty[bool] {
	if onChanged == nil {
		onChanged = func() {}
	}
	return newSettableProperty(nil, "Powered", initial, onChanged)
}

func TestSettablePropertyValuePrecedence(t *testing.T) {
	p := newTestSettableProperty(false, nil)
	assert.Equal(t, false, p.Value())

	v := true
	p.pending = &v
	assert.Equal(t, true, p.Value())

	q := false
	p.queued = &q
	assert.Equal(t, false, p.Value(), "a queued value wins over a pending one")
}

func TestSettablePropertyChangedAppliesImmediatelyWhenIdle(t *testing.T) {
	var notified int
	p := newTestSettableProperty(false, func() { notified++ })

	p.changed(true)
	assert.Equal(t, true, p.Value())
	assert.Equal(t, 1, notified)

	p.changed(true) // unchanged
	assert.Equal(t, 1, notified)
}

func TestSettablePropertyChangedParksWhilePending(t *testing.T) {
	var notified int
	p := newTestSettableProperty(false, func() { notified++ })

	v := true
	p.pending = &v

	p.changed(true)
	require.NotNil(t, p.received)
	assert.Equal(t, true, *p.received)
	assert.Equal(t, 0, notified, "changed() must not fire onChanged while a set is pending")
	assert.Equal(t, false, p.value, "the confirmed value must not move until the pending set settles")
}

func TestSettablePropertySetNoOpWhenAlreadyAtTarget(t *testing.T) {
	var notified int
	p := newTestSettableProperty(true, func() { notified++ })

	p.Set(true)
	assert.Nil(t, p.pending)
	assert.Nil(t, p.queued)
	assert.Equal(t, 0, notified)
}

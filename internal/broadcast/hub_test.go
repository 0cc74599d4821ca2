package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHubCoalescesSignals(t *testing.T) {
	t.Parallel()

	var h Hub
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish()
	h.Publish()
	h.Publish()

	assert.Len(t, ch, 1, "signals should coalesce into one pending signal")
}

func TestHubCancelIsIdempotent(t *testing.T) {
	t.Parallel()

	var h Hub
	ch, cancel := h.Subscribe()
	assert.Equal(t, 1, h.Len())

	cancel()
	cancel()
	assert.Equal(t, 0, h.Len())

	_, ok := <-ch
	assert.False(t, ok, "expected closed channel after cancel")

	assert.NotPanics(t, h.Publish)
}

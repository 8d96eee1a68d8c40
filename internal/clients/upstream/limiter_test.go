package upstream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_PerHostBuckets(t *testing.T) {
	l := NewLimiter(1, 1)

	assert.True(t, l.Allow("a.example"))
	assert.False(t, l.Allow("a.example"), "burst of one is spent")
	assert.True(t, l.Allow("b.example"), "other hosts have their own bucket")
	assert.Equal(t, 2, l.Hosts())
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	l := NewLimiter(0.001, 1)
	require.NoError(t, l.Wait(context.Background(), "slow.example"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "slow.example"))
}

package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func decodeEvent(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var ev map[string]any
	require.NoError(t, json.Unmarshal(raw, &ev))
	return ev
}

func TestRegistry_PushReachesEveryChannelOfUser(t *testing.T) {
	r := NewRegistry(RegistryConfig{}, nil)
	a1, err := r.Register(1, nil)
	require.NoError(t, err)
	a2, err := r.Register(1, nil)
	require.NoError(t, err)
	b, err := r.Register(2, nil)
	require.NoError(t, err)
	assert.NotEqual(t, a1.ID, a2.ID)

	delivered := r.PushToUser(1, Event{Type: EventNotification, Payload: map[string]int{"id": 9}})
	assert.True(t, delivered)

	for _, c := range []*Client{a1, a2} {
		frames := drain(c)
		require.Len(t, frames, 1)
		ev := decodeEvent(t, frames[0])
		assert.Equal(t, EventNotification, ev["type"])
		assert.Equal(t, float64(9), ev["payload"].(map[string]any)["id"])
	}
	assert.Empty(t, drain(b))
}

func TestRegistry_PushToOfflineUser(t *testing.T) {
	r := NewRegistry(RegistryConfig{}, nil)
	assert.False(t, r.PushToUser(42, Event{Type: EventMessage}))
}

func TestRegistry_UnregisterByConnectionID(t *testing.T) {
	r := NewRegistry(RegistryConfig{}, nil)
	c1, err := r.Register(5, nil)
	require.NoError(t, err)
	c2, err := r.Register(5, nil)
	require.NoError(t, err)

	assert.True(t, r.Unregister(c1.ID))
	assert.False(t, r.Unregister(c1.ID))
	assert.Equal(t, 1, r.ConnectionCount(5))

	// The removed channel is closed and refuses further frames.
	_, ok := <-c1.Send
	assert.False(t, ok)
	assert.False(t, c1.TrySend([]byte("late")))

	assert.True(t, r.PushToUser(5, Event{Type: EventPong}))
	assert.Len(t, drain(c2), 1)

	r.UnregisterClient(c2)
	r.UnregisterClient(c2)
	assert.Equal(t, 0, r.TotalConnections())
	assert.False(t, r.IsOnline(context.Background(), 5))
}

func TestRegistry_Limits(t *testing.T) {
	r := NewRegistry(RegistryConfig{MaxConnsPerUser: 2, MaxTotalConns: 3}, nil)
	_, err := r.Register(1, nil)
	require.NoError(t, err)
	_, err = r.Register(1, nil)
	require.NoError(t, err)
	_, err = r.Register(1, nil)
	assert.ErrorIs(t, err, ErrUserConnLimit)

	_, err = r.Register(2, nil)
	require.NoError(t, err)
	_, err = r.Register(3, nil)
	assert.ErrorIs(t, err, ErrTotalConnLimit)
}

func TestRegistry_FullBufferDropsWithoutBlocking(t *testing.T) {
	r := NewRegistry(RegistryConfig{}, nil)
	c, err := r.Register(1, nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer; i++ {
		require.True(t, c.TrySend([]byte(fmt.Sprintf("%d", i))))
	}
	done := make(chan bool)
	go func() { done <- r.PushToUser(1, Event{Type: EventMessage}) }()
	select {
	case delivered := <-done:
		assert.False(t, delivered)
	case <-time.After(time.Second):
		t.Fatal("PushToUser blocked on a full buffer")
	}
}

func TestRegistry_ConcurrentRegisterPushUnregister(t *testing.T) {
	r := NewRegistry(RegistryConfig{MaxConnsPerUser: 100}, nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := r.Register(uint(i%5+1), nil)
			if !assert.NoError(t, err) {
				return
			}
			r.PushToUser(uint(i%5+1), Event{Type: EventPong})
			r.Unregister(c.ID)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, r.TotalConnections())
}

func TestRegistry_ShutdownClosesEverything(t *testing.T) {
	r := NewRegistry(RegistryConfig{}, nil)
	c1, err := r.Register(1, nil)
	require.NoError(t, err)
	c2, err := r.Register(2, nil)
	require.NoError(t, err)

	require.NoError(t, r.Shutdown(context.Background()))
	require.NoError(t, r.Shutdown(context.Background()))

	for _, c := range []*Client{c1, c2} {
		_, ok := <-c.Send
		assert.False(t, ok)
	}
	_, err = r.Register(3, nil)
	assert.ErrorIs(t, err, ErrRegistryClosed)
	assert.False(t, r.PushToUser(1, Event{Type: EventPong}))
}

func TestClient_InboundRateLimit(t *testing.T) {
	r := NewRegistry(RegistryConfig{FramesPerSecond: 2}, nil)
	c, err := r.Register(1, nil)
	require.NoError(t, err)

	allowed := 0
	for i := 0; i < 10; i++ {
		if c.Allow() {
			allowed++
		}
	}
	// Burst is twice the per-second rate.
	assert.Equal(t, 4, allowed)

	unlimited, err := NewRegistry(RegistryConfig{}, nil).Register(1, nil)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		assert.True(t, unlimited.Allow())
	}
}

package realtime

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestClient(pollID uuid.UUID) *Client {
	return &Client{
		ID:     uuid.New().String(),
		PollID: pollID,
		send:   make(chan WSMessage, 256),
		logger: zap.NewNop(),
	}
}

func TestHubBroadcastReachesRoom(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	pollID := uuid.New()
	otherPoll := uuid.New()

	in := newTestClient(pollID)
	out := newTestClient(otherPoll)
	hub.Register(in)
	hub.Register(out)

	hub.BroadcastToPoll(pollID, "results", map[string]int{"total": 3})

	msg := <-in.send
	assert.Equal(t, "results", msg.Event)
	assert.Empty(t, out.send, "other rooms must not receive the event")

	hub.Unregister(in)
	assert.Equal(t, 0, hub.ViewerCount(pollID))
	assert.Equal(t, 1, hub.ViewerCount(otherPoll))
}

func TestHubBroadcastDuringJoinAndLeave(t *testing.T) {
	// Viewers connect and disconnect while vote broadcasts are in flight.
	// Run with -race; the broadcast loop must never iterate the live room map.
	hub := NewHub(zap.NewNop(), nil, nil)
	pollID := uuid.New()

	stable := newTestClient(pollID)
	hub.Register(stable)

	var wg sync.WaitGroup
	const rounds = 200

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			c := newTestClient(pollID)
			hub.Register(c)
			hub.Unregister(c)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			hub.BroadcastToPollAndPublish(pollID, "results", map[string]int{"total": i})
		}
	}()

	wg.Wait()

	assert.Equal(t, 1, hub.ViewerCount(pollID))
	assert.Len(t, stable.send, rounds, "stable viewer sees every broadcast")
}

package evad

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
	err      error
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

func TestNATSForwarderPublishesStatus(t *testing.T) {
	pub := &fakePublisher{}
	f := NewNATSForwarder(pub, "", false)

	f.Forward(Event{Type: EventProgress, Run: Run{ID: "run-1"}})
	f.Forward(Event{Type: EventStatus, Run: Run{ID: "run-1", Status: RunStatusFailed, Error: "boom"}})

	require.Len(t, pub.subjects, 1)
	assert.Equal(t, "evolution.runs.status", pub.subjects[0])

	var payload map[string]any
	require.NoError(t, json.Unmarshal(pub.payloads[0], &payload))
	assert.Equal(t, "status", payload["type"])
	run := payload["run"].(map[string]any)
	assert.Equal(t, "run-1", run["id"])
	assert.Equal(t, "failed", run["status"])
	assert.Equal(t, "boom", run["error"])
}

func TestNATSForwarderProgress(t *testing.T) {
	pub := &fakePublisher{}
	f := NewNATSForwarder(pub, "lab.evo", true)

	f.Forward(Event{Type: EventProgress, Run: Run{ID: "run-1", Generation: 3}})
	assert.Equal(t, []string{"lab.evo.progress"}, pub.subjects)
	assert.Equal(t, "lab.evo.status", f.Subject(EventStatus))
}

func TestNATSForwarderPublishErrorIsSwallowed(t *testing.T) {
	pub := &fakePublisher{err: errors.New("nats: connection closed")}
	f := NewNATSForwarder(pub, "", true)

	assert.NotPanics(t, func() {
		f.Forward(Event{Type: EventStatus, Run: Run{ID: "run-1"}})
	})
}

func TestConnectNATSUnavailable(t *testing.T) {
	_, err := ConnectNATS("nats://127.0.0.1:1", "evolution-test", 1)
	assert.ErrorContains(t, err, "nats not available after 1 attempts")
}

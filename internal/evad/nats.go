package evad

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/GoSim-25-26J-441/evolution-core/pkg/config"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/logger"
	natsgo "github.com/nats-io/nats.go"
)

// DefaultNATSSubject prefixes the subjects run events are published on.
const DefaultNATSSubject = config.DefaultNATSSubject

// Publisher is the part of *nats.Conn used to publish events.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSForwarder publishes run events as JSON on "<prefix>.<type>", e.g.
// evolution.runs.status. Progress events are skipped unless enabled.
type NATSForwarder struct {
	pub      Publisher
	prefix   string
	progress bool
}

func NewNATSForwarder(pub Publisher, prefix string, progress bool) *NATSForwarder {
	if prefix == "" {
		prefix = DefaultNATSSubject
	}
	return &NATSForwarder{pub: pub, prefix: prefix, progress: progress}
}

// Subject returns the subject events of type t are published on.
func (f *NATSForwarder) Subject(t EventType) string {
	return f.prefix + "." + string(t)
}

// Forward publishes ev. Errors are logged and never returned.
func (f *NATSForwarder) Forward(ev Event) {
	if ev.Type == EventProgress && !f.progress {
		return
	}
	payload, err := json.Marshal(ev.fields())
	if err != nil {
		logger.Error("failed to marshal run event", "run_id", ev.Run.ID, "error", err)
		return
	}
	if err := f.pub.Publish(f.Subject(ev.Type), payload); err != nil {
		logger.Warn("failed to publish run event", "run_id", ev.Run.ID, "type", string(ev.Type), "error", err)
	}
}

// ConnectNATS connects to url, retrying up to maxAttempts times.
func ConnectNATS(url, name string, maxAttempts int) (*natsgo.Conn, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var nc *natsgo.Conn
	var err error
	for i := 0; i < maxAttempts; i++ {
		nc, err = natsgo.Connect(url,
			natsgo.Name(name),
			natsgo.MaxReconnects(-1),
			natsgo.ReconnectWait(2*time.Second),
			natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
				logger.Warn("nats disconnected", "error", err)
			}),
			natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
				logger.Info("nats reconnected", "url", nc.ConnectedUrl())
			}),
		)
		if err == nil {
			logger.Info("nats connected", "url", nc.ConnectedUrl())
			return nc, nil
		}
		logger.Info("waiting for nats", "attempt", i+1, "error", err)
		if i < maxAttempts-1 {
			time.Sleep(time.Second)
		}
	}
	return nil, fmt.Errorf("nats not available after %d attempts: %w", maxAttempts, err)
}

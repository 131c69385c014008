package sink

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/nerrad567/petkit-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/petkit-bridge/internal/infrastructure/mqtt"
)

// Numbers tracks external numeric inputs published on petkit/input/+.
// Accounts resolve feeding amount references against it.
type Numbers struct {
	broker Broker
	topics mqtt.Topics
	logger *logging.Logger

	mu     sync.RWMutex
	values map[string]float64
}

// NewNumbers creates an input tracker over a broker.
func NewNumbers(broker Broker, logger *logging.Logger) *Numbers {
	if logger == nil {
		logger = logging.Default()
	}
	return &Numbers{
		broker: broker,
		logger: logger.With("component", "inputs"),
		values: make(map[string]float64),
	}
}

// Start subscribes to the input wildcard. Retained inputs replay on
// subscribe, so values survive bridge restarts.
func (n *Numbers) Start() error {
	if err := n.broker.Subscribe(n.topics.AllInputs(), 1, n.handleInput); err != nil {
		return fmt.Errorf("subscribing to inputs: %w", err)
	}
	return nil
}

// Resolve returns the current value of a named input. It satisfies
// petkit.NumberResolver.
func (n *Numbers) Resolve(name string) (float64, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	v, ok := n.values[name]
	return v, ok
}

func (n *Numbers) handleInput(topic string, payload []byte) error {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 {
		return fmt.Errorf("malformed input topic %q", topic)
	}
	name := parts[2]

	raw := strings.TrimSpace(string(payload))
	if raw == "" {
		n.mu.Lock()
		delete(n.values, name)
		n.mu.Unlock()
		return nil
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("input %q is not numeric: %w", name, err)
	}

	n.mu.Lock()
	n.values[name] = value
	n.mu.Unlock()
	n.logger.Debug("input updated", "name", name, "value", value)
	return nil
}

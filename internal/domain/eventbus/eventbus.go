package eventbus

import (
	evbus "github.com/asaskevich/EventBus"
)

// Topics published on the process-wide bus.
const (
	TopicStageCompleted = "pipeline:stage:completed"
	TopicHealthChanged  = "removal:health:changed"
	TopicJobFinished    = "pipeline:job:finished"
)

// Bus is a thin wrapper over the in-process event bus. Subscribers run
// asynchronously so publishers never block on slow listeners.
type Bus struct {
	bus evbus.Bus
}

func New() *Bus {
	return &Bus{bus: evbus.New()}
}

func (b *Bus) Publish(topic string, args ...interface{}) {
	b.bus.Publish(topic, args...)
}

func (b *Bus) Subscribe(topic string, fn interface{}) error {
	return b.bus.SubscribeAsync(topic, fn, false)
}

// SubscribeSync registers a handler invoked inline with the publisher.
func (b *Bus) SubscribeSync(topic string, fn interface{}) error {
	return b.bus.Subscribe(topic, fn)
}

func (b *Bus) Unsubscribe(topic string, fn interface{}) error {
	return b.bus.Unsubscribe(topic, fn)
}

// WaitAsync blocks until all asynchronous handlers have drained.
func (b *Bus) WaitAsync() {
	b.bus.WaitAsync()
}

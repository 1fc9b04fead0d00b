package eventbus

import (
	"context"

	"github.com/annel0/voxel-planets/internal/logging"
)

// StartLoggingListener подписывается на все события и пишет их в лог компонента "events".
// Функция неблокирующая.
func StartLoggingListener(bus EventBus) (Subscription, error) {
	logger := logging.GetComponentLogger("events")
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		logger.Debug("%s %s planet=%s size=%dB", ev.ID, ev.EventType, ev.PlanetID, len(ev.Payload))
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Подписка на все события активирована")
	return sub, nil
}

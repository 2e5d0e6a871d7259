package notification

import (
	"clipfuel-platform/services/tracking"

	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(
		fx.Annotate(NewNotifier, fx.As(new(tracking.Notifier))),
	),
)

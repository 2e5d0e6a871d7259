package tracking

import (
	"go.uber.org/fx"
)

var Module = fx.Module("tracking.service",
	fx.Provide(
		NewSettings,
		NewSelector,
		NewBatchRunner,
		NewSettler,
		NewService,
		NewTask,
	),
	fx.Invoke(
		RegisterHandlers,
		RegisterSchedules,
		RegisterRoutes,
	),
)

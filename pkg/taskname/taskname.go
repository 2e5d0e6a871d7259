package taskname

const (
	TrackingSettleRun  = "tracking:settle:run"
	TrackingPendingRun = "tracking:pending:run"
)

package tracking

import (
	"net/http"

	"clipfuel-platform/pkg/db/option"
	"clipfuel-platform/pkg/errutil"
	"clipfuel-platform/pkg/taskname"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

// RegisterRoutes exposes persisted run summaries to the admin dashboard and a
// trigger for an on-demand pass.
func RegisterRoutes(router *gin.Engine, svc *Service) {
	v1 := router.Group("/api/v1/tracking")
	v1.GET("/runs", svc.listRuns)
	v1.GET("/runs/:id", svc.getRun)
	v1.POST("/runs", svc.triggerRun)
}

func (s *Service) listRuns(c *gin.Context) {
	query := &Run{}
	if kind := c.Query("kind"); kind != "" {
		query.Kind = RunKind(kind)
	}

	runs, err := s.runs.Find(c.Request.Context(), query,
		option.WithSortBy(option.QuerySortBy{Field: "started_at", OrderBy: "DESC"}),
		option.WithLimit(50),
	)
	if err != nil {
		be := errutil.FromError(err)
		c.JSON(be.Code.HTTPCode(), be.JSON())
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Service) getRun(c *gin.Context) {
	run, err := s.runs.FindOne(c.Request.Context(), &Run{ID: c.Param("id")})
	if err != nil {
		be := errutil.FromError(err)
		c.JSON(be.Code.HTTPCode(), be.JSON())
		return
	}
	if run == nil {
		be := errutil.FromError(errutil.NotFound("run not found", nil))
		c.JSON(be.Code.HTTPCode(), be.JSON())
		return
	}

	c.JSON(http.StatusOK, run)
}

type triggerRunRequest struct {
	Kind RunKind `json:"kind"`
}

// triggerRun enqueues a one-off pass through the same worker path the
// scheduler uses, so a manual run gets the same uniqueness and retry policy.
func (s *Service) triggerRun(c *gin.Context) {
	req := triggerRunRequest{Kind: RunKindSettle}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			be := errutil.FromError(errutil.BadRequest("invalid request body", err))
			c.JSON(be.Code.HTTPCode(), be.JSON())
			return
		}
	}

	var name string
	switch req.Kind {
	case RunKindSettle:
		name = taskname.TrackingSettleRun
	case RunKindPending:
		name = taskname.TrackingPendingRun
	default:
		be := errutil.FromError(errutil.BadRequest("unknown run kind", nil))
		c.JSON(be.Code.HTTPCode(), be.JSON())
		return
	}

	if s.enqueuer == nil {
		be := errutil.FromError(errutil.NotImplemented("task queue not configured", nil))
		c.JSON(be.Code.HTTPCode(), be.JSON())
		return
	}

	info, err := s.enqueuer.Enqueue(asynq.NewTask(name, nil), asynq.Queue("default"))
	if err != nil {
		be := errutil.FromError(err)
		c.JSON(be.Code.HTTPCode(), be.JSON())
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"task_id": info.ID, "kind": req.Kind})
}

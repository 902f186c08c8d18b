package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"syllabus-crawler/domain/apperror"
	"syllabus-crawler/domain/dto"
	"syllabus-crawler/domain/model"
	"syllabus-crawler/infrastructure/realtime"
	"syllabus-crawler/usecase"
)

type IScrapeHandler interface {
	SubmitJob(ctx *gin.Context)
	ListJobs(ctx *gin.Context)
	GetJob(ctx *gin.Context)
	StreamJob(ctx *gin.Context)
	Healthz(ctx *gin.Context)
}

type ScrapeHandler struct {
	jobs usecase.IScrapeJobUseCase
	hub  *realtime.Hub
}

func NewScrapeHandler(jobs usecase.IScrapeJobUseCase, hub *realtime.Hub) IScrapeHandler {
	return &ScrapeHandler{jobs: jobs, hub: hub}
}

// SubmitJob handles POST /api/scrape/jobs
func (h *ScrapeHandler) SubmitJob(ctx *gin.Context) {
	var req dto.ScrapeJobRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Kind: string(apperror.KindConfig)})
		return
	}
	job, err := h.jobs.Submit(req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusAccepted, job)
}

// ListJobs handles GET /api/scrape/jobs
func (h *ScrapeHandler) ListJobs(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"data": h.jobs.List()})
}

// GetJob handles GET /api/scrape/jobs/:id
func (h *ScrapeHandler) GetJob(ctx *gin.Context) {
	job, ok := h.jobs.Get(ctx.Param("id"))
	if !ok {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "job not found", Kind: string(apperror.KindNotFound)})
		return
	}
	ctx.JSON(http.StatusOK, job)
}

// StreamJob handles GET /api/scrape/jobs/:id/stream
func (h *ScrapeHandler) StreamJob(ctx *gin.Context) {
	id := ctx.Param("id")
	if _, ok := h.jobs.Get(id); !ok {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "job not found", Kind: string(apperror.KindNotFound)})
		return
	}
	h.hub.Serve(ctx, id, func() []model.ScrapeEvent {
		job, _ := h.jobs.Get(id)
		return backlog(job)
	})
}

// Healthz returns OK for health checks
func (h *ScrapeHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// backlog replays what a late subscriber missed
func backlog(job *model.ScrapeJob) []model.ScrapeEvent {
	if job == nil {
		return nil
	}
	out := make([]model.ScrapeEvent, 0, len(job.Records)+1)
	for i := range job.Records {
		out = append(out, model.ScrapeEvent{Type: model.ScrapeEventVideo, JobID: job.ID, Status: job.Status, Record: &job.Records[i]})
	}
	switch job.Status {
	case model.ScrapeJobDone:
		out = append(out, model.ScrapeEvent{Type: model.ScrapeEventDone, JobID: job.ID, Status: job.Status})
	case model.ScrapeJobFailed:
		out = append(out, model.ScrapeEvent{Type: model.ScrapeEventFailed, JobID: job.ID, Status: job.Status, Error: job.Error, ErrorKind: job.ErrorKind})
	}
	return out
}

func respondError(ctx *gin.Context, err error) {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		ctx.JSON(appErr.HTTPStatus(), dto.ErrorResponse{Error: appErr.Error(), Kind: string(appErr.Kind)})
		return
	}
	ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error(), Kind: string(apperror.KindInternal)})
}

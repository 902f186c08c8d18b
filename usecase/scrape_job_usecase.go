package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"syllabus-crawler/domain/apperror"
	"syllabus-crawler/domain/dto"
	"syllabus-crawler/domain/model"
	"syllabus-crawler/domain/repository"
	"syllabus-crawler/infrastructure/logger"
)

// PipelineFactory builds a fresh scrape session publishing into sink
type PipelineFactory func(sink repository.IVideoSink) IScraperUseCase

// IScrapeBroadcaster receives job progress events
type IScrapeBroadcaster interface {
	Broadcast(evt model.ScrapeEvent)
}

type IScrapeJobUseCase interface {
	Submit(req dto.ScrapeJobRequest) (*model.ScrapeJob, error)
	Get(id string) (*model.ScrapeJob, bool)
	List() []*model.ScrapeJob
	// Wait blocks until every submitted job has finished
	Wait()
}

type scrapeJobUseCase struct {
	ctx         context.Context
	syllabus    repository.ISyllabus
	newPipeline PipelineFactory
	sink        repository.IVideoSink
	broadcaster IScrapeBroadcaster
	timeout     time.Duration
	now         func() time.Time

	mu    sync.RWMutex
	jobs  map[string]*model.ScrapeJob
	order []string
	wg    sync.WaitGroup
}

// NewScrapeJobUseCase runs each submitted job on its own goroutine with its
// own pipeline. Jobs stop when ctx is cancelled or the timeout elapses.
func NewScrapeJobUseCase(ctx context.Context, syllabus repository.ISyllabus, newPipeline PipelineFactory, sink repository.IVideoSink, broadcaster IScrapeBroadcaster, timeout time.Duration) IScrapeJobUseCase {
	if sink == nil {
		sink = NewLogSink()
	}
	return &scrapeJobUseCase{
		ctx:         ctx,
		syllabus:    syllabus,
		newPipeline: newPipeline,
		sink:        sink,
		broadcaster: broadcaster,
		timeout:     timeout,
		now:         time.Now,
		jobs:        make(map[string]*model.ScrapeJob),
	}
}

func (u *scrapeJobUseCase) Submit(req dto.ScrapeJobRequest) (*model.ScrapeJob, error) {
	const op = "ScrapeJobUseCase.Submit"
	chapter, err := u.syllabus.LoadChapter(req.ChapterPath)
	if err != nil {
		return nil, err
	}
	if req.Topic != "" {
		if _, ok := chapter.Topic(req.Topic); !ok {
			return nil, apperror.NotFound(op, nil, "topic "+req.Topic+" not found in "+req.ChapterPath)
		}
	}

	job := &model.ScrapeJob{
		ID:          uuid.NewString(),
		ChapterPath: req.ChapterPath,
		TopicKey:    req.Topic,
		Status:      model.ScrapeJobPending,
		Records:     make([]model.VideoRecord, 0),
		CreatedAt:   u.now().UTC(),
	}
	u.mu.Lock()
	u.jobs[job.ID] = job
	u.order = append(u.order, job.ID)
	snapshot := snapshotJob(job)
	u.mu.Unlock()

	u.wg.Add(1)
	go u.run(job.ID, chapter, req.Topic)

	logger.GetLogger().WithField("jobId", job.ID).WithField("chapter", req.ChapterPath).Info("Scrape job submitted")
	return snapshot, nil
}

func (u *scrapeJobUseCase) run(id string, chapter *model.Chapter, topic string) {
	defer u.wg.Done()
	log := logger.GetLogger().WithField("jobId", id)

	ctx, cancel := context.WithTimeout(u.ctx, u.timeout)
	defer cancel()

	u.update(id, func(j *model.ScrapeJob) { j.Status = model.ScrapeJobRunning })

	progress := VideoSinkFunc(func(_ context.Context, rec *model.VideoRecord) error {
		u.update(id, func(j *model.ScrapeJob) { j.Records = append(j.Records, *rec) })
		copied := *rec
		u.broadcast(model.ScrapeEvent{Type: model.ScrapeEventVideo, JobID: id, Status: model.ScrapeJobRunning, Record: &copied})
		return nil
	})
	pipeline := u.newPipeline(NewFanOutSink(u.sink, progress))

	var err error
	if topic == "" {
		_, err = pipeline.ScrapeChapter(ctx, chapter)
	} else {
		sctx, _ := chapter.ScrapeContext(topic)
		_, err = pipeline.ScrapeTopic(ctx, sctx)
		pipeline.ResetSession()
	}
	if err != nil && ctx.Err() != nil && !errors.As(err, new(*apperror.Error)) {
		err = apperror.Network("ScrapeJobUseCase.run", err, "scrape job interrupted")
	}

	finished := u.now().UTC()
	if err != nil {
		kind := string(apperror.KindOf(err))
		u.update(id, func(j *model.ScrapeJob) {
			j.Status = model.ScrapeJobFailed
			j.Error = err.Error()
			j.ErrorKind = kind
			j.FinishedAt = &finished
		})
		u.broadcast(model.ScrapeEvent{Type: model.ScrapeEventFailed, JobID: id, Status: model.ScrapeJobFailed, Error: err.Error(), ErrorKind: kind})
		log.WithField("error", err).WithField("kind", kind).Error("Scrape job failed")
		return
	}

	u.update(id, func(j *model.ScrapeJob) {
		j.Status = model.ScrapeJobDone
		j.FinishedAt = &finished
	})
	u.broadcast(model.ScrapeEvent{Type: model.ScrapeEventDone, JobID: id, Status: model.ScrapeJobDone})
	log.Info("Scrape job done")
}

func (u *scrapeJobUseCase) update(id string, fn func(j *model.ScrapeJob)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if job, ok := u.jobs[id]; ok {
		fn(job)
	}
}

func (u *scrapeJobUseCase) broadcast(evt model.ScrapeEvent) {
	if u.broadcaster != nil {
		u.broadcaster.Broadcast(evt)
	}
}

func (u *scrapeJobUseCase) Get(id string) (*model.ScrapeJob, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	job, ok := u.jobs[id]
	if !ok {
		return nil, false
	}
	return snapshotJob(job), true
}

// List returns every job in submission order
func (u *scrapeJobUseCase) List() []*model.ScrapeJob {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]*model.ScrapeJob, 0, len(u.order))
	for _, id := range u.order {
		out = append(out, snapshotJob(u.jobs[id]))
	}
	return out
}

func (u *scrapeJobUseCase) Wait() {
	u.wg.Wait()
}

func snapshotJob(job *model.ScrapeJob) *model.ScrapeJob {
	cp := *job
	cp.Records = append(make([]model.VideoRecord, 0, len(job.Records)), job.Records...)
	if job.FinishedAt != nil {
		t := *job.FinishedAt
		cp.FinishedAt = &t
	}
	return &cp
}

package history

import (
	"time"

	"github.com/evkuzin/climescope/sensor"
	"github.com/evkuzin/climescope/storage"
	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
)

const pruneEvery = 24 * time.Hour

// Recorder periodically stores a fresh sample and prunes expired history.
type Recorder struct {
	scheduler *gocron.Scheduler
	reader    sensor.SampleReader
	store     storage.Adapter
	interval  time.Duration
	retention time.Duration
	logger    *logrus.Logger
}

func NewRecorder(reader sensor.SampleReader, store storage.Adapter, interval, retention time.Duration, logger *logrus.Logger) *Recorder {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Recorder{
		scheduler: s,
		reader:    reader,
		store:     store,
		interval:  interval,
		retention: retention,
		logger:    logger,
	}
}

// Start schedules both jobs and runs the scheduler in the background.
func (r *Recorder) Start() error {
	if _, err := r.scheduler.Every(r.interval).Do(r.record); err != nil {
		return err
	}
	if _, err := r.scheduler.Every(pruneEvery).Do(r.prune); err != nil {
		return err
	}
	r.scheduler.StartAsync()
	r.logger.Infof("history recorder started, every %s, keeping %s", r.interval, r.retention)
	return nil
}

func (r *Recorder) Stop() {
	r.scheduler.Stop()
}

func (r *Recorder) record() {
	sample := r.reader.Read()
	if err := r.store.Put(sample); err != nil {
		r.logger.Warnf("cannot write to storage: %s", err.Error())
	}
}

func (r *Recorder) prune() {
	removed, err := r.store.Prune(r.retention)
	if err != nil {
		r.logger.Warnf("cannot prune history: %s", err.Error())
		return
	}
	if removed > 0 {
		r.logger.Infof("pruned %d history rows older than %s", removed, r.retention)
	}
}

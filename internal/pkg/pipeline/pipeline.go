package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/grihenrik/videotranscribe/internal/pkg/cmdapp"
	"github.com/grihenrik/videotranscribe/internal/pkg/errs"
	"github.com/grihenrik/videotranscribe/internal/pkg/fingerprint"
	"github.com/grihenrik/videotranscribe/internal/pkg/hub"
	"github.com/grihenrik/videotranscribe/internal/pkg/job"
	"github.com/grihenrik/videotranscribe/internal/pkg/transcript"
)

// CaptionExtractor fetches existing captions for a video.
// Returns a KindNotAvailable error when the video has none.
type CaptionExtractor interface {
	Extract(ctx context.Context, sourceID string, lang string) (*transcript.Transcript, error)
}

// AudioDownloader fetches the audio track and returns a local handle
type AudioDownloader interface {
	Download(ctx context.Context, sourceID string) (string, error)
}

// SpeechTranscriber turns downloaded audio into a transcript
type SpeechTranscriber interface {
	Transcribe(ctx context.Context, audioPath string, lang string) (*transcript.Transcript, error)
}

// ArtifactSaver persists one rendered artifact
type ArtifactSaver interface {
	Save(id string, format transcript.Format, data []byte) error
}

// StageTimeouts limit each pipeline stage
type StageTimeouts struct {
	Extract    time.Duration
	Download   time.Duration
	Transcribe time.Duration
	Finalize   time.Duration
}

// ServiceData keeps data required for executor work
type ServiceData struct {
	Extractor   CaptionExtractor
	Downloader  AudioDownloader
	Transcriber SpeechTranscriber
	Saver       ArtifactSaver
	EventHub    *hub.Hub
	Workers     int
	Timeouts    StageTimeouts
}

// Executor drives jobs through their stages on a bounded worker pool.
// It is the only component that mutates job state.
type Executor struct {
	data *ServiceData
	sem  chan struct{}
	wg   sync.WaitGroup
}

// NewExecutor validates wiring and creates the executor
func NewExecutor(data *ServiceData) (*Executor, error) {
	if data.Extractor == nil {
		return nil, errors.New("No caption extractor")
	}
	if data.Downloader == nil {
		return nil, errors.New("No audio downloader")
	}
	if data.Transcriber == nil {
		return nil, errors.New("No speech transcriber")
	}
	if data.Saver == nil {
		return nil, errors.New("No artifact saver")
	}
	if data.EventHub == nil {
		return nil, errors.New("No event hub")
	}
	if data.Workers < 1 {
		return nil, errors.New("No positive worker count")
	}
	return &Executor{data: data, sem: make(chan struct{}, data.Workers)}, nil
}

// Enqueue schedules a job run. Never blocks: the job stays QUEUED
// until a worker slot frees up.
func (e *Executor) Enqueue(j *job.Job) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.sem <- struct{}{}
		defer func() { <-e.sem }()
		e.run(j)
	}()
}

// Wait blocks until all scheduled jobs finished. Used on shutdown and in tests.
func (e *Executor) Wait() {
	e.wg.Wait()
}

// run advances one job to a terminal state. Exactly one run per job.
func (e *Executor) run(j *job.Job) {
	cmdapp.Log.Infof("Starting job %s (%s)", j.ID(), j.Key().String())
	if err := e.moveTo(j, job.Extracting); err != nil {
		e.fail(j, err)
		return
	}

	res, err := e.extractStage(j)
	if err != nil {
		e.fail(j, err)
		return
	}
	if res == nil {
		if err := e.moveTo(j, job.Transcribing); err != nil {
			e.fail(j, err)
			return
		}
		res, err = e.speechStage(j)
		if err != nil {
			e.fail(j, err)
			return
		}
	}

	if err := e.moveTo(j, job.Finalizing); err != nil {
		e.fail(j, err)
		return
	}
	if err := e.finalizeStage(j, res); err != nil {
		e.fail(j, err)
		return
	}
	if err := j.Complete(res); err != nil {
		cmdapp.Log.Error(errors.Wrap(err, "Can't complete job "+j.ID()))
		e.fail(j, errs.Wrap(err, errs.KindInternal, "can't complete job"))
		return
	}
	e.data.EventHub.Publish(j.Snapshot())
	cmdapp.Log.Infof("Completed job %s", j.ID())
}

// extractStage returns captions, or nil when the speech path must run
func (e *Executor) extractStage(j *job.Job) (*transcript.Transcript, error) {
	key := j.Key()
	if key.Mode == fingerprint.ModeSpeech {
		return nil, nil
	}
	var res *transcript.Transcript
	err := e.stage(e.data.Timeouts.Extract, "extract", func(ctx context.Context) error {
		var serr error
		res, serr = e.data.Extractor.Extract(ctx, key.VideoID, key.Lang)
		return serr
	})
	if err == nil && !res.Empty() {
		return res, nil
	}
	notAvailable := err == nil || errs.Is(err, errs.KindNotAvailable)
	if !notAvailable {
		return nil, err
	}
	if key.Mode == fingerprint.ModeCaptions {
		if err != nil {
			return nil, err
		}
		return nil, errs.Errorf(errs.KindNotAvailable, "no captions for '%s'", key.VideoID)
	}
	cmdapp.Log.Infof("No captions for %s, falling back to speech model", key.VideoID)
	return nil, nil
}

func (e *Executor) speechStage(j *job.Job) (*transcript.Transcript, error) {
	key := j.Key()
	var audioPath string
	err := e.stage(e.data.Timeouts.Download, "download", func(ctx context.Context) error {
		var serr error
		audioPath, serr = e.data.Downloader.Download(ctx, key.VideoID)
		return serr
	})
	if err != nil {
		return nil, err
	}
	var res *transcript.Transcript
	err = e.stage(e.data.Timeouts.Transcribe, "transcribe", func(ctx context.Context) error {
		var serr error
		res, serr = e.data.Transcriber.Transcribe(ctx, audioPath, key.Lang)
		return serr
	})
	if err != nil {
		return nil, err
	}
	if res.Empty() {
		return nil, errs.Errorf(errs.KindInternal, "empty transcription for '%s'", key.VideoID)
	}
	return res, nil
}

func (e *Executor) finalizeStage(j *job.Job, res *transcript.Transcript) error {
	return e.stage(e.data.Timeouts.Finalize, "finalize", func(ctx context.Context) error {
		for _, f := range transcript.Formats() {
			if err := e.data.Saver.Save(j.ID(), f, res.Render(f)); err != nil {
				return errs.Wrap(err, errs.KindInternal, "can't save artifact")
			}
		}
		return nil
	})
}

// stage runs one step under its deadline, mapping expiry to a timeout error
func (e *Executor) stage(timeout time.Duration, name string, f func(ctx context.Context) error) error {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	err := f(ctx)
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded) {
		return errs.Wrap(err, errs.KindTimeout, "stage "+name+" timed out")
	}
	return err
}

func (e *Executor) moveTo(j *job.Job, st job.Status) error {
	if err := j.MoveTo(st); err != nil {
		return errs.Wrap(err, errs.KindInternal, "job state error")
	}
	e.data.EventHub.Publish(j.Snapshot())
	return nil
}

// fail ends the job with a typed cause. Every job ends COMPLETED or FAILED.
func (e *Executor) fail(j *job.Job, err error) {
	cmdapp.Log.Error(errors.Wrap(err, "Job "+j.ID()+" failed"))
	if ferr := j.Fail(err); ferr != nil {
		cmdapp.Log.Error(ferr)
		return
	}
	e.data.EventHub.Publish(j.Snapshot())
}

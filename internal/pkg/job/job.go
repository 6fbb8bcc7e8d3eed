package job

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/grihenrik/videotranscribe/internal/pkg/errs"
	"github.com/grihenrik/videotranscribe/internal/pkg/fingerprint"
	"github.com/grihenrik/videotranscribe/internal/pkg/transcript"
)

// Job is one tracked unit of transcription work.
// Status moves only forward and only the pipeline may call the mutating methods.
type Job struct {
	id    string
	key   fingerprint.Key
	email string

	lock      sync.RWMutex
	status    Status
	progress  int32
	result    *transcript.Transcript
	err       error
	createdAt time.Time
	updatedAt time.Time
}

// Snapshot is a read only copy of job state for observers
type Snapshot struct {
	ID        string
	Key       fingerprint.Key
	Email     string
	Status    Status
	Progress  int32
	Result    *transcript.Transcript
	ErrCode   string
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates a queued job for a request key
func New(key fingerprint.Key, email string) *Job {
	now := time.Now()
	return &Job{id: uuid.New().String(), key: key, email: email,
		status: Queued, createdAt: now, updatedAt: now}
}

// ID returns the process unique job identifier
func (j *Job) ID() string {
	return j.id
}

// Key returns the request fingerprint that produced this job
func (j *Job) Key() fingerprint.Key {
	return j.key
}

// MoveTo advances the job to a non-terminal status.
// An illegal edge is an internal consistency error, never applied silently.
func (j *Job) MoveTo(st Status) error {
	j.lock.Lock()
	defer j.lock.Unlock()
	if Terminal(st) {
		return errors.Errorf("use Complete or Fail for terminal status %s", Name(st))
	}
	if !validTransition(j.status, st) {
		return errors.Errorf("illegal transition %s -> %s for job %s", Name(j.status), Name(st), j.id)
	}
	j.status = st
	j.setProgressNoSync(Progress(st))
	j.updatedAt = time.Now()
	return nil
}

// Complete attaches the result and moves the job to the terminal success status
func (j *Job) Complete(res *transcript.Transcript) error {
	j.lock.Lock()
	defer j.lock.Unlock()
	if !validTransition(j.status, Completed) {
		return errors.Errorf("illegal transition %s -> %s for job %s", Name(j.status), Name(Completed), j.id)
	}
	if res == nil {
		return errors.Errorf("no result for job %s", j.id)
	}
	j.status = Completed
	j.result = res
	j.setProgressNoSync(Progress(Completed))
	j.updatedAt = time.Now()
	return nil
}

// Fail moves the job to the terminal failure status from any non-terminal one
func (j *Job) Fail(err error) error {
	j.lock.Lock()
	defer j.lock.Unlock()
	if Terminal(j.status) {
		return errors.Errorf("illegal transition %s -> %s for job %s", Name(j.status), Name(Failed), j.id)
	}
	j.status = Failed
	j.err = err
	j.updatedAt = time.Now()
	return nil
}

// Terminal returns true if no further transitions will occur
func (j *Job) Terminal() bool {
	j.lock.RLock()
	defer j.lock.RUnlock()
	return Terminal(j.status)
}

// Snapshot returns a consistent copy of the current state
func (j *Job) Snapshot() Snapshot {
	j.lock.RLock()
	defer j.lock.RUnlock()
	res := Snapshot{ID: j.id, Key: j.key, Email: j.email, Status: j.status,
		Progress: j.progress, CreatedAt: j.createdAt, UpdatedAt: j.updatedAt}
	if j.status == Completed {
		res.Result = j.result
	}
	if j.status == Failed && j.err != nil {
		res.ErrCode = errs.GetKind(j.err).Code()
		res.Error = j.err.Error()
	}
	return res
}

func (j *Job) setProgressNoSync(pr int32) {
	if pr > j.progress {
		j.progress = pr
	}
}

package batch

import (
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/grihenrik/videotranscribe/internal/pkg/cache"
	"github.com/grihenrik/videotranscribe/internal/pkg/cmdapp"
	"github.com/grihenrik/videotranscribe/internal/pkg/errs"
	"github.com/grihenrik/videotranscribe/internal/pkg/fingerprint"
	"github.com/grihenrik/videotranscribe/internal/pkg/hub"
	"github.com/grihenrik/videotranscribe/internal/pkg/job"
	"github.com/grihenrik/videotranscribe/internal/pkg/transcript"
)

// Enqueuer schedules created jobs for pipeline work
type Enqueuer interface {
	Enqueue(j *job.Job)
}

// ArtifactLoader reads persisted artifacts for archive assembly
type ArtifactLoader interface {
	Load(id string, format transcript.Format) ([]byte, error)
}

// Status strings for the batch aggregate
const (
	StatusRunning           = "RUNNING"
	StatusCompleted         = "COMPLETED"
	StatusCompletedWithErrs = "COMPLETED_WITH_ERRORS"
)

// MemberState is one job's contribution to the aggregate
type MemberState struct {
	JobID    string `json:"jobID"`
	VideoID  string `json:"videoID"`
	Status   string `json:"status"`
	Progress int32  `json:"progress"`
	ErrCode  string `json:"errorCode,omitempty"`
}

// AggregateStatus is the roll-up over all members
type AggregateStatus struct {
	ID        string        `json:"id"`
	Status    string        `json:"status"`
	Total     int           `json:"total"`
	Completed int           `json:"completed"`
	Failed    int           `json:"failed"`
	Percent   int           `json:"progress"`
	Members   []MemberState `json:"members"`
}

type batchData struct {
	id      string
	members []*job.Job

	archiveOnce sync.Once
	archive     []byte
	archiveErr  error
}

// Orchestrator fans url collections out into jobs and aggregates them.
// Member jobs stay owned by the cache, a batch only references them.
type Orchestrator struct {
	cache    *cache.JobCache
	enqueuer Enqueuer
	loader   ArtifactLoader

	lock       sync.Mutex
	batches    map[string]*batchData
	jobBatches map[string][]*batchData // job id -> batches referencing it
}

// NewOrchestrator creates the orchestrator and hooks batch roll-up
// into the event hub
func NewOrchestrator(c *cache.JobCache, enq Enqueuer, loader ArtifactLoader, h *hub.Hub) (*Orchestrator, error) {
	if c == nil {
		return nil, errors.New("No job cache")
	}
	if enq == nil {
		return nil, errors.New("No enqueuer")
	}
	if loader == nil {
		return nil, errors.New("No artifact loader")
	}
	if h == nil {
		return nil, errors.New("No event hub")
	}
	res := &Orchestrator{cache: c, enqueuer: enq, loader: loader,
		batches: make(map[string]*batchData), jobBatches: make(map[string][]*batchData)}
	h.AddListener(res.onEvent)
	return res, nil
}

// Submit creates jobs for the urls, deduplicating by fingerprint.
// Two urls resolving to the same fingerprint share one job and count once.
func (o *Orchestrator) Submit(urls []string, mode, lang string) (*AggregateStatus, error) {
	if len(urls) == 0 {
		return nil, errs.New(errs.KindInvalidRequest, "no urls")
	}
	keys := make([]fingerprint.Key, 0, len(urls))
	seen := make(map[fingerprint.Key]bool)
	for _, url := range urls {
		key, err := fingerprint.New(url, mode, lang)
		if err != nil {
			return nil, errors.Wrapf(err, "wrong url '%s'", url)
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}

	b := &batchData{id: "batch-" + uuid.New().String()}
	var newJobs []*job.Job
	for _, key := range keys {
		k := key
		j, created := o.cache.GetOrCreate(k, func() *job.Job { return job.New(k, "") })
		b.members = append(b.members, j)
		if created {
			newJobs = append(newJobs, j)
		}
	}

	// register before enqueueing so terminal events always find the batch
	o.lock.Lock()
	o.batches[b.id] = b
	for _, j := range b.members {
		o.jobBatches[j.ID()] = append(o.jobBatches[j.ID()], b)
	}
	o.lock.Unlock()

	for _, j := range newJobs {
		o.enqueuer.Enqueue(j)
	}

	cmdapp.Log.Infof("Submitted batch %s with %d jobs", b.id, len(b.members))
	return o.status(b), nil
}

// Status returns the aggregate for a batch id
func (o *Orchestrator) Status(id string) (*AggregateStatus, error) {
	b, err := o.get(id)
	if err != nil {
		return nil, err
	}
	return o.status(b), nil
}

// Archive returns the combined zip of successful members' artifacts.
// Only available when every member is terminal.
func (o *Orchestrator) Archive(id string) ([]byte, error) {
	b, err := o.get(id)
	if err != nil {
		return nil, err
	}
	st := o.status(b)
	if st.Status == StatusRunning {
		return nil, errs.Errorf(errs.KindInvalidRequest, "batch %s is not complete", id)
	}
	o.assemble(b)
	return b.archive, b.archiveErr
}

func (o *Orchestrator) get(id string) (*batchData, error) {
	o.lock.Lock()
	defer o.lock.Unlock()
	b, found := o.batches[id]
	if !found {
		return nil, errs.Errorf(errs.KindInvalidRequest, "unknown batch '%s'", id)
	}
	return b, nil
}

func (o *Orchestrator) status(b *batchData) *AggregateStatus {
	res := &AggregateStatus{ID: b.id, Total: len(b.members)}
	for _, j := range b.members {
		sn := j.Snapshot()
		ms := MemberState{JobID: sn.ID, VideoID: sn.Key.VideoID,
			Status: job.Name(sn.Status), Progress: sn.Progress, ErrCode: sn.ErrCode}
		res.Members = append(res.Members, ms)
		switch sn.Status {
		case job.Completed:
			res.Completed++
		case job.Failed:
			res.Failed++
		}
	}
	if res.Total > 0 {
		res.Percent = int(math.Round(100 * float64(res.Completed+res.Failed) / float64(res.Total)))
	}
	switch {
	case res.Completed+res.Failed < res.Total:
		res.Status = StatusRunning
	case res.Failed > 0:
		res.Status = StatusCompletedWithErrs
	default:
		res.Status = StatusCompleted
	}
	return res
}

// onEvent triggers archive assembly when the last member turns terminal
func (o *Orchestrator) onEvent(sn job.Snapshot) {
	if !job.Terminal(sn.Status) {
		return
	}
	o.lock.Lock()
	batches := o.jobBatches[sn.ID]
	o.lock.Unlock()
	for _, b := range batches {
		if o.status(b).Status != StatusRunning {
			o.assemble(b)
		}
	}
}

func (o *Orchestrator) assemble(b *batchData) {
	b.archiveOnce.Do(func() {
		b.archive, b.archiveErr = o.buildArchive(b)
		if b.archiveErr != nil {
			cmdapp.Log.Error(errors.Wrap(b.archiveErr, "Can't build archive for "+b.id))
		} else {
			cmdapp.Log.Infof("Assembled archive for batch %s", b.id)
		}
	})
}

func (o *Orchestrator) buildArchive(b *batchData) ([]byte, error) {
	entries := make(map[string]string)
	for i, j := range b.members {
		sn := j.Snapshot()
		if sn.Status != job.Completed {
			continue
		}
		entries[sn.ID] = fmt.Sprintf("%02d_%s", i+1, sn.Key.VideoID)
	}
	return buildZip(o.loader, entries)
}

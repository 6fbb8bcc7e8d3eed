package batch

import (
	"archive/zip"
	"bytes"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/grihenrik/videotranscribe/internal/pkg/cache"
	"github.com/grihenrik/videotranscribe/internal/pkg/errs"
	"github.com/grihenrik/videotranscribe/internal/pkg/hub"
	"github.com/grihenrik/videotranscribe/internal/pkg/job"
	"github.com/grihenrik/videotranscribe/internal/pkg/transcript"
)

type testEnqueuer struct {
	lock sync.Mutex
	jobs []*job.Job
}

func (e *testEnqueuer) Enqueue(j *job.Job) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.jobs = append(e.jobs, j)
}

func (e *testEnqueuer) count() int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return len(e.jobs)
}

type enqueueFunc func(*job.Job)

func (f enqueueFunc) Enqueue(j *job.Job) { f(j) }

type countingLoader struct{ calls int32 }

func (l *countingLoader) Load(id string, format transcript.Format) ([]byte, error) {
	atomic.AddInt32(&l.calls, 1)
	return []byte(id), nil
}

type testLoader struct{}

func (l testLoader) Load(id string, format transcript.Format) ([]byte, error) {
	return []byte(id + string(format)), nil
}

type testSetup struct {
	orch *Orchestrator
	enq  *testEnqueuer
	hub  *hub.Hub
}

func newTestSetup(t *testing.T) *testSetup {
	c, err := cache.NewJobCache(time.Hour)
	assert.Nil(t, err)
	enq := &testEnqueuer{}
	h := hub.NewHub()
	orch, err := NewOrchestrator(c, enq, testLoader{}, h)
	assert.Nil(t, err)
	return &testSetup{orch: orch, enq: enq, hub: h}
}

func complete(t *testing.T, j *job.Job, h *hub.Hub) {
	assert.Nil(t, j.MoveTo(job.Extracting))
	assert.Nil(t, j.MoveTo(job.Finalizing))
	res, err := transcript.New([]transcript.Segment{{End: time.Second, Text: "olia"}})
	assert.Nil(t, err)
	assert.Nil(t, j.Complete(res))
	h.Publish(j.Snapshot())
}

func fail(t *testing.T, j *job.Job, h *hub.Hub) {
	assert.Nil(t, j.Fail(errs.New(errs.KindAccessDenied, "blocked")))
	h.Publish(j.Snapshot())
}

var testURLs = []string{
	"https://youtu.be/aaaaaaaaaa1",
	"https://youtu.be/aaaaaaaaaa2",
	"https://youtu.be/aaaaaaaaaa3",
}

func TestSubmit(t *testing.T) {
	s := newTestSetup(t)
	st, err := s.orch.Submit(testURLs, "auto", "en")
	assert.Nil(t, err)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, StatusRunning, st.Status)
	assert.Equal(t, 0, st.Percent)
	assert.Equal(t, 3, s.enq.count())
	assert.Equal(t, 3, len(st.Members))
}

func TestSubmit_NoURLs(t *testing.T) {
	s := newTestSetup(t)
	_, err := s.orch.Submit(nil, "auto", "en")
	assert.NotNil(t, err)
}

func TestSubmit_WrongURL(t *testing.T) {
	s := newTestSetup(t)
	_, err := s.orch.Submit([]string{"https://youtu.be/aaaaaaaaaa1", "olia"}, "auto", "en")
	assert.NotNil(t, err)
	assert.True(t, errs.Is(err, errs.KindInvalidRequest))
}

func TestSubmit_DeduplicatesMembers(t *testing.T) {
	s := newTestSetup(t)
	st, err := s.orch.Submit([]string{
		"https://youtu.be/aaaaaaaaaa1",
		"https://www.youtube.com/watch?v=aaaaaaaaaa1"}, "auto", "en")
	assert.Nil(t, err)
	assert.Equal(t, 1, st.Total)
	assert.Equal(t, 1, s.enq.count())
}

func TestSubmit_ReusesCachedJobs(t *testing.T) {
	s := newTestSetup(t)
	st1, err := s.orch.Submit(testURLs[:1], "auto", "en")
	assert.Nil(t, err)
	st2, err := s.orch.Submit(testURLs[:1], "auto", "en")
	assert.Nil(t, err)
	assert.Equal(t, st1.Members[0].JobID, st2.Members[0].JobID)
	assert.Equal(t, 1, s.enq.count())
}

func TestStatus_Unknown(t *testing.T) {
	s := newTestSetup(t)
	_, err := s.orch.Status("olia")
	assert.NotNil(t, err)
}

func TestStatus_Aggregates(t *testing.T) {
	s := newTestSetup(t)
	st, err := s.orch.Submit(testURLs, "auto", "en")
	assert.Nil(t, err)
	complete(t, s.enq.jobs[0], s.hub)
	fail(t, s.enq.jobs[1], s.hub)

	st, err = s.orch.Status(st.ID)
	assert.Nil(t, err)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 1, st.Completed)
	assert.Equal(t, 1, st.Failed)
	assert.Equal(t, 67, st.Percent)
	assert.Equal(t, StatusRunning, st.Status)
	assert.True(t, st.Completed+st.Failed <= st.Total)
}

func TestStatus_CompleteWithErrors(t *testing.T) {
	s := newTestSetup(t)
	st, err := s.orch.Submit(testURLs, "auto", "en")
	assert.Nil(t, err)
	complete(t, s.enq.jobs[0], s.hub)
	complete(t, s.enq.jobs[1], s.hub)
	fail(t, s.enq.jobs[2], s.hub)

	st, err = s.orch.Status(st.ID)
	assert.Nil(t, err)
	assert.Equal(t, 2, st.Completed)
	assert.Equal(t, 1, st.Failed)
	assert.Equal(t, 100, st.Percent)
	assert.Equal(t, StatusCompletedWithErrs, st.Status)
}

func TestStatus_CleanComplete(t *testing.T) {
	s := newTestSetup(t)
	st, err := s.orch.Submit(testURLs[:2], "auto", "en")
	assert.Nil(t, err)
	complete(t, s.enq.jobs[0], s.hub)
	complete(t, s.enq.jobs[1], s.hub)
	st, err = s.orch.Status(st.ID)
	assert.Nil(t, err)
	assert.Equal(t, StatusCompleted, st.Status)
}

func TestArchive_NotComplete(t *testing.T) {
	s := newTestSetup(t)
	st, err := s.orch.Submit(testURLs, "auto", "en")
	assert.Nil(t, err)
	_, err = s.orch.Archive(st.ID)
	assert.NotNil(t, err)
}

func TestArchive_SkipsFailedMembers(t *testing.T) {
	s := newTestSetup(t)
	st, err := s.orch.Submit(testURLs, "auto", "en")
	assert.Nil(t, err)
	complete(t, s.enq.jobs[0], s.hub)
	complete(t, s.enq.jobs[1], s.hub)
	fail(t, s.enq.jobs[2], s.hub)

	data, err := s.orch.Archive(st.ID)
	assert.Nil(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	assert.Nil(t, err)
	// 2 successful members x 3 formats
	assert.Equal(t, 6, len(zr.File))
	for _, f := range zr.File {
		assert.NotContains(t, f.Name, s.enq.jobs[2].Key().VideoID)
	}
}

func TestSubmit_AssemblesOnImmediateCompletion(t *testing.T) {
	c, err := cache.NewJobCache(time.Hour)
	assert.Nil(t, err)
	h := hub.NewHub()
	loader := &countingLoader{}
	enq := enqueueFunc(func(j *job.Job) { complete(t, j, h) })
	orch, err := NewOrchestrator(c, enq, loader, h)
	assert.Nil(t, err)

	st, err := orch.Submit(testURLs[:1], "auto", "en")

	assert.Nil(t, err)
	assert.Equal(t, StatusCompleted, st.Status)
	for i := 0; i < 100; i++ {
		if atomic.LoadInt32(&loader.calls) > 0 {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	assert.Fail(t, "archive not assembled")
}

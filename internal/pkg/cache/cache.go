package cache

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/grihenrik/videotranscribe/internal/pkg/fingerprint"
	"github.com/grihenrik/videotranscribe/internal/pkg/job"
)

// Factory creates a job for a missing cache entry
type Factory func() *job.Job

// JobCache maps request fingerprints to jobs.
// It owns the only job table in the process and guarantees at most one
// live computation per fingerprint.
type JobCache struct {
	ttl time.Duration

	lock sync.Mutex
	jobs map[fingerprint.Key]*job.Job
	byID map[string]*job.Job
}

// NewJobCache creates the cache with a terminal entry time to live
func NewJobCache(ttl time.Duration) (*JobCache, error) {
	if ttl <= 0 {
		return nil, errors.New("No positive cache TTL provided")
	}
	return &JobCache{ttl: ttl, jobs: make(map[fingerprint.Key]*job.Job),
		byID: make(map[string]*job.Job)}, nil
}

// GetOrCreate returns the job for a fingerprint, creating one atomically when
// absent. An expired or failed terminal entry is replaced by a fresh job.
func (c *JobCache) GetOrCreate(key fingerprint.Key, factory Factory) (*job.Job, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	j, found := c.jobs[key]
	if found && !c.replaceableNoSync(j) {
		return j, false
	}
	if found {
		delete(c.byID, j.ID())
	}
	j = factory()
	c.jobs[key] = j
	c.byID[j.ID()] = j
	return j, true
}

// Lookup returns a live entry by fingerprint
func (c *JobCache) Lookup(key fingerprint.Key) (*job.Job, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	j, found := c.jobs[key]
	if !found || c.expiredNoSync(j) {
		return nil, false
	}
	return j, true
}

// Get returns a live entry by job id
func (c *JobCache) Get(id string) (*job.Job, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	j, found := c.byID[id]
	if !found || c.expiredNoSync(j) {
		return nil, false
	}
	return j, true
}

// Invalidate drops a terminal entry. Removing a running job is forbidden.
func (c *JobCache) Invalidate(key fingerprint.Key) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	j, found := c.jobs[key]
	if !found {
		return nil
	}
	if !j.Terminal() {
		return errors.Errorf("can't invalidate running job %s", j.ID())
	}
	c.removeNoSync(key, j)
	return nil
}

// SweepExpired drops terminal entries past their TTL, returns removed count
func (c *JobCache) SweepExpired() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	res := 0
	for key, j := range c.jobs {
		if c.expiredNoSync(j) {
			c.removeNoSync(key, j)
			res++
		}
	}
	return res
}

// Len returns the live entry count
func (c *JobCache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.jobs)
}

func (c *JobCache) removeNoSync(key fingerprint.Key, j *job.Job) {
	delete(c.jobs, key)
	delete(c.byID, j.ID())
}

// expiredNoSync: TTL counts from the terminal UpdatedAt only,
// a running job never expires
func (c *JobCache) expiredNoSync(j *job.Job) bool {
	sn := j.Snapshot()
	return job.Terminal(sn.Status) && time.Since(sn.UpdatedAt) > c.ttl
}

// failed terminal entries are replaceable at once - retry is a resubmission
func (c *JobCache) replaceableNoSync(j *job.Job) bool {
	sn := j.Snapshot()
	if sn.Status == job.Failed {
		return true
	}
	return job.Terminal(sn.Status) && time.Since(sn.UpdatedAt) > c.ttl
}

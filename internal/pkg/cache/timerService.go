package cache

import (
	"sync"
	"time"

	"github.com/grihenrik/videotranscribe/internal/pkg/cmdapp"
)

type timerServiceData struct {
	runEvery     time.Duration
	cache        *JobCache
	qChan        chan struct{}
	workWaitChan chan struct{}
}

// StartSweepTimer runs SweepExpired periodically until Stop is called
func StartSweepTimer(c *JobCache, runEvery time.Duration) *SweepTimer {
	data := &timerServiceData{runEvery: runEvery, cache: c,
		qChan: make(chan struct{}), workWaitChan: make(chan struct{})}
	cmdapp.Log.Infof("Starting cache sweep every %v", data.runEvery)
	go serviceLoop(data)
	return &SweepTimer{data: data}
}

// SweepTimer controls the running sweep loop
type SweepTimer struct {
	data *timerServiceData
	once sync.Once
}

// Stop ends the loop and waits for it to exit. Safe to call several times.
func (t *SweepTimer) Stop() {
	t.once.Do(func() { close(t.data.qChan) })
	<-t.data.workWaitChan
}

func serviceLoop(data *timerServiceData) {
	ticker := time.NewTicker(data.runEvery)
mainloop:
	for {
		select {
		case <-ticker.C:
			doSweep(data)
		case <-data.qChan:
			ticker.Stop()
			break mainloop
		}
	}
	cmdapp.Log.Infof("Stopped cache sweep service")
	close(data.workWaitChan)
}

func doSweep(data *timerServiceData) {
	removed := data.cache.SweepExpired()
	if removed > 0 {
		cmdapp.Log.Infof("Swept %d expired cache entries", removed)
	}
}

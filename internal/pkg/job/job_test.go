package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/grihenrik/videotranscribe/internal/pkg/errs"
	"github.com/grihenrik/videotranscribe/internal/pkg/fingerprint"
	"github.com/grihenrik/videotranscribe/internal/pkg/transcript"
)

func newTestJob() *Job {
	return New(fingerprint.Key{VideoID: "dQw4w9WgXcQ", Mode: fingerprint.ModeAuto, Lang: "en"}, "")
}

func testResult(t *testing.T) *transcript.Transcript {
	res, err := transcript.New([]transcript.Segment{{Start: 0, End: time.Second, Text: "olia"}})
	assert.Nil(t, err)
	return res
}

func TestNew(t *testing.T) {
	j := newTestJob()
	assert.NotEmpty(t, j.ID())
	sn := j.Snapshot()
	assert.Equal(t, Queued, sn.Status)
	assert.Equal(t, int32(0), sn.Progress)
	assert.False(t, j.Terminal())
}

func TestNew_UniqueIDs(t *testing.T) {
	assert.NotEqual(t, newTestJob().ID(), newTestJob().ID())
}

func TestMoveTo_CaptionsPath(t *testing.T) {
	j := newTestJob()
	assert.Nil(t, j.MoveTo(Extracting))
	assert.Equal(t, int32(30), j.Snapshot().Progress)
	assert.Nil(t, j.MoveTo(Finalizing))
	assert.Equal(t, int32(95), j.Snapshot().Progress)
	assert.Nil(t, j.Complete(testResult(t)))
	sn := j.Snapshot()
	assert.Equal(t, Completed, sn.Status)
	assert.Equal(t, int32(100), sn.Progress)
	assert.NotNil(t, sn.Result)
	assert.True(t, j.Terminal())
}

func TestMoveTo_SpeechPath(t *testing.T) {
	j := newTestJob()
	assert.Nil(t, j.MoveTo(Extracting))
	assert.Nil(t, j.MoveTo(Transcribing))
	assert.Nil(t, j.MoveTo(Finalizing))
	assert.Nil(t, j.Complete(testResult(t)))
	assert.Equal(t, Completed, j.Snapshot().Status)
}

func TestMoveTo_IllegalEdges(t *testing.T) {
	j := newTestJob()
	assert.NotNil(t, j.MoveTo(Finalizing))
	assert.NotNil(t, j.MoveTo(Queued))
	assert.Nil(t, j.MoveTo(Extracting))
	assert.NotNil(t, j.MoveTo(Extracting))
	assert.NotNil(t, j.Complete(testResult(t)))
}

func TestMoveTo_NoTerminal(t *testing.T) {
	j := newTestJob()
	assert.NotNil(t, j.MoveTo(Completed))
	assert.NotNil(t, j.MoveTo(Failed))
}

func TestFail(t *testing.T) {
	j := newTestJob()
	assert.Nil(t, j.MoveTo(Extracting))
	assert.Nil(t, j.Fail(errs.New(errs.KindAccessDenied, "blocked")))
	sn := j.Snapshot()
	assert.Equal(t, Failed, sn.Status)
	assert.Equal(t, "ACCESS_DENIED", sn.ErrCode)
	assert.Equal(t, "blocked", sn.Error)
	assert.True(t, j.Terminal())
}

func TestFail_KeepsProgress(t *testing.T) {
	j := newTestJob()
	assert.Nil(t, j.MoveTo(Extracting))
	assert.Nil(t, j.MoveTo(Transcribing))
	assert.Nil(t, j.Fail(errs.New(errs.KindTimeout, "timeout")))
	assert.Equal(t, int32(80), j.Snapshot().Progress)
}

func TestFail_AfterTerminal(t *testing.T) {
	j := newTestJob()
	assert.Nil(t, j.Fail(errs.New(errs.KindInternal, "olia")))
	assert.NotNil(t, j.Fail(errs.New(errs.KindInternal, "again")))
	assert.NotNil(t, j.MoveTo(Extracting))
}

func TestSnapshot_NoResultBeforeComplete(t *testing.T) {
	j := newTestJob()
	assert.Nil(t, j.MoveTo(Extracting))
	assert.Nil(t, j.Snapshot().Result)
	assert.Empty(t, j.Snapshot().Error)
}

func TestStatusNames(t *testing.T) {
	for _, st := range []Status{Queued, Extracting, Transcribing, Finalizing, Completed, Failed} {
		assert.Equal(t, st, From(Name(st)))
	}
}

func TestProgress_Monotonic(t *testing.T) {
	prev := int32(-1)
	for _, st := range []Status{Queued, Extracting, Transcribing, Finalizing, Completed} {
		pr := Progress(st)
		assert.True(t, pr > prev, Name(st))
		prev = pr
	}
}

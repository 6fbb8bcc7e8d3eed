package inform

import (
	"testing"
	"time"

	"github.com/jordan-wright/email"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/grihenrik/videotranscribe/internal/pkg/cmdapp"
	"github.com/grihenrik/videotranscribe/internal/pkg/job"
)

func testConfig() *viper.Viper {
	c := viper.New()
	c.Set("mail.url", "http://results.olia.lt/{{ID}}")
	c.Set("mail.success.subject", "Transcription finished")
	c.Set("mail.success.text", "Done {{ID}} at {{DATE}}. See {{URL}}")
	c.Set("mail.failure.subject", "Transcription failed")
	c.Set("mail.failure.text", "Failed {{ID}}")
	c.Set("smtp.username", "no-reply@olia.lt")
	return c
}

func TestMake(t *testing.T) {
	maker, err := NewSimpleEmailMaker(testConfig())
	assert.Nil(t, err)

	tm := time.Date(2024, 2, 1, 10, 30, 0, 0, time.UTC)
	e, err := maker.Make(&Data{ID: "id1", Email: "olia@olia.lt", MsgType: MsgTypeSuccess, MsgTime: tm})

	assert.Nil(t, err)
	assert.Equal(t, "Transcription finished", e.Subject)
	assert.Equal(t, "Done id1 at 2024-02-01 10:30:00. See http://results.olia.lt/id1", string(e.Text))
	assert.Equal(t, []string{"olia@olia.lt"}, e.To)
	assert.Equal(t, "no-reply@olia.lt", e.From)
}

func TestMake_NoTemplate(t *testing.T) {
	maker, _ := NewSimpleEmailMaker(testConfig())
	_, err := maker.Make(&Data{ID: "id1", MsgType: "olia"})
	assert.NotNil(t, err)
}

func TestNewSimpleEmailMaker_NoURL(t *testing.T) {
	_, err := NewSimpleEmailMaker(viper.New())
	assert.NotNil(t, err)
}

type testSender struct {
	sent []*email.Email
}

func (s *testSender) Send(e *email.Email) error {
	s.sent = append(s.sent, e)
	return nil
}

func newTestNotifier(t *testing.T) (*Notifier, *testSender) {
	cmdapp.Config = viper.New()
	maker, err := NewSimpleEmailMaker(testConfig())
	assert.Nil(t, err)
	snd := &testSender{}
	res, err := NewNotifier(maker, snd)
	assert.Nil(t, err)
	return res, snd
}

func TestListener_Completed(t *testing.T) {
	n, snd := newTestNotifier(t)

	n.Listener()(job.Snapshot{ID: "id1", Email: "olia@olia.lt", Status: job.Completed})

	assert.Equal(t, 1, len(snd.sent))
	assert.Equal(t, "Transcription finished", snd.sent[0].Subject)
}

func TestListener_Failed(t *testing.T) {
	n, snd := newTestNotifier(t)

	n.Listener()(job.Snapshot{ID: "id1", Email: "olia@olia.lt", Status: job.Failed})

	assert.Equal(t, 1, len(snd.sent))
	assert.Equal(t, "Transcription failed", snd.sent[0].Subject)
}

func TestListener_SkipsNonTerminal(t *testing.T) {
	n, snd := newTestNotifier(t)

	n.Listener()(job.Snapshot{ID: "id1", Email: "olia@olia.lt", Status: job.Transcribing})

	assert.Equal(t, 0, len(snd.sent))
}

func TestListener_SkipsNoEmail(t *testing.T) {
	n, snd := newTestNotifier(t)

	n.Listener()(job.Snapshot{ID: "id1", Status: job.Completed})

	assert.Equal(t, 0, len(snd.sent))
}

func TestNewNotifier_Fails(t *testing.T) {
	cmdapp.Config = viper.New()
	maker, _ := NewSimpleEmailMaker(testConfig())
	_, err := NewNotifier(nil, &testSender{})
	assert.NotNil(t, err)
	_, err = NewNotifier(maker, nil)
	assert.NotNil(t, err)
}

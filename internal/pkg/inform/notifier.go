package inform

import (
	"time"

	"github.com/jordan-wright/email"
	"github.com/pkg/errors"

	"github.com/grihenrik/videotranscribe/internal/pkg/cmdapp"
	"github.com/grihenrik/videotranscribe/internal/pkg/job"
)

const (
	// MsgTypeSuccess is the template key for finished jobs
	MsgTypeSuccess = "success"
	// MsgTypeFailure is the template key for failed jobs
	MsgTypeFailure = "failure"
)

// Sender sends emails
type Sender interface {
	Send(email *email.Email) error
}

// EmailMaker prepares the email
type EmailMaker interface {
	Make(data *Data) (*email.Email, error)
}

// Notifier mails the requester when a job reaches a terminal state
type Notifier struct {
	emailSender Sender
	emailMaker  EmailMaker
	location    *time.Location
}

// NewNotifier creates the terminal state email notifier
func NewNotifier(maker EmailMaker, sender Sender) (*Notifier, error) {
	if maker == nil {
		return nil, errors.New("No email maker")
	}
	if sender == nil {
		return nil, errors.New("No sender")
	}
	res := &Notifier{emailMaker: maker, emailSender: sender}
	tz := cmdapp.Config.GetString("mail.timezone")
	if tz != "" {
		var err error
		res.location, err = time.LoadLocation(tz)
		if err != nil {
			return nil, errors.Wrap(err, "Can't load location "+tz)
		}
	}
	return res, nil
}

// Notify sends one email for the snapshot
func (n *Notifier) Notify(sn job.Snapshot) error {
	msgType := MsgTypeSuccess
	if sn.Status == job.Failed {
		msgType = MsgTypeFailure
	}
	cmdapp.Log.Infof("Sending %s email for %s", msgType, sn.ID)

	data := Data{ID: sn.ID, Email: sn.Email, MsgType: msgType, MsgTime: n.localTime(sn.UpdatedAt)}
	mail, err := n.emailMaker.Make(&data)
	if err != nil {
		return errors.Wrap(err, "Can't prepare email")
	}
	if err := n.emailSender.Send(mail); err != nil {
		return errors.Wrap(err, "Can't send email")
	}
	return nil
}

// Listener returns a progress hub listener mailing on terminal states
func (n *Notifier) Listener() func(job.Snapshot) {
	return func(sn job.Snapshot) {
		if !job.Terminal(sn.Status) || sn.Email == "" {
			return
		}
		if err := n.Notify(sn); err != nil {
			cmdapp.Log.Error(err)
		}
	}
}

func (n *Notifier) localTime(t time.Time) time.Time {
	if n.location != nil {
		return t.In(n.location)
	}
	return t
}

package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/grihenrik/videotranscribe/internal/pkg/cmdapp"
	"github.com/grihenrik/videotranscribe/internal/pkg/job"
)

// StatusSaver saves terminal job states to mongo db
type StatusSaver struct {
	SessionProvider *SessionProvider
}

// NewStatusSaver creates StatusSaver instance
func NewStatusSaver(sessionProvider *SessionProvider) (*StatusSaver, error) {
	f := StatusSaver{SessionProvider: sessionProvider}
	return &f, nil
}

// Save saves status record to DB
func (ss *StatusSaver) Save(sn job.Snapshot) error {
	cmdapp.Log.Infof("Saving status %s: %s", sn.ID, job.Name(sn.Status))

	ctx, cancel := mongoContext()
	defer cancel()

	session, err := ss.SessionProvider.NewSession()
	if err != nil {
		return err
	}
	defer session.EndSession(context.Background())

	c := session.Client().Database(store).Collection(statusTable)

	err = c.FindOneAndUpdate(ctx, bson.M{"ID": sanitize(sn.ID)},
		bson.M{"$set": bson.M{"status": job.Name(sn.Status), "errorCode": sn.ErrCode,
			"error": sn.Error, "updated": time.Now()}},
		options.FindOneAndUpdate().SetUpsert(true)).Err()
	if err == mongo.ErrNoDocuments {
		return nil
	}
	return err
}

// Listener returns a progress hub listener persisting terminal states
func (ss *StatusSaver) Listener() func(job.Snapshot) {
	return func(sn job.Snapshot) {
		if !job.Terminal(sn.Status) {
			return
		}
		if err := ss.Save(sn); err != nil {
			cmdapp.Log.Error(err)
		}
	}
}

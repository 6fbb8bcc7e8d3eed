package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/grihenrik/videotranscribe/internal/app/transcription/api"
	"github.com/grihenrik/videotranscribe/internal/pkg/cmdapp"
)

// RequestSaver saves transcription requests to mongo db
type RequestSaver struct {
	SessionProvider *SessionProvider
}

// NewRequestSaver creates RequestSaver instance
func NewRequestSaver(sessionProvider *SessionProvider) (*RequestSaver, error) {
	f := RequestSaver{SessionProvider: sessionProvider}
	return &f, nil
}

// Save saves request to DB
func (ss *RequestSaver) Save(data *api.RequestData) error {
	cmdapp.Log.Infof("Saving request %s: %s", data.ID, data.VideoID)

	ctx, cancel := mongoContext()
	defer cancel()

	session, err := ss.SessionProvider.NewSession()
	if err != nil {
		return err
	}
	defer session.EndSession(context.Background())

	c := session.Client().Database(store).Collection(requestTable)

	err = c.FindOneAndUpdate(ctx, bson.M{"ID": sanitize(data.ID)},
		bson.M{"$set": bson.M{"url": data.URL, "videoID": data.VideoID,
			"mode": data.Mode, "lang": data.Lang, "email": data.Email}},
		options.FindOneAndUpdate().SetUpsert(true)).Err()
	if err == mongo.ErrNoDocuments { // upserted a new record
		return nil
	}
	return err
}

package media

import (
	"context"
	"os"
	"path/filepath"

	"github.com/lrstanley/go-ytdlp"
	"github.com/pkg/errors"

	"github.com/grihenrik/videotranscribe/internal/pkg/cmdapp"
	"github.com/grihenrik/videotranscribe/internal/pkg/errs"
)

type runFunc func(ctx context.Context, sourceID string) (string, error)

// Downloader fetches the audio track of a video with yt-dlp
type Downloader struct {
	workingDir string
	run        runFunc
}

// NewDownloader creates the yt-dlp based audio downloader
func NewDownloader(workingDir string) (*Downloader, error) {
	if workingDir == "" {
		return nil, errors.New("No working dir provided")
	}
	if err := os.MkdirAll(workingDir, 0755); err != nil {
		return nil, errors.Wrap(err, "Can't init working dir "+workingDir)
	}
	res := &Downloader{workingDir: workingDir}
	res.run = res.runYtdlp
	return res, nil
}

// Download fetches audio for a video, returns local file path
func (d *Downloader) Download(ctx context.Context, sourceID string) (string, error) {
	cmdapp.Log.Infof("Downloading audio for %s", sourceID)
	path, err := d.run(ctx, sourceID)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", errs.Wrap(err, errs.KindInternal, "can't download audio for '"+sourceID+"'")
	}
	if _, serr := os.Stat(path); serr != nil {
		return "", errs.Errorf(errs.KindInternal, "no audio file after download for '%s'", sourceID)
	}
	cmdapp.Log.Infof("Downloaded %s", path)
	return path, nil
}

func (d *Downloader) runYtdlp(ctx context.Context, sourceID string) (string, error) {
	dl := ytdlp.New().
		ExtractAudio().
		AudioFormat("mp3").
		Format("bestaudio/best").
		ForceOverwrites().
		RestrictFilenames().
		Output(filepath.Join(d.workingDir, "%(id)s.%(ext)s"))

	if _, err := dl.Run(ctx, "https://www.youtube.com/watch?v="+sourceID); err != nil {
		return "", err
	}
	return filepath.Join(d.workingDir, sourceID+".mp3"), nil
}

package saver

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/grihenrik/videotranscribe/internal/pkg/cmdapp"
	"github.com/grihenrik/videotranscribe/internal/pkg/transcript"
)

// LocalArtifactStore keeps rendered transcripts on local disk,
// one file per (job id, format)
type LocalArtifactStore struct {
	// StoragePath is the main folder to save into
	StoragePath string
	WriteFunc   func(fileName string, data []byte) error
	ReadFunc    func(fileName string) ([]byte, error)
}

// NewLocalArtifactStore creates LocalArtifactStore instance
func NewLocalArtifactStore(storagePath string) (*LocalArtifactStore, error) {
	if storagePath == "" {
		return nil, errors.New("No storage path provided")
	}
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return nil, errors.Wrap(err, "Can't init storage path "+storagePath)
	}
	return &LocalArtifactStore{StoragePath: storagePath,
		WriteFunc: writeFile, ReadFunc: ioutil.ReadFile}, nil
}

// Save persists one rendered artifact
func (fs *LocalArtifactStore) Save(id string, format transcript.Format, data []byte) error {
	fileName := fs.fileName(id, format)
	if err := fs.WriteFunc(fileName, data); err != nil {
		return errors.Wrap(err, "Can not save file "+fileName)
	}
	cmdapp.Log.Infof("Saved file %s. Size = %d", fileName, len(data))
	return nil
}

// Load reads one artifact back
func (fs *LocalArtifactStore) Load(id string, format transcript.Format) ([]byte, error) {
	fileName := fs.fileName(id, format)
	data, err := fs.ReadFunc(fileName)
	if err != nil {
		return nil, errors.Wrap(err, "Can not read file "+fileName)
	}
	return data, nil
}

// HealthyFunc returns liveness check function for the storage dir
func (fs *LocalArtifactStore) HealthyFunc() func() error {
	return func() error {
		info, err := os.Stat(fs.StoragePath)
		if err != nil {
			return errors.Wrap(err, "Can't stat storage path")
		}
		if !info.IsDir() {
			return errors.New(fs.StoragePath + " is not a directory")
		}
		return nil
	}
}

func (fs *LocalArtifactStore) fileName(id string, format transcript.Format) string {
	return filepath.Join(fs.StoragePath, id+format.Ext())
}

func writeFile(fileName string, data []byte) error {
	return ioutil.WriteFile(fileName, data, 0644)
}

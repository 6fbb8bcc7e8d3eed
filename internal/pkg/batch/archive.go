package batch

import (
	"archive/zip"
	"bytes"
	"sort"

	"github.com/pkg/errors"

	"github.com/grihenrik/videotranscribe/internal/pkg/transcript"
)

// buildZip packs all formats of the given jobs into one archive.
// entries maps job id to the base file name inside the zip.
func buildZip(loader ArtifactLoader, entries map[string]string) ([]byte, error) {
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return entries[ids[i]] < entries[ids[j]] })

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, id := range ids {
		for _, f := range transcript.Formats() {
			data, err := loader.Load(id, f)
			if err != nil {
				return nil, errors.Wrapf(err, "can't load %s artifact for %s", f, id)
			}
			w, err := zw.Create(entries[id] + f.Ext())
			if err != nil {
				return nil, errors.Wrap(err, "can't create zip entry")
			}
			if _, err := w.Write(data); err != nil {
				return nil, errors.Wrap(err, "can't write zip entry")
			}
		}
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "can't finish zip")
	}
	return buf.Bytes(), nil
}

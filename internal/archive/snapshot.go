package archive

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/odfnote/core/errors"
	"github.com/FocuswithJustin/odfnote/core/fingerprint"
)

// SnapshotManifest describes the document a snapshot was taken from.
type SnapshotManifest struct {
	Source    string    `json:"source"`
	Container Container `json:"container"`
	SHA256    string    `json:"sha256"`
	BLAKE3    string    `json:"blake3"`
	TakenAt   time.Time `json:"taken_at"`
}

const manifestEntry = "manifest.json"

// WriteSnapshot stores the current content of s, with a manifest, in a
// tar.xz archive at path.
func (s *Source) WriteSnapshot(path string) (*SnapshotManifest, error) {
	sums := fingerprint.Sum(s.Content)
	manifest := &SnapshotManifest{
		Source:    s.Path,
		Container: s.Container,
		SHA256:    sums.SHA256,
		BLAKE3:    sums.BLAKE3,
		TakenAt:   time.Now().UTC().Truncate(time.Second),
	}
	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encoding snapshot manifest")
	}

	var buf bytes.Buffer
	xzw, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, errors.NewIO("create xz writer", path, err)
	}
	tw := tar.NewWriter(xzw)
	for _, entry := range []struct {
		name string
		data []byte
	}{
		{manifestEntry, manifestData},
		{ContentEntry, s.Content},
	} {
		header := &tar.Header{
			Name:    entry.name,
			Mode:    0o644,
			Size:    int64(len(entry.data)),
			ModTime: manifest.TakenAt,
		}
		if err := tw.WriteHeader(header); err != nil {
			return nil, errors.NewIO("write tar header", entry.name, err)
		}
		if _, err := tw.Write(entry.data); err != nil {
			return nil, errors.NewIO("write tar entry", entry.name, err)
		}
	}
	if err := tw.Close(); err != nil {
		return nil, errors.NewIO("close tar writer", path, err)
	}
	if err := xzw.Close(); err != nil {
		return nil, errors.NewIO("close xz writer", path, err)
	}
	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return nil, err
	}
	return manifest, nil
}

// ReadSnapshot reads a snapshot written by WriteSnapshot and checks the
// stored content against the manifest digests.
func ReadSnapshot(path string) (*SnapshotManifest, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.NewIO("open", path, err)
	}
	defer f.Close()

	xzr, err := xz.NewReader(f)
	if err != nil {
		return nil, nil, errors.NewParse("xz", path, err.Error())
	}
	tr := tar.NewReader(xzr)

	var manifest *SnapshotManifest
	var content []byte
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.NewParse("tar", path, err.Error())
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, nil, errors.NewIO("read tar entry", header.Name, err)
		}
		switch header.Name {
		case manifestEntry:
			manifest = &SnapshotManifest{}
			if err := json.Unmarshal(data, manifest); err != nil {
				return nil, nil, errors.NewParse("JSON", path+"#"+manifestEntry, err.Error())
			}
		case ContentEntry:
			content = data
		}
	}
	if manifest == nil {
		return nil, nil, errors.NewNotFound("snapshot member", manifestEntry)
	}
	if content == nil {
		return nil, nil, errors.NewNotFound("snapshot member", ContentEntry)
	}
	if sums := fingerprint.Sum(content); sums.SHA256 != manifest.SHA256 || sums.BLAKE3 != manifest.BLAKE3 {
		return nil, nil, errors.NewValidation("snapshot", "content", "digest mismatch")
	}
	return manifest, content, nil
}

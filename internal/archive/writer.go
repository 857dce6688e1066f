package archive

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/odfnote/core/errors"
	"github.com/FocuswithJustin/odfnote/internal/logging"
)

// mimetypeODT is the mimetype member of a text package.
const mimetypeODT = "application/vnd.oasis.opendocument.text"

// Save writes content back in the container of s. An empty outPath
// overwrites s.Path; otherwise the container is taken from outPath's
// extension. The file is written to a temporary name and renamed into
// place.
func (s *Source) Save(content []byte, outPath string) error {
	start := time.Now()
	if outPath == "" {
		outPath = s.Path
	}
	container, err := Detect(outPath)
	if err != nil {
		return err
	}

	var data []byte
	switch container {
	case ContainerODT:
		data, err = s.writePackage(content)
	case ContainerFlatXZ:
		data, err = compress(content)
	default:
		data = content
	}
	if err != nil {
		return err
	}
	if err := writeAtomic(outPath, data); err != nil {
		return err
	}
	s.Content = content
	logging.DocumentSaved(outPath, string(container), time.Since(start))
	return nil
}

// writePackage rebuilds the zip package with new content. The mimetype
// member goes first and uncompressed; other members keep their order.
func (s *Source) writePackage(content []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	mimetype := []byte(mimetypeODT)
	for _, m := range s.members {
		if m.header.Name == "mimetype" {
			mimetype = m.data
		}
	}
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return nil, errors.NewIO("write member", "mimetype", err)
	}
	if _, err := w.Write(mimetype); err != nil {
		return nil, errors.NewIO("write member", "mimetype", err)
	}

	w, err = zw.CreateHeader(&zip.FileHeader{Name: ContentEntry, Method: zip.Deflate})
	if err != nil {
		return nil, errors.NewIO("write member", ContentEntry, err)
	}
	if _, err := w.Write(content); err != nil {
		return nil, errors.NewIO("write member", ContentEntry, err)
	}

	for _, m := range s.members {
		if m.header.Name == "mimetype" {
			continue
		}
		header := m.header
		w, err := zw.CreateHeader(&header)
		if err != nil {
			return nil, errors.NewIO("write member", header.Name, err)
		}
		if _, err := w.Write(m.data); err != nil {
			return nil, errors.NewIO("write member", header.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, errors.NewIO("finish package", "", err)
	}
	return buf.Bytes(), nil
}

func compress(content []byte) ([]byte, error) {
	var buf bytes.Buffer
	xzw, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, errors.NewIO("create xz writer", "", err)
	}
	if _, err := xzw.Write(content); err != nil {
		return nil, errors.NewIO("compress", "", err)
	}
	if err := xzw.Close(); err != nil {
		return nil, errors.NewIO("compress", "", err)
	}
	return buf.Bytes(), nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewIO("create directory for", path, err)
	}
	tmp, err := os.CreateTemp(dir, ".odfnote-*")
	if err != nil {
		return errors.NewIO("create temporary file for", path, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.NewIO("write", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.NewIO("close", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.NewIO("rename", path, err)
	}
	return nil
}

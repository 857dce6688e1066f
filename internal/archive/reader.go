// Package archive loads and saves the containers ODF text documents come
// in: zipped packages (.odt), flat XML (.fodt, .xml) and xz-compressed flat
// XML (.xz). It also writes tar.xz snapshots of a document's content before
// it is overwritten.
package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/odfnote/core/errors"
	"github.com/FocuswithJustin/odfnote/internal/logging"
)

// Container identifies how a document is stored on disk.
type Container string

const (
	// ContainerODT is a zip package holding content.xml.
	ContainerODT Container = "odt"
	// ContainerFlat is a single XML file.
	ContainerFlat Container = "flat"
	// ContainerFlatXZ is a single XML file compressed with xz.
	ContainerFlatXZ Container = "xz"
)

// ContentEntry is the package member holding the document body.
const ContentEntry = "content.xml"

// Detect returns the container for path based on its extension.
func Detect(path string) (Container, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".odt", ".ott":
		return ContainerODT, nil
	case ".fodt", ".xml":
		return ContainerFlat, nil
	case ".xz":
		return ContainerFlatXZ, nil
	}
	return "", errors.NewUnsupported("document container", "extension "+ext)
}

// Source is a loaded document: its content XML and, for packages, the
// other members needed to write it back.
type Source struct {
	Path      string
	Container Container
	Content   []byte

	// members holds the raw package entries other than content.xml, in
	// their original order.
	members []member
}

type member struct {
	header zip.FileHeader
	data   []byte
}

// Load reads the document at path.
func Load(path string) (*Source, error) {
	container, err := Detect(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}

	src := &Source{Path: path, Container: container}
	switch container {
	case ContainerODT:
		err = src.readPackage(data)
	case ContainerFlatXZ:
		src.Content, err = decompress(data)
	default:
		src.Content = data
	}
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	logging.DocumentLoaded(path, string(container), len(src.Content))
	return src, nil
}

func (s *Source) readPackage(data []byte) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return errors.NewParse("ODF package", s.Path, err.Error())
	}
	for _, f := range zr.File {
		body, err := readMember(f)
		if err != nil {
			return err
		}
		if f.Name == ContentEntry {
			s.Content = body
			continue
		}
		s.members = append(s.members, member{header: f.FileHeader, data: body})
	}
	if s.Content == nil {
		return errors.NewNotFound("package member", ContentEntry)
	}
	return nil
}

func readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, errors.NewIO("open member", f.Name, err)
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.NewIO("read member", f.Name, err)
	}
	return body, nil
}

func decompress(data []byte) ([]byte, error) {
	xzr, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.NewParse("xz", "", err.Error())
	}
	out, err := io.ReadAll(xzr)
	if err != nil {
		return nil, errors.NewIO("decompress", "", err)
	}
	return out, nil
}

// Members returns the names of the package members other than
// content.xml.
func (s *Source) Members() []string {
	names := make([]string, len(s.members))
	for i, m := range s.members {
		names[i] = m.header.Name
	}
	return names
}

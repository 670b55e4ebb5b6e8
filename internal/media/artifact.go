package media

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Artifact is an encoded file living in a temporary directory.
//
// The file must outlive the call that produced it while a response writer
// reads it, so cleanup is explicit: call Cleanup once the file has been
// consumed or abandoned.
type Artifact struct {
	Path        string
	ContentType string

	dir  string
	once sync.Once
}

func newArtifact(dir, path, contentType string) *Artifact {
	return &Artifact{Path: path, ContentType: contentType, dir: dir}
}

// Dir returns the temporary directory owned by the artifact.
func (a *Artifact) Dir() string {
	return a.dir
}

// Size returns the file size in bytes.
func (a *Artifact) Size() (int64, error) {
	st, err := os.Stat(a.Path)
	if err != nil {
		return 0, err
	}
	return st.Size(), nil
}

// WriteTo copies the file to w.
func (a *Artifact) WriteTo(w io.Writer) (int64, error) {
	f, err := os.Open(a.Path)
	if err != nil {
		return 0, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()
	return io.Copy(w, f)
}

// Cleanup removes the temporary directory. Safe to call more than once.
func (a *Artifact) Cleanup() error {
	var err error
	a.once.Do(func() {
		err = os.RemoveAll(a.dir)
	})
	return err
}

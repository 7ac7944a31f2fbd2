package sessionstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/appraise/core/session"
)

// FilePersister keeps the session in a JSON file readable only by the current user.
type FilePersister struct {
	path string
	mu   sync.Mutex
}

var _ session.Persister = (*FilePersister)(nil)

func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

// Load returns an empty session when the file does not exist yet.
func (p *FilePersister) Load() (session.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return session.Session{}, nil
		}
		return session.Session{}, errors.Wrapf(err, "reading %s", p.path)
	}
	var sess session.Session
	if err = json.Unmarshal(data, &sess); err != nil {
		return session.Session{}, errors.Wrapf(err, "decoding %s", p.path)
	}
	return sess, nil
}

// Save writes to a temp file then renames it so a crash never leaves a truncated session.
func (p *FilePersister) Save(sess session.Session) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}

	dir := filepath.Dir(p.path)
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "writing session")
	}
	if err = tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "chmod session")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "closing session")
	}
	return errors.Wrap(os.Rename(tmp.Name(), p.path), "renaming session")
}

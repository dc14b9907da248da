package kvstore

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	logx "rmnotify/pkg/logx"
)

// fileStore keeps one suite in three files under cfg.Path:
//   - <suite>.snapshot.json (compacted state)
//   - <suite>.journal.jsonl (append-only puts and tombstones)
//   - <suite>.lock (flock target; holds the compaction generation)
//
// Every operation holds the flock, refreshes the in-memory view from disk and
// only then reads or appends, so instances in other processes never lose
// each other's records. A compaction bumps the generation, which makes every
// other instance reload from the new snapshot.
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	snapshotPath string
	journalPath  string
	journal      *os.File
	lock         *os.File

	data map[string][]byte

	// journalOff is how many journal bytes have been applied to data.
	journalOff int64
	gen        uint64

	writes       int
	compactEvery int
}

type journalRecord struct {
	Op    string `json:"op"`
	Key   string `json:"key"`
	Value []byte `json:"value,omitempty"`
}

const (
	opPut = "put"
	opDel = "del"
)

func openFile(cfg Config, log logx.Logger) (Store, error) {
	dir := strings.TrimSpace(cfg.Path)
	if dir == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if strings.ContainsAny(cfg.Suite, `/\`) {
		return nil, fmt.Errorf("kvstore: suite %q must not contain path separators", cfg.Suite)
	}
	prefix := filepath.Join(dir, cfg.Suite)

	s := &fileStore{
		log:          log,
		snapshotPath: prefix + ".snapshot.json",
		journalPath:  prefix + ".journal.jsonl",
		data:         map[string][]byte{},
		compactEvery: cfg.CompactEvery,
	}
	if s.compactEvery <= 0 {
		s.compactEvery = defaultCompactEvery
	}

	lf, err := os.OpenFile(prefix+".lock", os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}
	jf, err := os.OpenFile(s.journalPath, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o600)
	if err != nil {
		_ = lf.Close()
		return nil, err
	}
	s.lock, s.journal = lf, jf

	err = s.locked(func() error {
		gen, err := s.readGen()
		if err != nil {
			return err
		}
		s.gen = gen
		return s.reloadLocked()
	})
	if err != nil {
		_ = jf.Close()
		_ = lf.Close()
		return nil, err
	}
	return s, nil
}

// locked runs fn under the suite file lock. Callers hold s.mu.
func (s *fileStore) locked(fn func() error) error {
	if err := lockFile(s.lock); err != nil {
		return fmt.Errorf("kvstore lock: %w", err)
	}
	defer func() { _ = unlockFile(s.lock) }()
	return fn()
}

func (s *fileStore) readGen() (uint64, error) {
	buf := make([]byte, 32)
	n, err := s.lock.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	txt := strings.TrimSpace(string(buf[:n]))
	if txt == "" {
		return 0, nil
	}
	return strconv.ParseUint(txt, 10, 64)
}

func (s *fileStore) writeGen(gen uint64) error {
	if err := s.lock.Truncate(0); err != nil {
		return err
	}
	_, err := s.lock.WriteAt([]byte(strconv.FormatUint(gen, 10)+"\n"), 0)
	return err
}

func (s *fileStore) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.append(ctx, journalRecord{Op: opPut, Key: key, Value: value})
}

func (s *fileStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.append(ctx, journalRecord{Op: opDel, Key: key})
}

func (s *fileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journal == nil {
		return nil, false, ErrClosed
	}
	var (
		v  []byte
		ok bool
	)
	err := s.locked(func() error {
		if err := s.refreshLocked(); err != nil {
			return err
		}
		v, ok = s.data[key]
		return nil
	})
	if err != nil || !ok {
		return nil, false, err
	}
	return append([]byte(nil), v...), true, nil
}

func (s *fileStore) append(_ context.Context, rec journalRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journal == nil {
		return ErrClosed
	}
	return s.locked(func() error {
		if err := s.refreshLocked(); err != nil {
			return err
		}
		st, err := s.journal.Stat()
		if err != nil {
			return err
		}
		buf := line
		if st.Size() > s.journalOff {
			// Torn tail from a writer that died mid-append; end it so our
			// record starts on its own line.
			buf = append([]byte{'\n'}, line...)
		}
		if _, err := s.journal.Write(buf); err != nil {
			return err
		}
		s.apply(rec)
		s.journalOff = st.Size() + int64(len(buf))

		s.writes++
		if s.writes%s.compactEvery == 0 {
			if err := s.compactLocked(); err != nil {
				s.log.Debug("journal compact failed", logx.Err(err))
			}
		}
		return nil
	})
}

func (s *fileStore) apply(rec journalRecord) {
	switch rec.Op {
	case opPut:
		s.data[rec.Key] = rec.Value
	case opDel:
		delete(s.data, rec.Key)
	}
}

// Compact folds the journal into the snapshot and truncates the journal.
func (s *fileStore) Compact(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journal == nil {
		return ErrClosed
	}
	return s.locked(func() error {
		if err := s.refreshLocked(); err != nil {
			return err
		}
		return s.compactLocked()
	})
}

// compactLocked requires the file lock and a fresh view: data then covers
// every journal record on disk.
func (s *fileStore) compactLocked() error {
	tmp := s.snapshotPath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(s.data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.snapshotPath); err != nil {
		return err
	}
	if err := s.journal.Truncate(0); err != nil {
		return err
	}
	if _, err := s.journal.Seek(0, io.SeekEnd); err != nil {
		return err
	}
	s.journalOff = 0
	s.gen++
	if err := s.writeGen(s.gen); err != nil {
		return err
	}
	s.log.Debug("journal compacted", logx.Int("keys", len(s.data)))
	return nil
}

// refreshLocked brings data up to date with the files on disk.
func (s *fileStore) refreshLocked() error {
	gen, err := s.readGen()
	if err != nil {
		return err
	}
	if gen != s.gen {
		s.gen = gen
		return s.reloadLocked()
	}

	jst, err := s.journal.Stat()
	if err != nil {
		return err
	}
	if jst.Size() < s.journalOff {
		return s.reloadLocked()
	}
	if jst.Size() == s.journalOff {
		return nil
	}
	return s.replayFrom(s.journalOff)
}

func (s *fileStore) reloadLocked() error {
	data := map[string][]byte{}

	b, err := os.ReadFile(s.snapshotPath)
	switch {
	case err == nil:
		if len(bytes.TrimSpace(b)) > 0 {
			if err := json.Unmarshal(b, &data); err != nil {
				return fmt.Errorf("kvstore snapshot %s: %w", s.snapshotPath, err)
			}
		}
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}

	s.data = data
	s.journalOff = 0
	return s.replayFrom(0)
}

// replayFrom applies complete journal lines starting at off. A trailing
// partial line (a concurrent writer mid-append) is left for the next refresh.
func (s *fileStore) replayFrom(off int64) error {
	f, err := os.Open(s.journalPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Seek(off, io.SeekStart); err != nil {
		return err
	}

	r := bufio.NewReader(f)
	for {
		line, err := r.ReadBytes('\n')
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		off += int64(len(line))

		var rec journalRecord
		if err := json.Unmarshal(line, &rec); err != nil || rec.Key == "" {
			s.log.Debug("skipping bad journal line", logx.Int64("offset", off))
			continue
		}
		s.apply(rec)
	}
	s.journalOff = off
	return nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journal == nil {
		return nil
	}
	err := errors.Join(s.journal.Close(), s.lock.Close())
	s.journal, s.lock = nil, nil
	return err
}

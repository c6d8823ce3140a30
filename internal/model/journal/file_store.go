package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harulog/backend/internal/analysis/emotion"
)

const emptyDocument = "[]"

var (
	ErrStorageDirRequired  = errors.New("storage directory is required")
	ErrStorageFileRequired = errors.New("storage filename is required")
)

// StorageConfig 描述日志文件的存放位置，在进程启动时确定一次。
type StorageConfig struct {
	Dir      string
	Filename string
}

// Path returns the backing file location.
func (c StorageConfig) Path() string {
	return filepath.Join(c.Dir, c.Filename)
}

func (c StorageConfig) validate() error {
	if strings.TrimSpace(c.Dir) == "" {
		return ErrStorageDirRequired
	}
	if strings.TrimSpace(c.Filename) == "" || strings.ContainsRune(c.Filename, os.PathSeparator) {
		return ErrStorageFileRequired
	}
	return nil
}

// Option customises a FileStore.
type Option func(*FileStore)

// WithClock overrides the time source for createdAtISO and createdAtLabel.
// Entry ids always come from uuid.NewV7 and the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *FileStore) {
		if now != nil {
			s.now = now
		}
	}
}

// FileStore persists entries as a single pretty-printed JSON array.
// Every write rewrites the whole document.
type FileStore struct {
	cfg StorageConfig
	now func() time.Time
	mu  sync.Mutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore validates cfg and makes sure the directory and file exist.
func NewFileStore(cfg StorageConfig, opts ...Option) (*FileStore, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	s := &FileStore{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	return s, nil
}

// Config returns the storage target.
func (s *FileStore) Config() StorageConfig {
	return s.cfg
}

// List returns entries most-recently-touched first. Corrupt content is
// replaced by an empty array instead of being reported.
func (s *FileStore) List(_ context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Create inserts a new entry at the front and returns its id.
func (s *FileStore) Create(_ context.Context, entry NewEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return "", err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate entry id: %w", err)
	}

	label := entry.Emotion
	if label == "" {
		label = emotion.Neutral
	}

	now := s.now()
	created := Entry{
		ID:             id.String(),
		CreatedAtISO:   FormatISO(now),
		CreatedAtLabel: FormatDateLabel(now),
		Title:          entry.Title,
		Emotion:        label,
		Messages:       cloneMessages(entry.Messages),
	}

	entries = append([]Entry{created}, entries...)
	if err := s.save(entries); err != nil {
		return "", err
	}
	return created.ID, nil
}

// Get looks an entry up by id.
func (s *FileStore) Get(_ context.Context, id string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return Entry{}, err
	}

	idx := indexOf(entries, id)
	if idx == -1 {
		return Entry{}, ErrNotFound
	}
	return entries[idx].clone(), nil
}

// Append concatenates messages to the entry and moves it to the front.
func (s *FileStore) Append(_ context.Context, id string, messages []Message, opts AppendOptions) error {
	return s.touch(id, func(e *Entry) {
		e.Messages = append(e.Messages, messages...)
		if opts.UpdateEmotion != "" {
			e.Emotion = opts.UpdateEmotion
		}
	})
}

// UpdateMeta merges the non-nil patch fields and moves the entry to the front.
func (s *FileStore) UpdateMeta(_ context.Context, id string, patch MetaPatch) error {
	return s.touch(id, func(e *Entry) {
		if patch.Title != nil {
			e.Title = *patch.Title
		}
		if patch.Emotion != nil {
			e.Emotion = *patch.Emotion
		}
	})
}

// Clear drops every entry.
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureReady(); err != nil {
		return err
	}
	return s.writeRaw([]byte(emptyDocument))
}

// touch applies mutate to entry id, relocates it to index 0 and persists.
// Nothing is written when id is unknown.
func (s *FileStore) touch(id string, mutate func(*Entry)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}

	idx := indexOf(entries, id)
	if idx == -1 {
		return ErrNotFound
	}

	updated := entries[idx]
	mutate(&updated)
	entries = moveToFront(entries, idx, updated)
	return s.save(entries)
}

func (s *FileStore) load() ([]Entry, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.cfg.Path())
	if err != nil {
		return nil, fmt.Errorf("read journal storage: %w", err)
	}

	entries, err := decodeEntries(raw)
	if err != nil {
		log.Printf("[store] unreadable journal at %s, resetting: %v", s.cfg.Path(), err)
		if werr := s.writeRaw([]byte(emptyDocument)); werr != nil {
			return nil, werr
		}
		return []Entry{}, nil
	}
	return entries, nil
}

func (s *FileStore) save(entries []Entry) error {
	data, err := encodeEntries(entries)
	if err != nil {
		return fmt.Errorf("encode journal storage: %w", err)
	}
	return s.writeRaw(data)
}

func (s *FileStore) ensureReady() error {
	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("create journal directory: %w", err)
	}

	if _, err := os.Stat(s.cfg.Path()); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat journal storage: %w", err)
	}
	return s.writeRaw([]byte(emptyDocument))
}

// writeRaw replaces the backing file via a temp file and rename.
func (s *FileStore) writeRaw(data []byte) error {
	tmp, err := os.CreateTemp(s.cfg.Dir, "."+s.cfg.Filename+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp journal file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write journal storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close journal storage: %w", err)
	}
	if err := os.Rename(tmpName, s.cfg.Path()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace journal storage: %w", err)
	}
	return nil
}

func decodeEntries(raw []byte) ([]Entry, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("journal document is not a json array")
	}

	var entries []Entry
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []Entry{}
	}
	for i := range entries {
		if entries[i].Messages == nil {
			entries[i].Messages = []Message{}
		}
	}
	return entries, nil
}

func encodeEntries(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func indexOf(entries []Entry, id string) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}

// moveToFront removes entries[idx] and reinserts updated at position 0.
func moveToFront(entries []Entry, idx int, updated Entry) []Entry {
	reordered := make([]Entry, 0, len(entries))
	reordered = append(reordered, updated)
	reordered = append(reordered, entries[:idx]...)
	reordered = append(reordered, entries[idx+1:]...)
	return reordered
}

package prefs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

type fileDoc struct {
	Preferences Preferences `yaml:"preferences"`
	Words       []string    `yaml:"words,omitempty"`
}

// FileStore keeps preferences and words in one YAML file. A missing file
// reads as Default() with no words.
type FileStore struct {
	path string
	mu   sync.Mutex
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context) (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return Preferences{}, err
	}
	return doc.Preferences, nil
}

func (s *FileStore) Save(ctx context.Context, p Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	doc.Preferences = p
	return s.write(doc)
}

func (s *FileStore) LearnWord(ctx context.Context, word string) error {
	w := Normalize(word)
	if w == "" {
		return ErrEmptyWord
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	if slices.Contains(doc.Words, w) {
		return nil
	}
	doc.Words = append(doc.Words, w)
	slices.Sort(doc.Words)
	return s.write(doc)
}

func (s *FileStore) Words(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	return doc.Words, nil
}

func (s *FileStore) read() (fileDoc, error) {
	doc := fileDoc{Preferences: Default()}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return fileDoc{}, fmt.Errorf("read prefs: %w", err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fileDoc{}, fmt.Errorf("parse prefs %s: %w", s.path, err)
	}
	return doc, nil
}

// write replaces the file atomically.
func (s *FileStore) write(doc fileDoc) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*.yaml")
	if err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

// Package storage persists Quizlify study sets and study history to a JSON
// file. It is the local-storage analogue of the browser app: best effort,
// single file, atomic writes.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quizlify/quizlify/internal/deck"
)

// ErrSetNotFound is returned when a study set id is not in the store.
var ErrSetNotFound = errors.New("study set not found")

// StudyRecord is the session summary appended when any study mode
// completes. Score fields are only meaningful for test mode.
type StudyRecord struct {
	ID           string    `json:"id"`
	SetID        string    `json:"set_id"`
	SetTitle     string    `json:"set_title"`
	Mode         string    `json:"mode"`
	StartedAt    time.Time `json:"started_at"`
	ElapsedMs    int64     `json:"elapsed_ms"`
	Mastered     int       `json:"mastered"`
	Total        int       `json:"total"`
	Correct      int       `json:"correct,omitempty"`
	Questions    int       `json:"questions,omitempty"`
	ScorePercent int       `json:"score_percent,omitempty"`
}

// QuizStore is the data structure stored in the JSON file.
type QuizStore struct {
	Sets        map[string]deck.Deck `json:"sets"`
	Records     []StudyRecord        `json:"records"`
	LastUpdated time.Time            `json:"last_updated"`
}

// Storage is the persistence interface consumed by the study service.
type Storage interface {
	// Study set operations
	CreateSet(d deck.Deck) (deck.Deck, error)
	GetSet(id string) (deck.Deck, error)
	UpdateSet(d deck.Deck) error
	DeleteSet(id string) error
	ListSets() ([]deck.Deck, error)

	// Study history operations
	AddRecord(record StudyRecord) (StudyRecord, error)
	ListRecords(setID string) ([]StudyRecord, error)

	// File operations
	Load() error
	Save() error
}

// FileStorage implements Storage using a JSON file.
type FileStorage struct {
	filePath string
	store    QuizStore
	mu       sync.RWMutex
}

// NewFileStorage creates a new FileStorage instance.
func NewFileStorage(filePath string) *FileStorage {
	return &FileStorage{
		filePath: filePath,
		store: QuizStore{
			Sets:    make(map[string]deck.Deck),
			Records: []StudyRecord{},
		},
	}
}

// CreateSet stores a new study set, assigning an id and creation time when
// missing.
func (fs *FileStorage) CreateSet(d deck.Deck) (deck.Deck, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	for i := range d.Cards {
		if d.Cards[i].ID == "" {
			d.Cards[i].ID = uuid.New().String()
		}
	}

	fs.store.Sets[d.ID] = d
	fs.store.LastUpdated = time.Now()
	return d, nil
}

// GetSet retrieves a study set by id.
func (fs *FileStorage) GetSet(id string) (deck.Deck, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	d, exists := fs.store.Sets[id]
	if !exists {
		return deck.Deck{}, ErrSetNotFound
	}
	return d, nil
}

// UpdateSet replaces an existing study set.
func (fs *FileStorage) UpdateSet(d deck.Deck) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, exists := fs.store.Sets[d.ID]; !exists {
		return ErrSetNotFound
	}
	fs.store.Sets[d.ID] = d
	fs.store.LastUpdated = time.Now()
	return nil
}

// DeleteSet removes a study set by id. Its history records are kept.
func (fs *FileStorage) DeleteSet(id string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, exists := fs.store.Sets[id]; !exists {
		return ErrSetNotFound
	}
	delete(fs.store.Sets, id)
	fs.store.LastUpdated = time.Now()
	return nil
}

// ListSets returns all study sets.
func (fs *FileStorage) ListSets() ([]deck.Deck, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	result := make([]deck.Deck, 0, len(fs.store.Sets))
	for _, d := range fs.store.Sets {
		result = append(result, d)
	}
	return result, nil
}

// AddRecord appends a study history record, assigning an id when missing.
// Saving is the caller's responsibility, same as the set operations.
func (fs *FileStorage) AddRecord(record StudyRecord) (StudyRecord, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.StartedAt.IsZero() {
		record.StartedAt = time.Now()
	}
	fs.store.Records = append(fs.store.Records, record)
	fs.store.LastUpdated = time.Now()
	return record, nil
}

// ListRecords returns study history, optionally filtered to one set.
func (fs *FileStorage) ListRecords(setID string) ([]StudyRecord, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if setID == "" {
		result := make([]StudyRecord, len(fs.store.Records))
		copy(result, fs.store.Records)
		return result, nil
	}

	var result []StudyRecord
	for _, r := range fs.store.Records {
		if r.SetID == setID {
			result = append(result, r)
		}
	}
	return result, nil
}

// save writes the store to disk. Assumes the write lock is held.
func (fs *FileStorage) save() error {
	if fs.store.Sets == nil {
		fs.store.Sets = make(map[string]deck.Deck)
	}
	if fs.store.Records == nil {
		fs.store.Records = []StudyRecord{}
	}
	fs.store.LastUpdated = time.Now()

	dataBytes, err := json.MarshalIndent(fs.store, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal storage data: %w", err)
	}

	dir := filepath.Dir(fs.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to a temporary file, then rename for an atomic replace.
	tempFile := fs.filePath + ".tmp"
	if err := os.WriteFile(tempFile, dataBytes, 0644); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tempFile, fs.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// Load reads the data file, initializing an empty store (and creating the
// file) when it does not exist yet.
func (fs *FileStorage) Load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, err := os.Stat(fs.filePath); os.IsNotExist(err) {
		log.Printf("[Storage] %s not found, initializing empty store", fs.filePath)
		fs.store = QuizStore{
			Sets:    make(map[string]deck.Deck),
			Records: []StudyRecord{},
		}
		if saveErr := fs.save(); saveErr != nil {
			return fmt.Errorf("failed to save initial empty store: %w", saveErr)
		}
		return nil
	}

	data, err := os.ReadFile(fs.filePath)
	if err != nil {
		return fmt.Errorf("failed to read storage file: %w", err)
	}

	if len(data) == 0 {
		fs.store = QuizStore{
			Sets:    make(map[string]deck.Deck),
			Records: []StudyRecord{},
		}
		return nil
	}

	var store QuizStore
	if err := json.Unmarshal(data, &store); err != nil {
		return fmt.Errorf("failed to unmarshal storage data: %w", err)
	}

	// Older files may omit either section.
	if store.Sets == nil {
		store.Sets = make(map[string]deck.Deck)
	}
	if store.Records == nil {
		store.Records = []StudyRecord{}
	}

	fs.store = store
	return nil
}

// Save writes the store to the file atomically.
func (fs *FileStorage) Save() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.save()
}

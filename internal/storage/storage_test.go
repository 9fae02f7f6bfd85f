package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/quizlify/quizlify/internal/deck"
)

// createTempFile returns a path for a test data file in a temp directory.
func createTempFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test-quizlify.json")
}

func sampleDeck() deck.Deck {
	return deck.Deck{
		Title:       "Biology Basics",
		Description: "Cell structure terms",
		Creator:     "demo",
		Color:       "green",
		Cards: []deck.Card{
			{Term: "Mitochondria", Definition: "The powerhouse of the cell"},
			{Term: "Nucleus", Definition: "Contains the cell's DNA"},
		},
	}
}

func TestFileStorage_CreateSet(t *testing.T) {
	storage := NewFileStorage(createTempFile(t))

	created, err := storage.CreateSet(sampleDeck())
	if err != nil {
		t.Fatalf("Error creating set: %v", err)
	}

	if created.ID == "" {
		t.Error("Expected set to have an ID")
	}
	if created.CreatedAt.IsZero() {
		t.Error("Expected set to have a creation time")
	}
	for i, card := range created.Cards {
		if card.ID == "" {
			t.Errorf("Expected card %d to have an ID", i)
		}
	}

	got, err := storage.GetSet(created.ID)
	if err != nil {
		t.Fatalf("Error getting set: %v", err)
	}
	if diff := cmp.Diff(created, got); diff != "" {
		t.Errorf("Stored set mismatch (-want +got):\n%s", diff)
	}
}

func TestFileStorage_GetSetNotFound(t *testing.T) {
	storage := NewFileStorage(createTempFile(t))

	_, err := storage.GetSet("missing")
	if !errors.Is(err, ErrSetNotFound) {
		t.Errorf("Expected ErrSetNotFound, got %v", err)
	}
}

func TestFileStorage_UpdateAndDeleteSet(t *testing.T) {
	storage := NewFileStorage(createTempFile(t))

	created, err := storage.CreateSet(sampleDeck())
	if err != nil {
		t.Fatalf("Error creating set: %v", err)
	}

	created.Title = "Biology Advanced"
	if err := storage.UpdateSet(created); err != nil {
		t.Fatalf("Error updating set: %v", err)
	}
	got, err := storage.GetSet(created.ID)
	if err != nil {
		t.Fatalf("Error getting set: %v", err)
	}
	if got.Title != "Biology Advanced" {
		t.Errorf("Expected updated title, got %q", got.Title)
	}

	if err := storage.DeleteSet(created.ID); err != nil {
		t.Fatalf("Error deleting set: %v", err)
	}
	if _, err := storage.GetSet(created.ID); !errors.Is(err, ErrSetNotFound) {
		t.Errorf("Expected ErrSetNotFound after delete, got %v", err)
	}
	if err := storage.DeleteSet(created.ID); !errors.Is(err, ErrSetNotFound) {
		t.Errorf("Expected ErrSetNotFound on double delete, got %v", err)
	}
}

func TestFileStorage_Records(t *testing.T) {
	storage := NewFileStorage(createTempFile(t))

	record, err := storage.AddRecord(StudyRecord{
		SetID:     "set-1",
		SetTitle:  "Biology Basics",
		Mode:      "learn",
		ElapsedMs: 90000,
		Mastered:  4,
		Total:     5,
	})
	if err != nil {
		t.Fatalf("Error adding record: %v", err)
	}
	if record.ID == "" {
		t.Error("Expected record to have an ID")
	}
	if record.StartedAt.IsZero() {
		t.Error("Expected record to have a start time")
	}

	if _, err := storage.AddRecord(StudyRecord{SetID: "set-2", Mode: "test", ScorePercent: 80}); err != nil {
		t.Fatalf("Error adding second record: %v", err)
	}

	all, err := storage.ListRecords("")
	if err != nil {
		t.Fatalf("Error listing records: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(all))
	}

	filtered, err := storage.ListRecords("set-1")
	if err != nil {
		t.Fatalf("Error listing filtered records: %v", err)
	}
	if len(filtered) != 1 || filtered[0].SetID != "set-1" {
		t.Errorf("Expected one record for set-1, got %+v", filtered)
	}
}

func TestFileStorage_SaveAndLoad(t *testing.T) {
	tempFile := createTempFile(t)

	storage := NewFileStorage(tempFile)
	created, err := storage.CreateSet(sampleDeck())
	if err != nil {
		t.Fatalf("Error creating set: %v", err)
	}
	if _, err := storage.AddRecord(StudyRecord{SetID: created.ID, Mode: "flashcard", Total: 2}); err != nil {
		t.Fatalf("Error adding record: %v", err)
	}
	if err := storage.Save(); err != nil {
		t.Fatalf("Error saving storage: %v", err)
	}

	reloaded := NewFileStorage(tempFile)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Error loading storage: %v", err)
	}

	got, err := reloaded.GetSet(created.ID)
	if err != nil {
		t.Fatalf("Error getting set after reload: %v", err)
	}
	if diff := cmp.Diff(created, got); diff != "" {
		t.Errorf("Reloaded set mismatch (-want +got):\n%s", diff)
	}

	records, err := reloaded.ListRecords(created.ID)
	if err != nil {
		t.Fatalf("Error listing records after reload: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected 1 record after reload, got %d", len(records))
	}
}

func TestFileStorage_LoadMissingFileInitializes(t *testing.T) {
	tempFile := createTempFile(t)

	storage := NewFileStorage(tempFile)
	if err := storage.Load(); err != nil {
		t.Fatalf("Error loading missing file: %v", err)
	}

	// Load creates the file so later saves have a stable home.
	if _, err := os.Stat(tempFile); err != nil {
		t.Errorf("Expected data file to exist after Load: %v", err)
	}

	sets, err := storage.ListSets()
	if err != nil {
		t.Fatalf("Error listing sets: %v", err)
	}
	if len(sets) != 0 {
		t.Errorf("Expected empty store, got %d sets", len(sets))
	}
}

func TestFileStorage_LoadOlderFormat(t *testing.T) {
	tempFile := createTempFile(t)
	if err := os.WriteFile(tempFile, []byte(`{"sets": {}}`), 0644); err != nil {
		t.Fatalf("Error writing legacy file: %v", err)
	}

	storage := NewFileStorage(tempFile)
	if err := storage.Load(); err != nil {
		t.Fatalf("Error loading legacy file: %v", err)
	}

	records, err := storage.ListRecords("")
	if err != nil {
		t.Fatalf("Error listing records: %v", err)
	}
	if records == nil {
		t.Error("Expected initialized record slice for legacy files")
	}
}

package handoff

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/tally/aggregate"
	"github.com/pevans/tally/links"
	"github.com/pevans/tally/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: create a test handoff directory
func setupTestDir(t *testing.T) *Dir {
	dir, err := NewDir(filepath.Join(t.TempDir(), "nested", "handoff"))
	require.NoError(t, err)
	return dir
}

// TestNewDir_CreatesDirectory verifies nested directories are created
func TestNewDir_CreatesDirectory(t *testing.T) {
	dir := setupTestDir(t)

	info, err := os.Stat(dir.Path())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

// TestEmit_WritesOneFilePerMessage verifies message files are named by ID
// and leave no temporary files behind
func TestEmit_WritesOneFilePerMessage(t *testing.T) {
	dir := setupTestDir(t)

	msg := FoldersMessage([]links.FolderTarget{{Name: "Hearings", URL: "https://x.example/folder/h"}})
	require.NoError(t, dir.Emit(msg))

	entries, err := os.ReadDir(dir.Path())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, msg.ID.String()+".json", entries[0].Name())

	data, err := os.ReadFile(filepath.Join(dir.Path(), entries[0].Name()))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "folders", raw["kind"])
	assert.Equal(t, true, raw["folders"].(map[string]any)["success"])
	assert.NotContains(t, raw, "tree")
}

// TestEmit_RejectsUnknownKind verifies invalid kinds are not written
func TestEmit_RejectsUnknownKind(t *testing.T) {
	dir := setupTestDir(t)

	err := dir.Emit(Message{ID: uuid.New(), Kind: "other"})
	assert.ErrorIs(t, err, ErrInvalidKind)

	result, err := dir.List()
	require.NoError(t, err)
	assert.Empty(t, result.Messages)
}

// TestMessages_EmptyPayloads verifies empty results encode as empty lists
func TestMessages_EmptyPayloads(t *testing.T) {
	assert.Equal(t, []links.FolderTarget{}, FoldersMessage(nil).Folders.Folders)
	assert.Equal(t, []links.MonthTarget{}, MonthsMessage("F", nil).Months.Months)
	assert.Equal(t, []records.CountTuple{}, CountsMessage("F", nil).Counts)
}

// TestList_RoundTripsAndOrders verifies every kind reads back oldest first
func TestList_RoundTripsAndOrders(t *testing.T) {
	dir := setupTestDir(t)

	base := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)

	counts := CountsMessage("Online Requests", []records.CountTuple{
		{PersonName: "John Smith", Date: "2025-01-06", Count: 3},
	})
	counts.CreatedAt = base.Add(2 * time.Minute)

	months := MonthsMessage("Online Requests", []links.MonthTarget{
		{Year: 2025, Month: 1, URL: "https://x.example/folder/online/2025-01"},
	})
	months.CreatedAt = base.Add(time.Minute)

	src := &aggregate.Source{}
	src.Add("John Smith", "Online Requests", 2025, 1, "2025-01-06", 3)
	tree, err := aggregate.Optimize(src, aggregate.Options{})
	require.NoError(t, err)
	agg := AggregateMessage(tree)
	agg.CreatedAt = base.Add(3 * time.Minute)

	folders := FoldersMessage(nil)
	folders.CreatedAt = base

	for _, m := range []Message{counts, agg, folders, months} {
		require.NoError(t, dir.Emit(m))
	}

	result, err := dir.List()
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Messages, 4)

	assert.Equal(t, []Kind{KindFolders, KindMonths, KindCounts, KindAggregate}, []Kind{
		result.Messages[0].Kind, result.Messages[1].Kind,
		result.Messages[2].Kind, result.Messages[3].Kind,
	})
	assert.Equal(t, "Online Requests", result.Messages[1].Folder)
	assert.Equal(t, counts.Counts, result.Messages[2].Counts)
	assert.Equal(t, 3, result.Messages[3].Tree.Overall.TotalItems)
}

// TestList_CollectsReadErrors verifies corrupt files do not fail the listing
func TestList_CollectsReadErrors(t *testing.T) {
	dir := setupTestDir(t)

	require.NoError(t, dir.Emit(CountsMessage("F", nil)))
	require.NoError(t, os.WriteFile(filepath.Join(dir.Path(), "broken.json"), []byte("{"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir.Path(), "odd.json"), []byte(`{"kind":"x"}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir.Path(), "notes.txt"), []byte("ignored"), 0o600))

	result, err := dir.List()
	require.NoError(t, err)
	assert.Len(t, result.Messages, 1)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0].Error(), "broken.json")
}

// TestGetDelete verifies lookup and removal by ID
func TestGetDelete(t *testing.T) {
	dir := setupTestDir(t)

	msg := CountsMessage("F", []records.CountTuple{{PersonName: "A", Date: "2025-01-06", Count: 1}})
	require.NoError(t, dir.Emit(msg))

	got, err := dir.Get(msg.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, got.ID)
	assert.Equal(t, msg.Counts, got.Counts)

	require.NoError(t, dir.Delete(msg.ID))

	_, err = dir.Get(msg.ID)
	assert.ErrorIs(t, err, ErrMessageNotFound)
	assert.ErrorIs(t, dir.Delete(msg.ID), ErrMessageNotFound)
}

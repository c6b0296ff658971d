package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func journalFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "journal.ndjson")
}

func appendJournal(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.WriteString(content)
	require.NoError(t, err)
}

func TestJournalSourceReadsRecords(t *testing.T) {
	path := journalFile(t)
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	appendJournal(t, path, fmt.Sprintf(
		`{"timestamp":%q,"message":"[AdSDK] banner loaded"}`+"\n"+
			`{"timestamp":%q,"message":"[AdSDK] banner shown"}`+"\n",
		base.Add(time.Second).Format(time.RFC3339Nano),
		base.Add(2*time.Second).Format(time.RFC3339Nano),
	))

	src := NewJournalSource(path)
	entries, err := src.EntriesSince(base, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "[AdSDK] banner loaded", entries[0].Message)
	assert.True(t, entries[0].Time.Equal(base.Add(time.Second)))
	assert.Equal(t, "[AdSDK] banner shown", entries[1].Message)
}

func TestJournalSourceSinceFilter(t *testing.T) {
	path := journalFile(t)
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	appendJournal(t, path, fmt.Sprintf(
		`{"timestamp":%q,"message":"old"}`+"\n"+
			`{"timestamp":%q,"message":"new"}`+"\n",
		base.Add(-time.Minute).Format(time.RFC3339Nano),
		base.Add(time.Minute).Format(time.RFC3339Nano),
	))

	entries, err := NewJournalSource(path).EntriesSince(base, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].Message)
}

func TestJournalSourceSkipsMalformedRecords(t *testing.T) {
	path := journalFile(t)
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	appendJournal(t, path,
		"not json at all\n"+
			`{"timestamp":"bogus","message":"bad time"}`+"\n"+
			`{"timestamp":"2026-08-25T10:00:05Z"}`+"\n"+
			`{"timestamp":"2026-08-25T10:00:06Z","message":"survivor"}`+"\n")

	entries, err := NewJournalSource(path).EntriesSince(base, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "survivor", entries[0].Message)
}

func TestJournalSourceNumericTimestamps(t *testing.T) {
	path := journalFile(t)
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	unix := float64(base.Add(time.Second).UnixNano()) / float64(time.Second)
	appendJournal(t, path, fmt.Sprintf(`{"timestamp":%.3f,"message":"epoch style"}`+"\n", unix))

	entries, err := NewJournalSource(path).EntriesSince(base, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "epoch style", entries[0].Message)
	assert.WithinDuration(t, base.Add(time.Second), entries[0].Time, 10*time.Millisecond)
}

func TestJournalSourceIncrementalReads(t *testing.T) {
	path := journalFile(t)
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	src := NewJournalSource(path)

	appendJournal(t, path, fmt.Sprintf(`{"timestamp":%q,"message":"first"}`+"\n",
		base.Add(time.Second).Format(time.RFC3339Nano)))
	entries, err := src.EntriesSince(base, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// The already-consumed record must not come back, even with an
	// earlier since.
	appendJournal(t, path, fmt.Sprintf(`{"timestamp":%q,"message":"second"}`+"\n",
		base.Add(2*time.Second).Format(time.RFC3339Nano)))
	entries, err = src.EntriesSince(base.Add(-time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "second", entries[0].Message)
}

func TestJournalSourceUnterminatedTail(t *testing.T) {
	path := journalFile(t)
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	src := NewJournalSource(path)

	// A record with no trailing newline is still being written.
	appendJournal(t, path, fmt.Sprintf(`{"timestamp":%q,"message":"partial"`,
		base.Add(time.Second).Format(time.RFC3339Nano)))
	entries, err := src.EntriesSince(base, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	appendJournal(t, path, "}\n")
	entries, err = src.EntriesSince(base, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "partial", entries[0].Message)
}

func TestJournalSourceLimit(t *testing.T) {
	path := journalFile(t)
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	for i := 1; i <= 5; i++ {
		appendJournal(t, path, fmt.Sprintf(`{"timestamp":%q,"message":"line %d"}`+"\n",
			base.Add(time.Duration(i)*time.Second).Format(time.RFC3339Nano), i))
	}

	src := NewJournalSource(path)
	entries, err := src.EntriesSince(base, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "line 1", entries[0].Message)

	// The remainder arrives on the next poll.
	entries, err = src.EntriesSince(base, 3)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "line 4", entries[0].Message)
}

func TestJournalSourceTruncationResets(t *testing.T) {
	path := journalFile(t)
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	src := NewJournalSource(path)

	appendJournal(t, path, fmt.Sprintf(`{"timestamp":%q,"message":"before rotate"}`+"\n",
		base.Add(time.Second).Format(time.RFC3339Nano)))
	_, err := src.EntriesSince(base, 0)
	require.NoError(t, err)

	require.NoError(t, os.Truncate(path, 0))
	appendJournal(t, path, fmt.Sprintf(`{"timestamp":%q,"message":"after rotate"}`+"\n",
		base.Add(2*time.Second).Format(time.RFC3339Nano)))

	entries, err := src.EntriesSince(base, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "after rotate", entries[0].Message)
}

func TestJournalSourceCustomFields(t *testing.T) {
	path := journalFile(t)
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	appendJournal(t, path, fmt.Sprintf(`{"ts":%q,"eventMessage":"remapped"}`+"\n",
		base.Add(time.Second).Format(time.RFC3339Nano)))

	src := NewJournalSource(path, WithJournalFields("ts", "eventMessage"))
	entries, err := src.EntriesSince(base, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "remapped", entries[0].Message)
}

func TestJournalSourceMissingFile(t *testing.T) {
	src := NewJournalSource(filepath.Join(t.TempDir(), "never-created.ndjson"))
	entries, err := src.EntriesSince(time.Now(), 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

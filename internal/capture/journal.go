package capture

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/tidwall/gjson"
)

const (
	defaultTimeField    = "timestamp"
	defaultMessageField = "message"

	// journalMaxLine bounds a single journal record. Records past this are
	// malformed by definition and skipped.
	journalMaxLine = 256 << 10
)

// JournalSource reads structured log records from a newline-delimited JSON
// journal file, the format emitted by platform log streamers. It remembers
// its file offset between polls so a growing journal is only scanned once,
// and falls back to a full rescan when the file shrinks underneath it.
type JournalSource struct {
	path         string
	timeField    string
	messageField string

	mu     sync.Mutex
	offset int64
}

// JournalOption configures a JournalSource.
type JournalOption func(*JournalSource)

// WithJournalFields overrides the JSON keys holding the record timestamp
// and message text.
func WithJournalFields(timeField, messageField string) JournalOption {
	return func(j *JournalSource) {
		if timeField != "" {
			j.timeField = timeField
		}
		if messageField != "" {
			j.messageField = messageField
		}
	}
}

// NewJournalSource creates a source over the NDJSON journal at path. The
// file does not have to exist yet; polls before its creation return no
// entries.
func NewJournalSource(path string, opts ...JournalOption) *JournalSource {
	j := &JournalSource{
		path:         path,
		timeField:    defaultTimeField,
		messageField: defaultMessageField,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// EntriesSince returns up to limit records with timestamps strictly after
// since, oldest first. Records that are not valid JSON, lack the message
// field, or carry an unparseable timestamp are skipped rather than
// reported; one corrupt record must not stall the poll loop.
func (j *JournalSource) EntriesSince(since time.Time, limit int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat journal: %w", err)
	}
	if info.Size() < j.offset {
		// Truncated or rotated. Start over.
		j.offset = 0
	}
	if _, err := f.Seek(j.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek journal: %w", err)
	}

	// Only terminated lines are consumed; an unterminated tail is a record
	// still being appended and is left for the next poll.
	var entries []Entry
	r := bufio.NewReaderSize(f, 64<<10)
	for limit <= 0 || len(entries) < limit {
		line, err := r.ReadBytes('\n')
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read journal: %w", err)
		}
		j.offset += int64(len(line))
		if len(line) > journalMaxLine {
			continue
		}
		entry, ok := j.parse(line[:len(line)-1])
		if !ok || !entry.Time.After(since) {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (j *JournalSource) parse(line []byte) (Entry, bool) {
	if !gjson.ValidBytes(line) {
		return Entry{}, false
	}
	msg := gjson.GetBytes(line, j.messageField)
	if !msg.Exists() || msg.String() == "" {
		return Entry{}, false
	}
	ts, ok := parseJournalTime(gjson.GetBytes(line, j.timeField))
	if !ok {
		return Entry{}, false
	}
	return Entry{Time: ts, Message: msg.String()}, true
}

// parseJournalTime accepts the two timestamp shapes journals actually use:
// an RFC 3339 string or a numeric Unix time with fractional seconds.
func parseJournalTime(v gjson.Result) (time.Time, bool) {
	switch v.Type {
	case gjson.String:
		if ts, err := time.Parse(time.RFC3339Nano, v.Str); err == nil {
			return ts, true
		}
		return time.Time{}, false
	case gjson.Number:
		sec := int64(v.Num)
		nsec := int64((v.Num - float64(sec)) * float64(time.Second))
		return time.Unix(sec, nsec), true
	default:
		return time.Time{}, false
	}
}

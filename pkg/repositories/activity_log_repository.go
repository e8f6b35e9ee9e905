package repositories

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LunaGrandjean/LVMH-project/pkg/metrics"
	"github.com/LunaGrandjean/LVMH-project/pkg/models"
)

// legacyTimestampLayout matches naive ISO timestamps written without a zone.
const legacyTimestampLayout = "2006-01-02T15:04:05.999999999"

const maxLogLineBytes = 1 << 20

// ActivityLogRepository is the append-only JSON-lines activity log.
type ActivityLogRepository interface {
	// Append stamps the entry with an id and generation time when unset and durably appends it.
	Append(ctx context.Context, entry *models.ActivityLogEntry) error

	// Query returns matching entries newest first, capped at models.MaxHistoryEntries.
	Query(ctx context.Context, filter models.ActivityFilter) (*models.ActivityHistory, error)

	// Suppliers returns the distinct supplier names present in the log, sorted.
	Suppliers(ctx context.Context) ([]string, error)
}

type jsonlActivityLogRepository struct {
	path    string
	mu      sync.Mutex
	now     func() time.Time
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewActivityLogRepository creates a log backed by the file at path, created on first append.
func NewActivityLogRepository(path string, m *metrics.Metrics, logger *zap.Logger) ActivityLogRepository {
	return &jsonlActivityLogRepository{
		path:    path,
		now:     time.Now,
		metrics: m,
		logger:  logger.Named("activity-log"),
	}
}

var _ ActivityLogRepository = (*jsonlActivityLogRepository)(nil)

func (r *jsonlActivityLogRepository) Append(ctx context.Context, entry *models.ActivityLogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry.Action == "" {
		return fmt.Errorf("append activity: action is required")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now().UTC()
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("append activity: marshal: %w", err)
	}
	line = append(line, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("append activity: write: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("append activity: sync: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("append activity: close: %w", err)
	}

	r.metrics.IncrementActivityAppend(string(entry.Action))
	r.logger.Info("Recorded activity",
		zap.String("action", string(entry.Action)),
		zap.String("supplier", entry.Supplier),
		zap.String("id", entry.ID.String()))
	return nil
}

func (r *jsonlActivityLogRepository) Query(ctx context.Context, filter models.ActivityFilter) (*models.ActivityHistory, error) {
	entries, err := r.readAll(ctx)
	if err != nil {
		return nil, err
	}

	now := filter.Now
	if now.IsZero() {
		now = r.now()
	}
	cutoff := now.Add(-time.Duration(filter.Window()) * 24 * time.Hour)

	matches := make([]*models.ActivityLogEntry, 0)
	for _, e := range entries {
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if filter.Supplier != "" && e.Supplier != filter.Supplier {
			continue
		}
		if e.Timestamp.Before(cutoff) {
			continue
		}
		matches = append(matches, e)
	}

	// Reverse file order first so equal timestamps still list the later line first.
	for i, j := 0, len(matches)-1; i < j; i, j = i+1, j-1 {
		matches[i], matches[j] = matches[j], matches[i]
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Timestamp.After(matches[j].Timestamp)
	})

	total := len(matches)
	if len(matches) > models.MaxHistoryEntries {
		matches = matches[:models.MaxHistoryEntries]
	}
	return &models.ActivityHistory{Entries: matches, Total: total}, nil
}

func (r *jsonlActivityLogRepository) Suppliers(ctx context.Context) ([]string, error) {
	entries, err := r.readAll(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	for _, e := range entries {
		if e.Supplier != "" {
			seen[e.Supplier] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// readAll returns every parsable entry in file order. A missing log is an empty log.
func (r *jsonlActivityLogRepository) readAll(ctx context.Context) ([]*models.ActivityLogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read activity log: %w", err)
	}
	defer f.Close()

	var entries []*models.ActivityLogEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLogLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		entry, err := decodeEntry(line)
		if err != nil {
			r.logger.Debug("Skipping unparsable activity log line",
				zap.Int("line", lineNo),
				zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read activity log: %w", err)
	}
	return entries, nil
}

// decodeEntry parses one log line, accepting naive local timestamps from older writers.
func decodeEntry(line []byte) (*models.ActivityLogEntry, error) {
	var entry models.ActivityLogEntry
	err := json.Unmarshal(line, &entry)
	if err == nil {
		return &entry, nil
	}

	var raw map[string]json.RawMessage
	if json.Unmarshal(line, &raw) != nil {
		return nil, err
	}
	var ts string
	if json.Unmarshal(raw["timestamp"], &ts) != nil {
		return nil, err
	}
	parsed, tsErr := time.ParseInLocation(legacyTimestampLayout, ts, time.Local)
	if tsErr != nil {
		return nil, err
	}
	delete(raw, "timestamp")
	rest, mErr := json.Marshal(raw)
	if mErr != nil {
		return nil, err
	}
	entry = models.ActivityLogEntry{}
	if uErr := json.Unmarshal(rest, &entry); uErr != nil {
		return nil, uErr
	}
	entry.Timestamp = parsed
	return &entry, nil
}

package player

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// FileExt is the extension of per-context record files.
const FileExt = ".dat"

// FileBackend stores each context as a line-oriented text file:
//
//	# comment
//	<uuid>,<points>,<unlocked>,<sessionOpen>,<forcedExitCount>
//
// The last two fields are optional on read. Lines that do not parse are
// skipped.
type FileBackend struct {
	dir    string
	logger *slog.Logger
}

// NewFileBackend creates dir if needed and returns a backend rooted there.
func NewFileBackend(dir string, logger *slog.Logger) (*FileBackend, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("player data directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create player data directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileBackend{dir: dir, logger: logger}, nil
}

// Path returns the file backing key.
func (b *FileBackend) Path(key string) string {
	return filepath.Join(b.dir, key+FileExt)
}

func (b *FileBackend) Load(ctx context.Context, key string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(b.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	defer f.Close()

	entries, skipped, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if skipped > 0 {
		b.logger.DebugContext(ctx, "skipped malformed player records", "context", key, "skipped", skipped)
	}
	return entries, nil
}

// Save rewrites the whole file through a temp file and rename so readers
// never see a partial write.
func (b *FileBackend) Save(ctx context.Context, key string, entries []Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(b.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", key, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	w := bufio.NewWriter(tmp)
	if err := Encode(w, key, entries); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), b.Path(key)); err != nil {
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

// Encode writes entries in the record file format with a header comment.
func Encode(w io.Writer, key string, entries []Entry) error {
	if _, err := fmt.Fprintf(w, "# Player state for context %s\n", key); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := io.WriteString(w, FormatLine(e)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads entries from the record file format. Blank lines and comments
// are ignored; malformed lines are counted in skipped. A player appearing
// twice keeps its first position and its last value.
func Decode(r io.Reader) (entries []Entry, skipped int, err error) {
	index := make(map[uuid.UUID]int)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		e, ok := ParseLine(line)
		if !ok {
			skipped++
			continue
		}
		if i, dup := index[e.ID]; dup {
			entries[i] = e
			continue
		}
		index[e.ID] = len(entries)
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, 0, err
	}
	return entries, skipped, nil
}

// FormatLine renders one entry without a trailing newline.
func FormatLine(e Entry) string {
	return fmt.Sprintf("%s,%d,%t,%t,%d",
		e.ID, e.Record.Points, e.Record.Unlocked, e.Record.SessionOpen, e.Record.ForcedExitCount)
}

// ParseLine parses one record line. The id, points and unlocked fields are
// required; sessionOpen defaults to false and forcedExitCount to 0 when
// missing or unreadable.
func ParseLine(line string) (Entry, bool) {
	parts := strings.Split(line, ",")
	if len(parts) < 3 {
		return Entry{}, false
	}
	id, err := uuid.Parse(strings.TrimSpace(parts[0]))
	if err != nil {
		return Entry{}, false
	}
	points, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 32)
	if err != nil {
		return Entry{}, false
	}
	rec := Record{
		Points:   Clamp(points),
		Unlocked: parseBool(parts[2]),
	}
	if len(parts) > 3 {
		rec.SessionOpen = parseBool(parts[3])
	}
	if len(parts) > 4 {
		if n, err := strconv.ParseInt(strings.TrimSpace(parts[4]), 10, 32); err == nil {
			rec.ForcedExitCount = Clamp(n)
		}
	}
	return Entry{ID: id, Record: rec}, true
}

func parseBool(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

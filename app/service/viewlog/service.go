package viewlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"quotebot/app/config"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
	"github.com/samber/oops"
)

// Log holds every view record in memory. Persist rewrites the backing file
// in full; it is not called implicitly by Append.
type Log struct {
	path    string
	records []Record
}

func New(di *do.Injector) (*Log, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return Open(cfg.Quote.DBFile)
}

// Open loads the log at path. A missing file yields an empty log.
func Open(path string) (*Log, error) {
	log := &Log{path: path}

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("View log not found, starting empty", "path", path)
		return log, nil
	}
	if err != nil {
		return nil, oops.In("viewlog").With("path", path).Wrapf(err, "failed to open view log")
	}
	defer file.Close()

	log.records, err = decode(file)
	if err != nil {
		return nil, oops.In("viewlog").With("path", path).Wrapf(err, "failed to parse view log")
	}

	slog.Info("Loaded view log", "path", path, "records", len(log.records))

	return log, nil
}

func decode(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	columns, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make([]int, len(header))
	for i, name := range header {
		index[i] = slices.Index(columns, name)
		if index[i] < 0 {
			return nil, fmt.Errorf("header is missing %q", name)
		}
	}

	var records []Record

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		values := pie.Map(index, func(i int) string {
			if i >= len(row) {
				return ""
			}
			return row[i]
		})

		viewedAt, err := time.Parse(time.RFC3339Nano, values[2])
		if err != nil {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: invalid viewed_at: %w", line, err)
		}

		records = append(records, Record{
			UserID:   values[0],
			QuoteID:  values[1],
			ViewedAt: viewedAt,
		})
	}

	return records, nil
}

func encode(w io.Writer, records []Record) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range records {
		row := []string{r.UserID, r.QuoteID, r.ViewedAt.Format(timeLayout)}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()

	return writer.Error()
}

// History returns a copy of the records belonging to userID, in log order.
func (l *Log) History(userID string) []Record {
	return pie.Filter(l.records, func(r Record) bool {
		return r.UserID == userID
	})
}

func (l *Log) Append(record Record) {
	l.records = append(l.records, record)
}

func (l *Log) Len() int {
	return len(l.records)
}

// Persist writes the whole log to a sibling temp file and renames it over the
// original. An existing file keeps its permissions; a new one gets 0644.
func (l *Log) Persist() error {
	errb := oops.In("viewlog").With("path", l.path)

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errb.Wrapf(err, "failed to create view log directory")
	}

	file, err := os.CreateTemp(dir, filepath.Base(l.path)+".*.tmp")
	if err != nil {
		return errb.Wrapf(err, "failed to create temp file")
	}
	tmpPath := file.Name()
	defer os.Remove(tmpPath)

	mode := defaultFileMode
	if info, statErr := os.Stat(l.path); statErr == nil {
		mode = info.Mode().Perm()
	}

	if err = file.Chmod(mode); err != nil {
		file.Close()
		return errb.Wrapf(err, "failed to set view log permissions")
	}

	if err = encode(file, l.records); err != nil {
		file.Close()
		return errb.Wrapf(err, "failed to write view log")
	}

	if err = file.Close(); err != nil {
		return errb.Wrapf(err, "failed to close temp file")
	}

	if err = os.Rename(tmpPath, l.path); err != nil {
		return errb.Wrapf(err, "failed to replace view log")
	}

	return nil
}

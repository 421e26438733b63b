package quotes

import (
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"slices"

	"quotebot/app/config"

	"github.com/elliotchance/pie/v2"
	"github.com/go-playground/validator/v10"
	"github.com/samber/do"
	"github.com/samber/oops"
)

// Store is the immutable quote pool loaded at startup.
type Store struct {
	quotes map[string]string
}

func New(di *do.Injector) (*Store, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return Load(cfg.Quote.QuotesFile)
}

func Load(path string) (*Store, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, oops.In("quotes").With("path", path).Wrapf(err, "failed to open quotes file")
	}
	defer file.Close()

	store, err := Parse(file)
	if err != nil {
		return nil, oops.In("quotes").With("path", path).Wrapf(err, "failed to parse quotes file")
	}

	slog.Info("Loaded quotes", "path", path, "count", store.Len())

	return store, nil
}

// Parse reads a header-keyed CSV with id and quote_text columns.
func Parse(r io.Reader) (*Store, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &Store{quotes: map[string]string{}}, nil
	}
	if err != nil {
		return nil, oops.Errorf("failed to read header: %w", err)
	}

	idIndex := slices.Index(header, idColumn)
	textIndex := slices.Index(header, textColumn)
	if idIndex < 0 || textIndex < 0 {
		return nil, oops.With("header", header).Errorf("header must contain %q and %q", idColumn, textColumn)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	quotes := make(map[string]string)

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, oops.Errorf("failed to read row: %w", err)
		}

		quote := Quote{
			ID:   field(row, idIndex),
			Text: field(row, textIndex),
		}

		line, _ := reader.FieldPos(0)
		if err = validate.Struct(quote); err != nil {
			return nil, oops.With("line", line).Errorf("invalid quote: %w", err)
		}

		if _, ok := quotes[quote.ID]; ok {
			slog.Warn("Duplicate quote id, keeping the later one", "id", quote.ID, "line", line)
		}

		quotes[quote.ID] = quote.Text
	}

	return &Store{quotes: quotes}, nil
}

func field(row []string, index int) string {
	if index >= len(row) {
		return ""
	}
	return row[index]
}

// IDs returns every quote id in ascending order.
func (s *Store) IDs() []string {
	return pie.Sort(pie.Keys(s.quotes))
}

func (s *Store) Text(id string) (string, bool) {
	text, ok := s.quotes[id]
	return text, ok
}

func (s *Store) Len() int {
	return len(s.quotes)
}

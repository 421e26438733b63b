package quotes

import (
	"bufio"
	"encoding/csv"
	"io"
	"strings"

	"github.com/samber/oops"
)

// Import turns raw text, one quote per line, into the quotes CSV format.
// Blank lines are skipped. It returns the number of quotes written.
func Import(r io.Reader, w io.Writer, newID func() string) (int, error) {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{idColumn, textColumn}); err != nil {
		return 0, oops.Errorf("failed to write header: %w", err)
	}

	count := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		if err := writer.Write([]string{newID(), text}); err != nil {
			return count, oops.Errorf("failed to write quote: %w", err)
		}
		count++
	}

	if err := scanner.Err(); err != nil {
		return count, oops.Errorf("failed to read raw quotes: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return count, oops.Errorf("failed to flush quotes: %w", err)
	}

	return count, nil
}

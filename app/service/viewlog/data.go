package viewlog

import (
	"os"
	"time"
)

var header = []string{"user_id", "quote_id", "viewed_at"}

// timeLayout writes offsets as +00:00 rather than Z, matching files produced
// by Python's datetime.isoformat.
const timeLayout = "2006-01-02T15:04:05.999999-07:00"

const defaultFileMode os.FileMode = 0o644

// Record notes that a user was served a quote.
type Record struct {
	UserID   string
	QuoteID  string
	ViewedAt time.Time
}

package selection

import (
	"time"

	"quotebot/app/service/viewlog"

	"github.com/elliotchance/pie/v2"
)

type Kind int

const (
	Fresh Kind = iota
	Throttled
	Exhausted
)

func (k Kind) String() string {
	switch k {
	case Fresh:
		return "fresh"
	case Throttled:
		return "throttled"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Outcome is the result of Select. QuoteID is set only for Fresh.
type Outcome struct {
	Kind    Kind
	QuoteID string
}

// Rand is satisfied by *math/rand/v2.Rand.
type Rand interface {
	IntN(n int) int
}

type Options struct {
	// Throttle limits a user to one fresh quote per UTC calendar day.
	Throttle bool
	Rand     Rand
}

// Select decides what userID gets at now, given the quote pool and the view
// history. Records of other users in history are ignored.
func Select(userID string, quoteIDs []string, history []viewlog.Record, now time.Time, opts Options) Outcome {
	seen := make(map[string]struct{})
	var (
		lastView time.Time
		hasView  bool
	)

	for _, r := range history {
		if r.UserID != userID {
			continue
		}

		seen[r.QuoteID] = struct{}{}
		if !hasView || r.ViewedAt.After(lastView) {
			lastView = r.ViewedAt
			hasView = true
		}
	}

	if opts.Throttle && hasView && sameDay(lastView, now) {
		return Outcome{Kind: Throttled}
	}

	available := pie.Sort(pie.Filter(pie.Unique(quoteIDs), func(id string) bool {
		_, ok := seen[id]
		return !ok
	}))
	if len(available) == 0 {
		return Outcome{Kind: Exhausted}
	}

	return Outcome{
		Kind:    Fresh,
		QuoteID: available[opts.Rand.IntN(len(available))],
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()

	return ay == by && am == bm && ad == bd
}

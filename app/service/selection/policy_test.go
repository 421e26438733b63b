package selection

import (
	"math/rand/v2"
	"testing"
	"time"

	"quotebot/app/service/viewlog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const user = "42"

var pool = []string{"A", "B"}

func at(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

func view(userID, quoteID, viewedAt string) viewlog.Record {
	return viewlog.Record{UserID: userID, QuoteID: quoteID, ViewedAt: at(viewedAt)}
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

// fixedRand always picks the given index.
type fixedRand int

func (f fixedRand) IntN(int) int { return int(f) }

func TestSelect_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		history  []viewlog.Record
		now      string
		throttle bool
		want     Outcome
		anyOf    []string
	}{
		{
			name:     "empty history gets a fresh quote",
			now:      "2024-01-01T10:00:00Z",
			throttle: true,
			anyOf:    []string{"A", "B"},
		},
		{
			name:     "second request on the same day is throttled",
			history:  []viewlog.Record{view(user, "A", "2024-01-01T08:00:00Z")},
			now:      "2024-01-01T10:00:00Z",
			throttle: true,
			want:     Outcome{Kind: Throttled},
		},
		{
			name:     "next day serves the unseen quote",
			history:  []viewlog.Record{view(user, "A", "2024-01-01T08:00:00Z")},
			now:      "2024-01-02T00:01:00Z",
			throttle: true,
			want:     Outcome{Kind: Fresh, QuoteID: "B"},
		},
		{
			name: "full pool seen is exhausted",
			history: []viewlog.Record{
				view(user, "A", "2024-01-01T08:00:00Z"),
				view(user, "B", "2024-01-02T08:00:00Z"),
			},
			now:      "2024-02-01T08:00:00Z",
			throttle: true,
			want:     Outcome{Kind: Exhausted},
		},
		{
			name: "exhausted even without throttling",
			history: []viewlog.Record{
				view(user, "A", "2024-01-01T08:00:00Z"),
				view(user, "B", "2024-01-01T09:00:00Z"),
			},
			now:  "2024-01-01T10:00:00Z",
			want: Outcome{Kind: Exhausted},
		},
		{
			name: "throttling wins over exhaustion on the same day",
			history: []viewlog.Record{
				view(user, "A", "2024-01-01T08:00:00Z"),
				view(user, "B", "2024-01-02T08:00:00Z"),
			},
			now:      "2024-01-02T09:00:00Z",
			throttle: true,
			want:     Outcome{Kind: Throttled},
		},
		{
			name:    "throttling disabled serves again the same day",
			history: []viewlog.Record{view(user, "A", "2024-01-01T08:00:00Z")},
			now:     "2024-01-01T10:00:00Z",
			want:    Outcome{Kind: Fresh, QuoteID: "B"},
		},
		{
			name:     "other users do not count",
			history:  []viewlog.Record{view("7", "A", "2024-01-01T08:00:00Z"), view("7", "B", "2024-01-01T08:00:00Z")},
			now:      "2024-01-01T10:00:00Z",
			throttle: true,
			anyOf:    []string{"A", "B"},
		},
		{
			name:     "dates compare in UTC",
			history:  []viewlog.Record{view(user, "A", "2024-01-01T23:30:00-02:00")},
			now:      "2024-01-02T00:30:00Z",
			throttle: true,
			want:     Outcome{Kind: Throttled},
		},
		{
			name:     "earlier day in a late local offset is not today",
			history:  []viewlog.Record{view(user, "A", "2024-01-02T01:00:00+03:00")},
			now:      "2024-01-02T10:00:00Z",
			throttle: true,
			want:     Outcome{Kind: Fresh, QuoteID: "B"},
		},
		{
			name: "only the latest view matters",
			history: []viewlog.Record{
				view(user, "A", "2024-01-03T08:00:00Z"),
				view(user, "B", "2024-01-01T08:00:00Z"),
			},
			now:      "2024-01-03T12:00:00Z",
			throttle: true,
			want:     Outcome{Kind: Throttled},
		},
		{
			name:     "view in the future does not throttle",
			history:  []viewlog.Record{view(user, "A", "2024-01-05T08:00:00Z")},
			now:      "2024-01-03T12:00:00Z",
			throttle: true,
			want:     Outcome{Kind: Fresh, QuoteID: "B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(user, pool, tt.history, at(tt.now), Options{
				Throttle: tt.throttle,
				Rand:     newRand(),
			})

			if tt.anyOf != nil {
				require.Equal(t, Fresh, got.Kind)
				assert.Contains(t, tt.anyOf, got.QuoteID)
				return
			}

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelect_NeverRepeats(t *testing.T) {
	ids := []string{"q1", "q2", "q3", "q4", "q5", "q6", "q7", "q8"}
	rng := newRand()
	now := at("2024-01-01T00:00:00Z")

	var history []viewlog.Record
	served := make(map[string]bool)

	for day := 0; day < len(ids); day++ {
		got := Select(user, ids, history, now, Options{Throttle: true, Rand: rng})
		require.Equal(t, Fresh, got.Kind)
		require.False(t, served[got.QuoteID], "quote %s served twice", got.QuoteID)

		served[got.QuoteID] = true
		history = append(history, viewlog.Record{UserID: user, QuoteID: got.QuoteID, ViewedAt: now})

		again := Select(user, ids, history, now.Add(time.Hour), Options{Throttle: true, Rand: rng})
		assert.Equal(t, Throttled, again.Kind)

		now = now.Add(24 * time.Hour)
	}

	for i := 0; i < 5; i++ {
		got := Select(user, ids, history, now, Options{Throttle: true, Rand: rng})
		assert.Equal(t, Exhausted, got.Kind)

		got = Select(user, ids, history, now, Options{Rand: rng})
		assert.Equal(t, Exhausted, got.Kind)

		now = now.Add(24 * time.Hour)
	}
}

func TestSelect_DeterministicWithInjectedRand(t *testing.T) {
	ids := []string{"c", "a", "b"}
	now := at("2024-01-01T10:00:00Z")

	for index, want := range []string{"a", "b", "c"} {
		got := Select(user, ids, nil, now, Options{Rand: fixedRand(index)})
		assert.Equal(t, Outcome{Kind: Fresh, QuoteID: want}, got)
	}
}

func TestSelect_EmptyPool(t *testing.T) {
	got := Select(user, nil, nil, at("2024-01-01T10:00:00Z"), Options{Throttle: true, Rand: newRand()})
	assert.Equal(t, Outcome{Kind: Exhausted}, got)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "fresh", Fresh.String())
	assert.Equal(t, "throttled", Throttled.String())
	assert.Equal(t, "exhausted", Exhausted.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

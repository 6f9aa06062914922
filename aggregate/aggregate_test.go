package aggregate

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: decode a JSON source or fail
func mustDecode(t *testing.T, raw string) *Source {
	src, err := DecodeSource(strings.NewReader(raw))
	require.NoError(t, err)
	return src
}

func TestOptimize_PeriodRangeKeepsMostRecent(t *testing.T) {
	src := mustDecode(t, `{
		"persons": {
			"John Smith": {
				"2024": {
					"01": {"Online Requests": {"2024-01-10": 3}},
					"02": {"Online Requests": {"2024-02-12": 5}}
				}
			}
		}
	}`)

	tree, err := Optimize(src, Options{PeriodRange: 1})
	require.NoError(t, err)

	assert.Equal(t, []Period{"2024-02"}, tree.Periods)
	assert.Equal(t, 5, tree.Overall.TotalItems)
	assert.Equal(t, map[Period]map[string]int{"2024-02": {"Online Requests": 5}}, tree.ByMonth)
	assert.NotContains(t, tree.ByFolder["Online Requests"], Period("2024-01"))
}

func TestOptimize_MissingPersons(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	tree, err := Optimize(&Source{}, Options{Logger: logger})
	assert.Nil(t, tree)
	assert.ErrorIs(t, err, ErrInvalidSource)
	assert.Contains(t, buf.String(), "level=WARN")

	tree, err = Optimize(nil, Options{Logger: logger})
	assert.Nil(t, tree)
	assert.ErrorIs(t, err, ErrInvalidSource)
}

func TestDecodeSource_Rejects(t *testing.T) {
	inputs := []string{
		`{}`,
		`{"people": {}}`,
		`not json`,
		`{"persons": {"A": {"2024": {"01": {"F": {"2024-01-02": {"nested": 1}}}}}}}`,
		`{"persons": {"A": {"2024": ["01"]}}}`,
	}

	for _, in := range inputs {
		_, err := DecodeSource(strings.NewReader(in))
		assert.ErrorIs(t, err, ErrInvalidSource, "input %s", in)
	}
}

func TestOptimize_AllViews(t *testing.T) {
	src := mustDecode(t, `{
		"persons": {
			"John Smith": {
				"2025": {
					"1": {
						"Online Requests": {"2025-01-06": 3, "2025-01-07": 2},
						"Hearings": {"2025-01-08": 1}
					}
				}
			},
			"Mary King": {
				"2025": {
					"01": {"Online Requests": {"2025-01-06": 4}},
					"02": {"Hearings": {"2025-02-03": 6}}
				}
			}
		}
	}`)

	tree, err := Optimize(src, Options{MaxItems: 5})
	require.NoError(t, err)

	assert.Equal(t, []Period{"2025-02", "2025-01"}, tree.Periods)
	assert.Equal(t, 5, tree.MaxItems, "max items is passed through")

	assert.Equal(t, map[Period]map[string]int{
		"2025-01": {"Online Requests": 9, "Hearings": 1},
		"2025-02": {"Hearings": 6},
	}, tree.ByMonth)

	assert.Equal(t, map[string]map[Period]map[string]int{
		"John Smith": {"2025-01": {"Online Requests": 5, "Hearings": 1}},
		"Mary King": {
			"2025-01": {"Online Requests": 4},
			"2025-02": {"Hearings": 6},
		},
	}, tree.ByPerson)

	assert.Equal(t, map[string]map[Period]int{
		"Online Requests": {"2025-01": 9},
		"Hearings":        {"2025-01": 1, "2025-02": 6},
	}, tree.ByFolder)

	assert.Equal(t, 16, tree.Overall.TotalItems)
	assert.Equal(t, map[string]int{"Online Requests": 9, "Hearings": 7}, tree.Overall.FolderTotals)
	assert.Equal(t, map[string]int{"John Smith": 6, "Mary King": 10}, tree.Overall.PersonTotals)
}

func TestOptimize_SkipsNonPositiveAndBadValues(t *testing.T) {
	src := mustDecode(t, `{
		"persons": {
			"A": {
				"2025": {
					"03": {
						"Zero": {"2025-03-03": 0},
						"Negative": {"2025-03-03": 2, "2025-03-04": -5},
						"Mixed": {"2025-03-03": null, "2025-03-04": "2", "2025-03-05": "x", "2025-03-06": 1}
					}
				},
				"20x5": {"03": {"Ignored": {"2025-03-03": 9}}},
				"2024": {"13": {"Ignored": {"2024-13-01": 9}}}
			}
		}
	}`)

	tree, err := Optimize(src, Options{})
	require.NoError(t, err)

	assert.Equal(t, []Period{"2025-03"}, tree.Periods)
	assert.Equal(t, map[Period]map[string]int{"2025-03": {"Mixed": 3}}, tree.ByMonth)
	assert.Equal(t, 3, tree.Overall.TotalItems)
}

// TestOptimize_RoundsAndClampsCounts verifies fractional day values are
// rounded after summing and oversized sums are clamped, both with a log
func TestOptimize_RoundsAndClampsCounts(t *testing.T) {
	src := mustDecode(t, `{
		"persons": {
			"A": {
				"2025": {
					"03": {
						"Half": {"2025-03-03": 0.5},
						"Split": {"2025-03-03": 0.5, "2025-03-04": "0.5"},
						"Almost": {"2025-03-03": "2.9"},
						"Huge": {"2025-03-03": 1e300}
					}
				}
			}
		}
	}`)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	tree, err := Optimize(src, Options{Logger: logger})
	require.NoError(t, err)

	assert.Equal(t, map[string]int{
		"Half":   1,
		"Split":  1,
		"Almost": 3,
		"Huge":   maxCount,
	}, tree.ByMonth["2025-03"])
	assert.Contains(t, buf.String(), "non-integral count")
	assert.Contains(t, buf.String(), "folder=Almost")
	assert.Contains(t, buf.String(), "count too large, clamped")
}

func TestOptimize_DefaultPeriodRange(t *testing.T) {
	src := &Source{}
	for m := 1; m <= 12; m++ {
		src.Add("A", "F", 2024, m, "2024-01-01", 1)
		src.Add("A", "F", 2025, m, "2025-01-01", 1)
	}

	tree, err := Optimize(src, Options{})
	require.NoError(t, err)

	require.Len(t, tree.Periods, DefaultPeriodRange)
	assert.Equal(t, Period("2025-12"), tree.Periods[0])
	assert.Equal(t, Period("2025-01"), tree.Periods[11])
	assert.Equal(t, 12, tree.Overall.TotalItems)
}

func TestOptimize_RecomputesEachCall(t *testing.T) {
	src := &Source{}
	src.Add("A", "F", 2025, 1, "2025-01-06", 2)

	first, err := Optimize(src, Options{})
	require.NoError(t, err)

	src.Add("A", "F", 2025, 1, "2025-01-07", 3)
	second, err := Optimize(src, Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, first.Overall.TotalItems, "earlier trees are not touched")
	assert.Equal(t, 5, second.Overall.TotalItems)
}

func TestSource_Add(t *testing.T) {
	src := &Source{}
	src.Add("A", "F", 2025, 1, "2025-01-06", 2)
	src.Add("A", "F", 2025, 1, "2025-01-06", 1)

	assert.Equal(t, Count(3), src.Persons["A"]["2025"]["01"]["F"]["2025-01-06"])
}

func TestTree_JSON(t *testing.T) {
	src := &Source{}
	src.Add("A", "F", 2025, 1, "2025-01-06", 2)
	tree, err := Optimize(src, Options{})
	require.NoError(t, err)

	data, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"totalItems":2`)
	assert.Contains(t, string(data), `"byMonth":{"2025-01":{"F":2}}`)
}

func TestTree_Top(t *testing.T) {
	tree := &Tree{Overall: Overall{
		FolderTotals: map[string]int{"B": 5, "A": 5, "C": 9, "D": 1},
		PersonTotals: map[string]int{"X": 1},
	}}

	assert.Equal(t, []Ranked{{"C", 9}, {"A", 5}, {"B", 5}}, tree.TopFolders(3))
	assert.Len(t, tree.TopFolders(0), 4)
	assert.Equal(t, []Ranked{{"X", 1}}, tree.TopPeople(10))
}

func TestPeriod(t *testing.T) {
	p, err := NewPeriod(2025, 3)
	require.NoError(t, err)
	assert.Equal(t, "2025-03", p.String())

	p, err = ParsePeriod("2025-3")
	require.NoError(t, err)
	assert.Equal(t, Period("2025-03"), p)

	_, err = NewPeriod(2025, 13)
	assert.Error(t, err)
	_, err = ParsePeriod("202503")
	assert.Error(t, err)

	// zero padding keeps string order chronological
	a, _ := NewPeriod(2024, 9)
	b, _ := NewPeriod(2024, 10)
	assert.Less(t, string(a), string(b))
}

// Released under an MIT license. See LICENSE.

// Package wordcount accumulates word counts from concurrent workers.
package wordcount

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/michaelmacinnis/jobsh/internal/system/logger"
	"go.trai.ch/zerr"
)

var (
	// ErrCount is returned when a partial count is not positive.
	ErrCount = zerr.New("count must be positive")

	// ErrEmptyWord is returned when asked to count the empty string.
	ErrEmptyWord = zerr.New("empty word")

	// ErrMalformed describes a line that is not a count and a word.
	ErrMalformed = zerr.New("ill-formed count")
)

// Entry is a word and the number of times it was seen.
type Entry struct {
	Word  string
	Count int
}

// LessCount orders entries by ascending count, then by word.
func LessCount(a, b Entry) bool {
	if a.Count != b.Count {
		return a.Count < b.Count
	}

	return a.Word < b.Word
}

// LessWord orders entries by word.
func LessWord(a, b Entry) bool {
	return a.Word < b.Word
}

// Table maps each distinct word to a count of at least one. It is safe for
// concurrent use.
type Table struct {
	counts map[string]int
	mu     sync.Mutex
}

// New returns an empty Table.
func New() *Table {
	return &Table{counts: map[string]int{}}
}

// Add inserts word with count n, or adds n to its existing count.
func (t *Table) Add(word string, n int) (Entry, error) {
	if word == "" {
		return Entry{}, ErrEmptyWord
	}

	if n < 1 {
		return Entry{}, zerr.With(zerr.Wrap(ErrCount, word), "count", n)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.counts[word] += n

	return Entry{Word: word, Count: t.counts[word]}, nil
}

// Count returns the count for word, or zero if it was never seen.
func (t *Table) Count(word string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.counts[word]
}

// Fprint writes the entries ordered by less as "%8d\t%s\n" lines.
func (t *Table) Fprint(w io.Writer, less func(a, b Entry) bool) error {
	bw := bufio.NewWriter(w)

	for _, e := range t.Sorted(less) {
		_, err := fmt.Fprintf(bw, "%8d\t%s\n", e.Count, e.Word)
		if err != nil {
			return zerr.Wrap(err, "write counts")
		}
	}

	err := bw.Flush()
	if err != nil {
		return zerr.Wrap(err, "write counts")
	}

	return nil
}

// InsertOrIncrement adds one to the count for word.
func (t *Table) InsertOrIncrement(word string) (Entry, error) {
	return t.Add(word, 1)
}

// Len is the number of distinct words.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.counts)
}

// Merge adds every entry of local to t. Other merges into t never
// interleave with this one.
func (t *Table) Merge(local *Table) {
	entries := local.Sorted(nil)

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range entries {
		t.counts[e.Word] += e.Count
	}
}

// ReadCounts adds the counts written by Fprint to t. Ill-formed lines are
// logged and skipped.
func (t *Table) ReadCounts(r io.Reader, log *logger.Logger) error {
	br := bufio.NewReader(r)

	for n := 1; ; n++ {
		line, err := br.ReadString('\n')
		if errors.Is(err, io.EOF) && line == "" {
			return nil
		} else if err != nil && !errors.Is(err, io.EOF) {
			return zerr.With(zerr.Wrap(err, "could not read counts"), "line", n)
		}

		count, word, perr := parse(strings.TrimSuffix(line, "\n"))
		if perr == nil {
			_, perr = t.Add(word, count)
		}

		if perr != nil {
			log.Error(zerr.With(perr, "line", n))
		}

		if err != nil {
			return nil
		}
	}
}

// Sorted returns a snapshot of the entries ordered by less. A nil less
// orders by word.
func (t *Table) Sorted(less func(a, b Entry) bool) []Entry {
	if less == nil {
		less = LessWord
	}

	t.mu.Lock()

	entries := make([]Entry, 0, len(t.counts))
	for word, count := range t.counts {
		entries = append(entries, Entry{Word: word, Count: count})
	}

	t.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		return less(entries[i], entries[j])
	})

	return entries
}

func parse(line string) (int, string, error) {
	field, word, found := strings.Cut(line, "\t")
	if !found || word == "" || strings.ContainsAny(word, " \t") {
		return 0, "", zerr.With(zerr.Wrap(ErrMalformed, "want count and word"), "text", line)
	}

	count, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return 0, "", zerr.With(zerr.Wrap(ErrMalformed, err.Error()), "text", line)
	}

	return count, word, nil
}

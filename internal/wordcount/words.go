// Released under an MIT license. See LICENSE.

package wordcount

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"unicode"

	"go.trai.ch/zerr"
)

// MinLength is the length of the shortest run of letters counted as a word.
const MinLength = 2

// CountWords adds every word read from r to t. A word is a maximal run of
// letters, lower-cased.
func CountWords(r io.Reader, t *Table) error {
	br := bufio.NewReader(r)

	var sb strings.Builder

	flush := func() {
		if sb.Len() >= MinLength {
			_, _ = t.InsertOrIncrement(sb.String())
		}

		sb.Reset()
	}

	for {
		c, _, err := br.ReadRune()
		if errors.Is(err, io.EOF) {
			flush()

			return nil
		} else if err != nil {
			return zerr.Wrap(err, "could not read words")
		}

		if unicode.IsLetter(c) {
			sb.WriteRune(unicode.ToLower(c))
		} else {
			flush()
		}
	}
}

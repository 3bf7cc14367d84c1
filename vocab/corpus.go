package vocab

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ForrestTrepte/SoCloverAI/types"
)

// StaticCorpus is an in-memory corpus.
type StaticCorpus []types.CorpusWord

// Words returns the corpus tokens.
func (c StaticCorpus) Words(ctx context.Context) ([]types.CorpusWord, error) {
	return c, nil
}

// CountsFile is a corpus read from a text file of "word count" lines.
// Blank lines and lines starting with '#' are skipped.
type CountsFile string

// Words reads the file.
func (f CountsFile) Words(ctx context.Context) ([]types.CorpusWord, error) {
	file, err := os.Open(string(f))
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer file.Close()

	var words []types.CorpusWord
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%s:%d: expected \"word count\", got %q", f, line, text)
		}
		count, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: invalid count: %w", f, line, err)
		}
		words = append(words, types.CorpusWord{Word: fields[0], Count: count})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	return words, nil
}

package parser

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// CategoryFile is the conventional name of a corpus category map.
const CategoryFile = "Map.txt"

// Categories reads "id -> name" lines into a lookup table. Blank lines are skipped.
func Categories(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	out := make(map[string]string)
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		id, name, ok := strings.Cut(line, "->")
		if !ok {
			return nil, fmt.Errorf("%s:%d: expected \"id -> name\"", path, lineNo)
		}
		out[strings.TrimSpace(id)] = strings.TrimSpace(name)
	}
	return out, sc.Err()
}

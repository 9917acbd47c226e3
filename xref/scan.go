package xref

import (
	"bytes"
	"context"
	"regexp"
	"strconv"
)

var objHeaderRe = regexp.MustCompile(`^(\d+) (\d+) obj$`)

// Scan walks the file line by line and records where each "<num> <gen> obj"
// header starts. It ignores the xref table, so its result can be compared
// against what the table claims.
func Scan(ctx context.Context, data []byte) (map[int]int64, error) {
	found := make(map[int]int64)
	var pos int64
	for len(data) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := data
		next := len(data)
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line = data[:i]
			next = i + 1
		}
		if m := objHeaderRe.FindSubmatch(line); m != nil {
			num, err := strconv.Atoi(string(m[1]))
			if err == nil {
				found[num] = pos
			}
		}
		pos += int64(next)
		data = data[next:]
	}
	return found, nil
}

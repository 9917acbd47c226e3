package xref

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/nexgen-studio/growthkit/ir/raw"
)

// Table holds object offsets for a classic xref table and the trailer
// entries needed to open the document.
type Table interface {
	Lookup(objNum int) (offset int64, gen int, found bool)
	Objects() []int
	// Size is the /Size trailer entry.
	Size() int
	// Entries is the number of rows in the table, free entries included.
	Entries() int
	Root() raw.ObjectRef
	Offset() int64
}

// Resolver locates and parses xref information in a PDF.
type Resolver interface {
	Resolve(ctx context.Context, r io.ReaderAt) (Table, error)
}

// NewResolver returns a classic-table resolver. Cross-reference streams
// are not supported.
func NewResolver() Resolver {
	return &tableResolver{}
}

type tableResolver struct{}

var (
	sizeRe = regexp.MustCompile(`/Size\s+(\d+)`)
	rootRe = regexp.MustCompile(`/Root\s+(\d+)\s+(\d+)\s+R`)
)

func (t *tableResolver) Resolve(ctx context.Context, r io.ReaderAt) (Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data := readAll(r)

	offset, err := startXRef(data)
	if err != nil {
		return nil, err
	}
	sc := bufio.NewScanner(bytes.NewReader(data[offset:]))
	if !sc.Scan() || strings.TrimSpace(sc.Text()) != "xref" {
		return nil, goerr.New("xref keyword not found at offset", goerr.V("offset", offset))
	}

	tbl := &table{entries: make(map[int]entry), offset: offset}
	trailer, err := tbl.parseRows(sc)
	if err != nil {
		return nil, err
	}
	if err := tbl.parseTrailer(trailer); err != nil {
		return nil, err
	}
	return tbl, nil
}

// startXRef reads the offset that follows the last startxref keyword.
func startXRef(data []byte) (int64, error) {
	at := bytes.LastIndex(data, []byte("startxref"))
	if at < 0 {
		return 0, goerr.New("startxref not found")
	}
	fields := bytes.Fields(data[at+len("startxref"):])
	if len(fields) == 0 {
		return 0, goerr.New("startxref has no offset")
	}
	offset, err := strconv.ParseInt(string(fields[0]), 10, 64)
	if err != nil {
		return 0, goerr.Wrap(err, "parse startxref")
	}
	if offset <= 0 || offset >= int64(len(data)) {
		return 0, goerr.New("xref offset out of range", goerr.V("offset", offset))
	}
	return offset, nil
}

// parseRows consumes subsections until the trailer keyword and returns the
// trailer text up to startxref.
func (t *table) parseRows(sc *bufio.Scanner) (string, error) {
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "trailer") {
			var trailer strings.Builder
			trailer.WriteString(strings.TrimPrefix(line, "trailer"))
			for sc.Scan() {
				next := strings.TrimSpace(sc.Text())
				if next == "startxref" {
					break
				}
				trailer.WriteByte(' ')
				trailer.WriteString(next)
			}
			return trailer.String(), nil
		}

		var first, count int
		if _, err := fmt.Sscanf(line, "%d %d", &first, &count); err != nil {
			return "", goerr.Wrap(err, "invalid xref subsection header", goerr.V("line", line))
		}
		for i := 0; i < count; i++ {
			if !sc.Scan() {
				return "", goerr.New("unexpected end of xref section", goerr.V("first", first), goerr.V("count", count))
			}
			var (
				off  int64
				gen  int
				kind string
			)
			row := sc.Text()
			if _, err := fmt.Sscanf(row, "%d %d %s", &off, &gen, &kind); err != nil {
				return "", goerr.Wrap(err, "invalid xref entry", goerr.V("row", row))
			}
			t.rows++
			if kind == "n" {
				t.entries[first+i] = entry{offset: off, gen: gen}
			}
		}
	}
	return "", goerr.New("trailer not found")
}

func (t *table) parseTrailer(dict string) error {
	if m := sizeRe.FindStringSubmatch(dict); m != nil {
		t.size, _ = strconv.Atoi(m[1])
	}
	if m := rootRe.FindStringSubmatch(dict); m != nil {
		num, _ := strconv.Atoi(m[1])
		gen, _ := strconv.Atoi(m[2])
		t.root = raw.ObjectRef{Num: num, Gen: gen}
	}
	if t.size == 0 || t.root.Num == 0 {
		return goerr.New("trailer is missing /Size or /Root", goerr.V("trailer", dict))
	}
	return nil
}

type entry struct {
	offset int64
	gen    int
}

type table struct {
	entries map[int]entry
	rows    int
	size    int
	root    raw.ObjectRef
	offset  int64
}

func (t *table) Lookup(objNum int) (int64, int, bool) {
	e, ok := t.entries[objNum]
	if !ok {
		return 0, 0, false
	}
	return e.offset, e.gen, true
}

func (t *table) Objects() []int {
	out := make([]int, 0, len(t.entries))
	for k := range t.entries {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func (t *table) Size() int           { return t.size }
func (t *table) Entries() int        { return t.rows }
func (t *table) Root() raw.ObjectRef { return t.root }
func (t *table) Offset() int64       { return t.offset }

func readAll(r io.ReaderAt) []byte {
	var buf bytes.Buffer
	const chunk = int64(32 * 1024)
	for off := int64(0); ; off += chunk {
		tmp := make([]byte, chunk)
		n, err := r.ReadAt(tmp, off)
		if n > 0 {
			buf.Write(tmp[:n])
		}
		if err != nil {
			break
		}
		if int64(n) < chunk {
			break
		}
	}
	return buf.Bytes()
}

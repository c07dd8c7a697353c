package pdf

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var ErrMalformedOutput = errors.New("malformed PDF output")

// pinnedDate replaces the write time stamped into the info dict.
var pinnedDate = types.DateString(time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC))

var (
	objHeaderRe  = regexp.MustCompile(`^(\d+)\s+(\d+)\s+obj\s`)
	trailerRefRe = regexp.MustCompile(`/(Root|Info)\s+(\d+)\s+\d+\s+R`)
	infoDateRe   = regexp.MustCompile(`/(CreationDate|ModDate)\s*\((?:[^()\\]|\\.)*\)`)
)

// canonicalize rewrites a PDF that has a plain xref table so that the same
// document always comes out as the same bytes. pdfcpu numbers and places
// objects in map iteration order; here they are renumbered in the order a
// walk from the trailer reaches them and written in that order. The info
// dict dates are pinned and the file ID becomes the MD5 of the new body.
func canonicalize(b []byte) ([]byte, error) {
	xrefOff, err := startXRef(b)
	if err != nil {
		return nil, err
	}
	offsets, trailerOff, err := xrefOffsets(b, xrefOff)
	if err != nil {
		return nil, err
	}
	if len(offsets) == 0 {
		return nil, fmt.Errorf("%w: no objects", ErrMalformedOutput)
	}

	bodies, headerEnd, err := objectBodies(b, offsets, xrefOff)
	if err != nil {
		return nil, err
	}

	var root, info int
	for _, m := range trailerRefRe.FindAllSubmatch(b[trailerOff:], -1) {
		nr, _ := strconv.Atoi(string(m[2]))
		switch string(m[1]) {
		case "Root":
			root = nr
		case "Info":
			info = nr
		}
	}
	if _, ok := bodies[root]; !ok {
		return nil, fmt.Errorf("%w: trailer has no root", ErrMalformedOutput)
	}

	renumbered := map[int]int{}
	var order []int
	ref := func(nr int) int {
		if n, ok := renumbered[nr]; ok {
			return n
		}
		if _, ok := bodies[nr]; !ok {
			return 0
		}
		order = append(order, nr)
		renumbered[nr] = len(order)
		return len(order)
	}
	ref(root)
	if info > 0 {
		ref(info)
	}

	var out bytes.Buffer
	out.Write(b[:headerEnd])
	newOffsets := make([]int, 0, len(bodies))
	for i := 0; i < len(order); i++ {
		nr := order[i]
		body := rewriteRefs(bodies[nr], ref)
		if nr == info {
			body = infoDateRe.ReplaceAll(body, []byte("/$1 ("+pinnedDate+")"))
		}
		newOffsets = append(newOffsets, out.Len())
		fmt.Fprintf(&out, "%d 0 obj\n", i+1)
		out.Write(body)
		out.WriteString("endobj\n")
	}

	sum := md5.Sum(out.Bytes())
	id := types.HexLiteral(hex.EncodeToString(sum[:]))

	xref := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n", len(order)+1)
	out.WriteString("0000000000 65535 f \n")
	for _, off := range newOffsets {
		fmt.Fprintf(&out, "%010d 00000 n \n", off)
	}

	trailer := types.Dict{
		"Size": types.Integer(len(order) + 1),
		"Root": *types.NewIndirectRef(1, 0),
		"ID":   types.Array{id, id},
	}
	if n, ok := renumbered[info]; ok && info > 0 {
		trailer["Info"] = *types.NewIndirectRef(n, 0)
	}
	fmt.Fprintf(&out, "trailer\n%s\nstartxref\n%d\n%%%%EOF\n", trailer.PDFString(), xref)
	return out.Bytes(), nil
}

func startXRef(b []byte) (int, error) {
	i := bytes.LastIndex(b, []byte("startxref"))
	if i < 0 {
		return 0, fmt.Errorf("%w: missing startxref", ErrMalformedOutput)
	}
	fields := bytes.Fields(b[i+len("startxref"):])
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: missing xref offset", ErrMalformedOutput)
	}
	off, err := strconv.Atoi(string(fields[0]))
	if err != nil || off < 0 || off >= len(b) {
		return 0, fmt.Errorf("%w: bad xref offset %q", ErrMalformedOutput, fields[0])
	}
	return off, nil
}

// xrefOffsets reads the in-use entries of a plain xref table. Entries with
// offset 0 belong to objects the writer skipped.
func xrefOffsets(b []byte, xrefOff int) (map[int]int, int, error) {
	p := xrefOff
	line, p := nextLine(b, p)
	if string(line) != "xref" {
		return nil, 0, fmt.Errorf("%w: no xref table at %d", ErrMalformedOutput, xrefOff)
	}

	offsets := map[int]int{}
	for p < len(b) {
		start := p
		line, p = nextLine(b, p)
		if bytes.HasPrefix(line, []byte("trailer")) {
			return offsets, start, nil
		}
		fields := bytes.Fields(line)
		if len(fields) != 2 {
			return nil, 0, fmt.Errorf("%w: bad xref subsection %q", ErrMalformedOutput, line)
		}
		first, err1 := strconv.Atoi(string(fields[0]))
		count, err2 := strconv.Atoi(string(fields[1]))
		if err1 != nil || err2 != nil {
			return nil, 0, fmt.Errorf("%w: bad xref subsection %q", ErrMalformedOutput, line)
		}
		for i := 0; i < count; i++ {
			if p+20 > len(b) {
				return nil, 0, fmt.Errorf("%w: truncated xref table", ErrMalformedOutput)
			}
			entry := b[p : p+20]
			p += 20
			if entry[17] != 'n' {
				continue
			}
			off, err := strconv.Atoi(string(entry[:10]))
			if err != nil {
				return nil, 0, fmt.Errorf("%w: bad xref entry %q", ErrMalformedOutput, entry)
			}
			if off > 0 {
				offsets[first+i] = off
			}
		}
	}
	return nil, 0, fmt.Errorf("%w: missing trailer", ErrMalformedOutput)
}

func nextLine(b []byte, p int) ([]byte, int) {
	end := p
	for end < len(b) && b[end] != '\n' && b[end] != '\r' {
		end++
	}
	line := bytes.TrimSpace(b[p:end])
	for end < len(b) && (b[end] == '\n' || b[end] == '\r') {
		end++
	}
	return line, end
}

// objectBodies slices every object out of the file, keyed by object number.
// A body runs from after "N G obj" up to its "endobj".
func objectBodies(b []byte, offsets map[int]int, xrefOff int) (map[int][]byte, int, error) {
	type span struct{ nr, off int }
	spans := make([]span, 0, len(offsets))
	for nr, off := range offsets {
		spans = append(spans, span{nr, off})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].off < spans[j].off })

	bodies := make(map[int][]byte, len(spans))
	for i, s := range spans {
		end := xrefOff
		if i+1 < len(spans) {
			end = spans[i+1].off
		}
		if s.off >= end || end > len(b) {
			return nil, 0, fmt.Errorf("%w: object %d out of place", ErrMalformedOutput, s.nr)
		}
		obj := b[s.off:end]
		m := objHeaderRe.FindSubmatchIndex(obj)
		if m == nil {
			return nil, 0, fmt.Errorf("%w: object %d has no header", ErrMalformedOutput, s.nr)
		}
		if nr, _ := strconv.Atoi(string(obj[m[2]:m[3]])); nr != s.nr {
			return nil, 0, fmt.Errorf("%w: object %d found at the offset of %d", ErrMalformedOutput, nr, s.nr)
		}
		stop := bytes.LastIndex(obj, []byte("endobj"))
		if stop < m[1] {
			return nil, 0, fmt.Errorf("%w: object %d is not terminated", ErrMalformedOutput, s.nr)
		}
		bodies[s.nr] = obj[m[1]:stop]
	}
	return bodies, spans[0].off, nil
}

// rewriteRefs replaces every "N G R" in an object body with the number ref
// returns for N, or null when ref returns 0. Strings, names and stream data
// are copied untouched.
func rewriteRefs(body []byte, ref func(int) int) []byte {
	var out bytes.Buffer
	for i := 0; i < len(body); {
		c := body[i]
		switch {
		case c == '(':
			j := skipLiteral(body, i)
			out.Write(body[i:j])
			i = j
		case c == '<' && i+1 < len(body) && body[i+1] == '<':
			out.WriteString("<<")
			i += 2
		case c == '<':
			j := bytes.IndexByte(body[i:], '>')
			if j < 0 {
				j = len(body) - i - 1
			}
			out.Write(body[i : i+j+1])
			i += j + 1
		case c == '/':
			j := tokenEnd(body, i+1)
			out.Write(body[i:j])
			i = j
		case isDelimiter(c):
			out.WriteByte(c)
			i++
		default:
			if nr, end, ok := matchRef(body, i); ok {
				if n := ref(nr); n > 0 {
					fmt.Fprintf(&out, "%d 0 R", n)
				} else {
					out.WriteString("null")
				}
				i = end
				continue
			}
			j := tokenEnd(body, i)
			if string(body[i:j]) == "stream" {
				out.Write(body[i:])
				return out.Bytes()
			}
			out.Write(body[i:j])
			i = j
		}
	}
	return out.Bytes()
}

// matchRef matches "N G R" at i.
func matchRef(b []byte, i int) (nr, end int, ok bool) {
	nrEnd := digitsEnd(b, i)
	if nrEnd == i || nrEnd >= len(b) || !isSpace(b[nrEnd]) {
		return 0, 0, false
	}
	p := skipSpace(b, nrEnd)
	genEnd := digitsEnd(b, p)
	if genEnd == p || genEnd >= len(b) || !isSpace(b[genEnd]) {
		return 0, 0, false
	}
	p = skipSpace(b, genEnd)
	if p >= len(b) || b[p] != 'R' || (p+1 < len(b) && !isDelimiter(b[p+1])) {
		return 0, 0, false
	}
	nr, err := strconv.Atoi(string(b[i:nrEnd]))
	if err != nil {
		return 0, 0, false
	}
	return nr, p + 1, true
}

func skipLiteral(b []byte, i int) int {
	depth := 0
	for j := i; j < len(b); j++ {
		switch b[j] {
		case '\\':
			j++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return j + 1
			}
		}
	}
	return len(b)
}

func tokenEnd(b []byte, i int) int {
	for i < len(b) && !isDelimiter(b[i]) {
		i++
	}
	return i
}

func digitsEnd(b []byte, i int) int {
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		i++
	}
	return i
}

func skipSpace(b []byte, i int) int {
	for i < len(b) && isSpace(b[i]) {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', 0:
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return isSpace(c)
}

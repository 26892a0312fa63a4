// Package index builds and locates CSI indexes for BGZF-compressed VCF files.
package index

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/csi"
)

// Tabix metadata stored in the CSI auxiliary field, as htslib does for
// indexed VCF.
const (
	formatVCF = 2
	colSeq    = 1
	colBeg    = 2
	colEnd    = 0
	metaChar  = '#'
)

// Suffix is the file suffix of indexes written by Build.
const Suffix = ".csi"

// ErrUnsorted is returned when records are not grouped by chromosome and
// sorted by position.
var ErrUnsorted = errors.New("records are not sorted by chromosome and position")

// Index is a CSI index over one VCF file together with the chromosome
// names its reference IDs stand for.
type Index struct {
	Names []string

	csi *csi.Index
	ids map[string]int
}

// record adapts one VCF data line to csi.Record.
type record struct {
	rid      int
	beg, end int
}

func (r record) RefID() int { return r.rid }
func (r record) Start() int { return r.beg }
func (r record) End() int   { return r.end }

// Build reads the BGZF-compressed VCF at path and writes path+".csi".
func Build(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	idx, err := Scan(f)
	if err != nil {
		return "", fmt.Errorf("index %s: %w", path, err)
	}

	out := path + Suffix
	if err := idx.WriteFile(out); err != nil {
		return "", err
	}
	return out, nil
}

// Scan reads a BGZF VCF stream and builds its index.
func Scan(r io.Reader) (*Index, error) {
	br, err := bgzf.NewReader(r, 1)
	if err != nil {
		return nil, fmt.Errorf("open bgzf stream: %w", err)
	}
	defer br.Close()

	// CSI v1 is the version htslib reads.
	idx := &Index{csi: csi.New(csi.DefaultShift, csi.DefaultDepth), ids: make(map[string]int)}
	idx.csi.Version = 0x1

	lastRid, lastBeg := -1, 0
	for {
		line, chunk, err := readLine(br)
		if len(line) > 0 && line[0] != metaChar {
			rec, chrom, addErr := idx.parse(line)
			if addErr != nil {
				return nil, addErr
			}
			if rec.rid == lastRid && rec.beg < lastBeg {
				return nil, fmt.Errorf("%w: %s:%d after %s:%d", ErrUnsorted, chrom, rec.beg+1, chrom, lastBeg+1)
			}
			lastRid, lastBeg = rec.rid, rec.beg
			if addErr := idx.csi.Add(rec, chunk, true, true); addErr != nil {
				return nil, fmt.Errorf("%s:%d: %w", chrom, rec.beg+1, addErr)
			}
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("read line: %w", err)
		}
	}
	idx.csi.Auxilliary = idx.aux()
	return idx, nil
}

// parse maps a data line to its reference ID and zero-based half-open span.
// A chromosome seen before that is not the current one is an error.
func (idx *Index) parse(line []byte) (record, string, error) {
	fields := strings.SplitN(string(line), "\t", 5)
	if len(fields) < 4 {
		return record{}, "", fmt.Errorf("expected at least 4 columns, found %d", len(fields))
	}
	chrom := fields[0]
	pos, err := strconv.Atoi(fields[1])
	if err != nil || pos < 1 {
		return record{}, "", fmt.Errorf("invalid position %q", fields[1])
	}

	rid, ok := idx.ids[chrom]
	switch {
	case !ok:
		rid = len(idx.Names)
		idx.ids[chrom] = rid
		idx.Names = append(idx.Names, chrom)
	case rid != len(idx.Names)-1:
		return record{}, "", fmt.Errorf("%w: %s reappears", ErrUnsorted, chrom)
	}

	beg := pos - 1
	return record{rid: rid, beg: beg, end: beg + max(len(fields[3]), 1)}, chrom, nil
}

// readLine reads one line and reports the virtual offset span it occupies.
func readLine(r *bgzf.Reader) ([]byte, bgzf.Chunk, error) {
	tx := r.Begin()
	var (
		data []byte
		b    byte
		err  error
	)
	for {
		b, err = r.ReadByte()
		if err != nil {
			break
		}
		data = append(data, b)
		if b == '\n' {
			break
		}
	}
	chunk := tx.End()
	return bytes.TrimRight(data, "\r\n"), chunk, err
}

// aux encodes the tabix configuration followed by the NUL-terminated
// chromosome names.
func (idx *Index) aux() []byte {
	var names bytes.Buffer
	for _, n := range idx.Names {
		names.WriteString(n)
		names.WriteByte(0)
	}

	var buf bytes.Buffer
	for _, v := range []int32{formatVCF, colSeq, colBeg, colEnd, metaChar, 0, int32(names.Len())} {
		binary.Write(&buf, binary.LittleEndian, v)
	}
	buf.Write(names.Bytes())
	return buf.Bytes()
}

// parseAux restores Names from the auxiliary field written by aux or htslib.
func (idx *Index) parseAux(data []byte) error {
	var conf [7]int32
	r := bytes.NewReader(data)
	if err := binary.Read(r, binary.LittleEndian, &conf); err != nil {
		return fmt.Errorf("read tabix metadata: %w", err)
	}
	if conf[0]&0xffff != formatVCF {
		return fmt.Errorf("index format %d is not VCF", conf[0]&0xffff)
	}
	nameLen := int(conf[6])
	if nameLen < 0 || nameLen > r.Len() {
		return fmt.Errorf("corrupt tabix metadata: %d name bytes", nameLen)
	}
	names := data[len(data)-r.Len():][:nameLen]

	idx.ids = make(map[string]int)
	idx.Names = nil
	for _, n := range bytes.Split(bytes.TrimRight(names, "\x00"), []byte{0}) {
		if len(n) == 0 {
			continue
		}
		idx.ids[string(n)] = len(idx.Names)
		idx.Names = append(idx.Names, string(n))
	}
	return nil
}

// Chunks returns the BGZF chunks that may hold records of chrom
// overlapping the zero-based half-open interval [beg, end).
func (idx *Index) Chunks(chrom string, beg, end int) []bgzf.Chunk {
	rid, ok := idx.ids[chrom]
	if !ok {
		return nil
	}
	return idx.csi.Chunks(rid, beg, end)
}

// WriteFile writes the index BGZF-compressed to path.
func (idx *Index) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	bw := bgzf.NewWriter(f, 1)
	if err := csi.WriteTo(bw, idx.csi); err != nil {
		bw.Close()
		f.Close()
		return fmt.Errorf("write index: %w", err)
	}
	if err := bw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("close index stream: %w", err)
	}
	return f.Close()
}

// ReadFile loads a CSI index written by WriteFile or by htslib.
func ReadFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer f.Close()

	br, err := bgzf.NewReader(f, 1)
	if err != nil {
		return nil, fmt.Errorf("open bgzf index: %w", err)
	}
	defer br.Close()

	c, err := csi.ReadFrom(br)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	idx := &Index{csi: c}
	if err := idx.parseAux(c.Auxilliary); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return idx, nil
}

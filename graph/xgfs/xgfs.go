package xgfs

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/versego/blobstore"
	"github.com/hupe1980/versego/graph"
)

// Magic is the 4-byte file signature.
const Magic = "XGFS"

const headerSize = 4 + 8 + 8

// ErrBadMagic is returned when a blob does not start with Magic.
var ErrBadMagic = errors.New("xgfs: bad magic")

// Write encodes g to w. weights may be nil; when non-nil it must have one entry per edge.
func Write(w io.Writer, g *graph.CSR, weights []float32) error {
	n, e := g.NumNodes(), g.NumEdges()
	if weights != nil && len(weights) != e {
		return fmt.Errorf("xgfs: %d weights for %d edges", len(weights), e)
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(Magic); err != nil {
		return err
	}

	var hdr [16]byte
	binary.LittleEndian.PutUint64(hdr[0:], uint64(n))
	binary.LittleEndian.PutUint64(hdr[8:], uint64(e))
	if _, err := bw.Write(hdr[:]); err != nil {
		return err
	}

	if err := writeInt32s(bw, g.Offsets()[:n]); err != nil {
		return err
	}
	if err := writeInt32s(bw, g.Edges()); err != nil {
		return err
	}

	if hasWeights(weights) {
		var buf [4]byte
		for _, v := range weights {
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
			if _, err := bw.Write(buf[:]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func hasWeights(weights []float32) bool {
	for _, w := range weights {
		if w != 1 {
			return true
		}
	}
	return false
}

func writeInt32s(w *bufio.Writer, vs []int32) error {
	var buf [4]byte
	for _, v := range vs {
		binary.LittleEndian.PutUint32(buf[:], uint32(v))
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}

// Read decodes an XGFS blob and validates the resulting graph. The returned
// weights are nil when the blob carries none.
func Read(ctx context.Context, b blobstore.Blob) (*graph.CSR, []float32, error) {
	if m, ok := b.(blobstore.Mappable); ok {
		if data, err := m.Bytes(); err == nil && int64(len(data)) == b.Size() {
			return Decode(data)
		}
	}
	return ReadFrom(bufio.NewReaderSize(blobstore.NewReader(ctx, b), 1<<20), b.Size())
}

// Decode parses an in-memory XGFS image. The returned slices never alias data.
func Decode(data []byte) (*graph.CSR, []float32, error) {
	n, e, err := parseHeader(data)
	if err != nil {
		return nil, nil, err
	}

	size := int64(len(data))
	if err := checkSize(size, n, e); err != nil {
		return nil, nil, err
	}

	p := data[headerSize:]
	offsets := make([]int32, n+1)
	for i := range n {
		offsets[i] = int32(binary.LittleEndian.Uint32(p[4*i:]))
	}
	offsets[n] = int32(e)
	p = p[4*n:]

	edges := make([]int32, e)
	for i := range e {
		edges[i] = int32(binary.LittleEndian.Uint32(p[4*i:]))
	}
	p = p[4*e:]

	var weights []float32
	if len(p) > 0 {
		weights = make([]float32, e)
		for i := range e {
			weights[i] = math.Float32frombits(binary.LittleEndian.Uint32(p[4*i:]))
		}
	}

	g, err := graph.New(offsets, edges)
	if err != nil {
		return nil, nil, err
	}
	return g, weights, nil
}

// ReadFrom decodes an XGFS stream of the given total size.
func ReadFrom(r io.Reader, size int64) (*graph.CSR, []float32, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, nil, fmt.Errorf("xgfs: read header: %w", err)
	}
	n, e, err := parseHeader(hdr[:])
	if err != nil {
		return nil, nil, err
	}
	if err := checkSize(size, n, e); err != nil {
		return nil, nil, err
	}

	offsets := make([]int32, n+1)
	if err := binary.Read(r, binary.LittleEndian, offsets[:n]); err != nil {
		return nil, nil, fmt.Errorf("xgfs: read offsets: %w", err)
	}
	offsets[n] = int32(e)

	edges := make([]int32, e)
	if err := binary.Read(r, binary.LittleEndian, edges); err != nil {
		return nil, nil, fmt.Errorf("xgfs: read edges: %w", err)
	}

	var weights []float32
	if size > headerSize+4*int64(n+e) {
		weights = make([]float32, e)
		if err := binary.Read(r, binary.LittleEndian, weights); err != nil {
			return nil, nil, fmt.Errorf("xgfs: read weights: %w", err)
		}
	}

	g, err := graph.New(offsets, edges)
	if err != nil {
		return nil, nil, err
	}
	return g, weights, nil
}

func parseHeader(data []byte) (n, e int, err error) {
	if len(data) < headerSize {
		return 0, 0, fmt.Errorf("xgfs: %w", io.ErrUnexpectedEOF)
	}
	if string(data[:4]) != Magic {
		return 0, 0, ErrBadMagic
	}

	nv := int64(binary.LittleEndian.Uint64(data[4:]))
	ne := int64(binary.LittleEndian.Uint64(data[12:]))
	if nv < 0 || ne < 0 || nv >= math.MaxInt32 || ne > math.MaxInt32 {
		return 0, 0, fmt.Errorf("xgfs: unsupported size (nodes=%d, edges=%d)", nv, ne)
	}
	return int(nv), int(ne), nil
}

func checkSize(size int64, n, e int) error {
	body := 4 * int64(n+e)
	switch size - headerSize {
	case body, body + 4*int64(e):
		return nil
	default:
		return fmt.Errorf("xgfs: blob size %d does not match %d nodes and %d edges", size, n, e)
	}
}

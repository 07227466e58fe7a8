package embedding

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the framing applied to the raw float32 stream.
type Compression uint8

const (
	// CompressionNone writes the raw little-endian float32 dump.
	CompressionNone Compression = iota
	// CompressionLZ4 wraps the dump in an LZ4 frame (fast).
	CompressionLZ4
	// CompressionZSTD wraps the dump in a zstd frame (better ratio).
	CompressionZSTD
)

// String returns the stable name of the compression.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression parses a compression name. The empty string means none.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "raw":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd", "zst":
		return CompressionZSTD, nil
	default:
		return CompressionNone, fmt.Errorf("unknown compression %q", s)
	}
}

// Extension returns the conventional file suffix for c.
func (c Compression) Extension() string {
	switch c {
	case CompressionLZ4:
		return ".lz4"
	case CompressionZSTD:
		return ".zst"
	default:
		return ""
	}
}

const chunkFloats = 16 * 1024

// Encode writes m to w as little-endian float32 values, framed by c.
func Encode(w io.Writer, m *Matrix, c Compression) error {
	switch c {
	case CompressionNone:
		return writeRaw(w, m.data)
	case CompressionLZ4:
		lw := lz4.NewWriter(w)
		if err := writeRaw(lw, m.data); err != nil {
			_ = lw.Close()
			return err
		}
		return lw.Close()
	case CompressionZSTD:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return err
		}
		if err := writeRaw(zw, m.data); err != nil {
			_ = zw.Close()
			return err
		}
		return zw.Close()
	default:
		return fmt.Errorf("unsupported compression: %s", c)
	}
}

// Decode reads a matrix of row width dim written by Encode.
func Decode(r io.Reader, dim int, c Compression) (*Matrix, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension: %d", dim)
	}

	switch c {
	case CompressionNone:
		return readRaw(r, dim)
	case CompressionLZ4:
		return readRaw(lz4.NewReader(r), dim)
	case CompressionZSTD:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return readRaw(zr, dim)
	default:
		return nil, fmt.Errorf("unsupported compression: %s", c)
	}
}

func writeRaw(w io.Writer, data []float32) error {
	buf := make([]byte, 4*min(len(data), chunkFloats))
	for len(data) > 0 {
		n := min(len(data), chunkFloats)
		for i, v := range data[:n] {
			binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
		}
		if _, err := w.Write(buf[:4*n]); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

func readRaw(r io.Reader, dim int) (*Matrix, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("embedding stream length %d is not a multiple of 4", len(raw))
	}

	count := len(raw) / 4
	if count%dim != 0 {
		return nil, fmt.Errorf("the number of floats (%d) is not divisible by the number of dimensions (%d)", count, dim)
	}

	m := NewMatrix(count/dim, dim)
	for i := range m.data {
		m.data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return m, nil
}

// WriteIndex writes one "row,label" line per label.
func WriteIndex(w io.Writer, labels []string) error {
	bw := bufio.NewWriter(w)
	for i, label := range labels {
		if _, err := fmt.Fprintf(bw, "%d,%s\n", i, label); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadIndex parses an index file into a label -> row map. Labels may contain commas.
func ReadIndex(r io.Reader) (map[string]int, error) {
	index := make(map[string]int)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		rowStr, label, ok := strings.Cut(text, ",")
		if !ok {
			return nil, fmt.Errorf("index line %d: missing separator", line)
		}
		var row int
		if _, err := fmt.Sscanf(rowStr, "%d", &row); err != nil {
			return nil, fmt.Errorf("index line %d: %w", line, err)
		}
		index[label] = row
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return index, nil
}

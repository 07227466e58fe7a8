package edgelist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/hupe1980/versego/graph"
)

// Format selects the line layout.
type Format int

const (
	// FormatEdgeList is one "src dst" pair per line.
	FormatEdgeList Format = iota
	// FormatWeightedEdgeList is one "src dst weight" triple per line.
	FormatWeightedEdgeList
	// FormatAdjList is a source followed by all of its neighbors.
	FormatAdjList
)

func (f Format) String() string {
	switch f {
	case FormatEdgeList:
		return "edgelist"
	case FormatWeightedEdgeList:
		return "weighted_edgelist"
	case FormatAdjList:
		return "adjlist"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "edgelist":
		return FormatEdgeList, nil
	case "weighted_edgelist", "weighted":
		return FormatWeightedEdgeList, nil
	case "adjlist":
		return FormatAdjList, nil
	default:
		return 0, fmt.Errorf("unknown graph format %q", s)
	}
}

// ErrSyntax is matched by every malformed line.
var ErrSyntax = errors.New("edgelist: syntax error")

// SyntaxError reports a malformed line.
type SyntaxError struct {
	Line   int
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("edgelist: line %d: %s", e.Line, e.Reason)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// Options configures Parse.
type Options struct {
	Format Format
	// Separator splits fields. Empty means runs of whitespace.
	Separator string
	// Undirected stores every edge in both directions.
	Undirected bool
}

// Result is a parsed graph.
type Result struct {
	Graph *graph.CSR
	// Labels maps dense node ids back to the identifiers in the input.
	Labels []string
	// Weights is aligned to Graph.Edges(); nil unless the format is weighted.
	Weights []float32
}

type record struct {
	line   int
	nodes  []string
	weight float32
}

const maxLineSize = 64 << 20

// Parse reads a whole graph from r.
func Parse(r io.Reader, opts Options) (*Result, error) {
	var (
		records []record
		seen    = make(map[string]struct{})
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if strings.HasPrefix(text, "#") || strings.HasPrefix(text, "%") {
			continue
		}

		fields := split(strings.TrimSpace(text), opts.Separator)
		if len(fields) == 0 {
			continue
		}

		rec := record{line: line, nodes: fields, weight: 1}
		switch opts.Format {
		case FormatEdgeList:
			if len(fields) != 2 {
				return nil, &SyntaxError{Line: line, Reason: fmt.Sprintf("want 2 values, got %d", len(fields))}
			}
		case FormatWeightedEdgeList:
			if len(fields) != 3 {
				return nil, &SyntaxError{Line: line, Reason: fmt.Sprintf("want 3 values, got %d", len(fields))}
			}
			w, err := strconv.ParseFloat(fields[2], 32)
			if err != nil {
				return nil, &SyntaxError{Line: line, Reason: "bad weight " + strconv.Quote(fields[2])}
			}
			if w <= 0 {
				return nil, &SyntaxError{Line: line, Reason: "weights must be positive"}
			}
			rec.nodes, rec.weight = fields[:2], float32(w)
		case FormatAdjList:
		default:
			return nil, fmt.Errorf("edgelist: unsupported format %s", opts.Format)
		}

		for _, n := range rec.nodes {
			seen[n] = struct{}{}
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("edgelist: %w", err)
	}

	labels, ids := assignIDs(seen)

	b := graph.NewBuilder(len(labels), opts.Undirected)
	weighted := opts.Format == FormatWeightedEdgeList
	for _, rec := range records {
		src := ids[rec.nodes[0]]
		for _, n := range rec.nodes[1:] {
			var err error
			if weighted {
				err = b.AddWeightedEdge(src, ids[n], rec.weight)
			} else {
				err = b.AddEdge(src, ids[n])
			}
			if err != nil {
				return nil, fmt.Errorf("edgelist: line %d: %w", rec.line, err)
			}
		}
	}

	g, weights, err := b.BuildWeighted()
	if err != nil {
		return nil, err
	}
	if weighted && weights == nil {
		weights = []float32{}
	}
	return &Result{Graph: g, Labels: labels, Weights: weights}, nil
}

func split(s, sep string) []string {
	if s == "" {
		return nil
	}
	if sep == "" {
		return strings.Fields(s)
	}
	fields := strings.Split(s, sep)
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

// assignIDs orders the identifiers and returns the labels plus the token -> id map.
// Integer tokens that denote the same number ("7", "07") share one id.
func assignIDs(seen map[string]struct{}) ([]string, map[string]int) {
	ids := make(map[string]int, len(seen))

	nums := make(map[string]int64, len(seen))
	for tok := range seen {
		v, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			nums = nil
			break
		}
		nums[tok] = v
	}

	if nums == nil {
		labels := make([]string, 0, len(seen))
		for tok := range seen {
			labels = append(labels, tok)
		}
		slices.Sort(labels)
		for i, l := range labels {
			ids[l] = i
		}
		return labels, ids
	}

	values := make([]int64, 0, len(nums))
	for _, v := range nums {
		values = append(values, v)
	}
	slices.Sort(values)
	values = slices.Compact(values)

	byValue := make(map[int64]int, len(values))
	labels := make([]string, len(values))
	for i, v := range values {
		byValue[v] = i
		labels[i] = strconv.FormatInt(v, 10)
	}
	for tok, v := range nums {
		ids[tok] = byValue[v]
	}
	return labels, ids
}

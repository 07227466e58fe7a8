package edgelist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_EdgeListNumericOrder(t *testing.T) {
	in := `# comment
% another
10 2
2 1

10 1
10 2
`
	res, err := Parse(strings.NewReader(in), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "10"}, res.Labels)
	assert.Equal(t, []int32{0, 0, 1, 3}, res.Graph.Offsets())
	assert.Equal(t, []int32{0, 0, 1}, res.Graph.Edges())
	assert.Nil(t, res.Weights)
}

func TestParse_Undirected(t *testing.T) {
	res, err := Parse(strings.NewReader("a b\nb c\n"), Options{Undirected: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, res.Labels)
	assert.Equal(t, []int32{0, 1, 3, 4}, res.Graph.Offsets())
	assert.Equal(t, []int32{1, 0, 2, 1}, res.Graph.Edges())
}

func TestParse_LexicalWhenAnyIDIsNotNumeric(t *testing.T) {
	res, err := Parse(strings.NewReader("10 2\n2 x\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "2", "x"}, res.Labels)
}

func TestParse_NumericAliases(t *testing.T) {
	res, err := Parse(strings.NewReader("07 1\n7 1\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "7"}, res.Labels)
	assert.Equal(t, 1, res.Graph.NumEdges())
}

func TestParse_Weighted(t *testing.T) {
	in := "1,2,0.5\n1,3,2\n3 , 1 , 4\n"
	res, err := Parse(strings.NewReader(in), Options{Format: FormatWeightedEdgeList, Separator: ","})
	require.NoError(t, err)

	assert.Equal(t, []int32{1, 2, 0}, res.Graph.Edges())
	assert.Equal(t, []float32{0.5, 2, 4}, res.Weights)
}

func TestParse_AdjList(t *testing.T) {
	in := "0 1 2 3\n1 0\n4\n"
	res, err := Parse(strings.NewReader(in), Options{Format: FormatAdjList})
	require.NoError(t, err)

	g := res.Graph
	assert.Equal(t, 5, g.NumNodes())
	assert.Equal(t, []int32{1, 2, 3}, g.Neighbors(0))
	assert.Equal(t, []int32{0}, g.Neighbors(1))
	assert.Equal(t, 0, g.Degree(4))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		opts Options
	}{
		{"edgelist arity", "1 2 3\n", Options{}},
		{"weighted arity", "1 2\n", Options{Format: FormatWeightedEdgeList}},
		{"bad weight", "1 2 x\n", Options{Format: FormatWeightedEdgeList}},
		{"negative weight", "1 2 -1\n", Options{Format: FormatWeightedEdgeList}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.in), tt.opts)
			require.ErrorIs(t, err, ErrSyntax)

			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, 1, se.Line)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	res, err := Parse(strings.NewReader("# nothing\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Graph.NumNodes())
	assert.Empty(t, res.Labels)
}

func TestParseFormat(t *testing.T) {
	for _, f := range []Format{FormatEdgeList, FormatWeightedEdgeList, FormatAdjList} {
		got, err := ParseFormat(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseFormat("mat")
	assert.Error(t, err)
}

package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Mode  string            `json:"mode"`
	Steps uint64            `json:"steps"`
	Tags  map[string]string `json:"tags,omitempty"`
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())
	}
	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestCodecsAreInterchangeable(t *testing.T) {
	in := sample{Mode: "simrank", Steps: 42, Tags: map[string]string{"a": "b"}}

	for _, enc := range []Codec{JSON{}, GoJSON{}} {
		for _, dec := range []Codec{JSON{}, GoJSON{}} {
			var out sample
			require.NoError(t, dec.Unmarshal(MustMarshal(enc, in), &out))
			assert.Equal(t, in, out, "%s -> %s", enc.Name(), dec.Name())
		}
	}
}

func TestIndenter(t *testing.T) {
	for _, c := range []Codec{JSON{}, GoJSON{}} {
		ind, ok := c.(Indenter)
		require.True(t, ok)
		b, err := ind.MarshalIndent(sample{Mode: "ppr"})
		require.NoError(t, err)
		assert.Contains(t, string(b), "\n  \"mode\": \"ppr\"")
	}
}

func TestMustMarshal_Panics(t *testing.T) {
	assert.Panics(t, func() { MustMarshal(nil, make(chan int)) })
}

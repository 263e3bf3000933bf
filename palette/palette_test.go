package palette

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name      string
		palette   string
		includeBW bool
		want      []string
		wantOK    bool
	}{
		{"mono without bw", "mono", false, []string{"#000000"}, true},
		{"mono keeps single black", "mono", true, []string{"#000000", "#FFFFFF"}, true},
		{"warm framed", "warm", true,
			[]string{"#000000", "#621709", "#d14900", "#f29f05", "#f25c05", "#f28705", "#FFFFFF"}, true},
		{"case insensitive", " Neon ", false, []string{"#ff0266", "#00e5ff", "#ffea00", "#ff9100", "#d500f9"}, true},
		{"unknown falls back", "no-such", false, []string{"#000000"}, false},
		{"unknown falls back with bw", "", true, []string{"#000000", "#FFFFFF"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Build(tt.palette, tt.includeBW)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildDoesNotShareBacking(t *testing.T) {
	a, _ := Build("cool", false)
	a[0] = "#123456"
	b, _ := Build("cool", false)
	assert.Equal(t, "#0d1b2a", b[0])
}

func TestNames(t *testing.T) {
	names := Names()
	require.Len(t, names, 16)
	assert.Equal(t, "cool", names[0])
	assert.Contains(t, names, "sw10")
	for _, n := range names {
		_, ok := Build(n, false)
		assert.True(t, ok, n)
	}
}

func TestInvert(t *testing.T) {
	in := []string{"#000000", "#FFFFFF", "#621709", "red", "#abc"}
	assert.Equal(t, []string{"#ffffff", "#000000", "#9de8f6", "red", "#abc"}, Invert(in))
	assert.Equal(t, "#000000", in[0], "input untouched")
}

func TestRGB(t *testing.T) {
	r, g, b, ok := RGB("#d14900")
	require.True(t, ok)
	assert.Equal(t, [3]uint8{0xd1, 0x49, 0x00}, [3]uint8{r, g, b})

	_, _, _, ok = RGB("#zzzzzz")
	assert.False(t, ok)
}

package preview

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/krado/pkg/errs"
	"github.com/chazu/krado/pkg/geom"
	"github.com/chazu/krado/pkg/umesh"
)

func square(t *testing.T) *umesh.Mesh {
	t.Helper()
	m, err := umesh.New(
		[]geom.Point{geom.NewPoint(0, 0, 0), geom.NewPoint(1, 0, 0), geom.NewPoint(1, 1, 0), geom.NewPoint(0, 1, 0)},
		[]umesh.Element{
			{Type: umesh.Tri3, IDs: []int{0, 1, 2}},
			{Type: umesh.Tri3, IDs: []int{0, 2, 3}},
		},
	)
	require.NoError(t, err)
	return m
}

func TestProject(t *testing.T) {
	p := geom.NewPoint(1, 2, 3)
	tests := []struct {
		view View
		u, v float64
	}{
		{XY, 1, 2},
		{XZ, 1, 3},
		{YZ, 2, 3},
		{Iso, -cos30, 1.5},
	}
	for _, tc := range tests {
		t.Run(tc.view.String(), func(t *testing.T) {
			u, v := project(p, tc.view)
			assert.InDelta(t, tc.u, u, 1e-12)
			assert.InDelta(t, tc.v, v, 1e-12)
		})
	}
}

func TestParseView(t *testing.T) {
	v, err := ParseView("yz")
	require.NoError(t, err)
	assert.Equal(t, YZ, v)
	_, err = ParseView("top")
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)
}

func TestEdgesAreShared(t *testing.T) {
	assert.Len(t, edges(square(t)), 5)
}

func TestFitPadsFlatExtents(t *testing.T) {
	opts := Options{Width: 100, Height: 100, Margin: 10}
	f := fit([][2]float64{{0, 5}, {4, 5}}, opts)
	x0, y0 := f.screen(0, 5)
	x1, y1 := f.screen(4, 5)
	assert.InDelta(t, 10, x0, 1e-9)
	assert.InDelta(t, 90, x1, 1e-9)
	assert.InDelta(t, 50, y0, 1e-9)
	assert.InDelta(t, y0, y1, 1e-9)
}

func TestDraw(t *testing.T) {
	dc, err := Draw(square(t), Options{Width: 100, Height: 100, Margin: 10, View: XY, LineWidth: 2})
	require.NoError(t, err)
	defer dc.Close()
	img := dc.Image()

	r, _, _, _ := img.At(50, 89).RGBA()
	assert.Less(t, r, uint32(0x8000), "bottom edge is drawn")
	r, g, b, _ := img.At(70, 40).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{r, g, b}, "interior is background")
}

func TestRenderAndEncode(t *testing.T) {
	opts := DefaultOptions()
	opts.NodeRadius = 3
	path := filepath.Join(t.TempDir(), "square.png")
	require.NoError(t, Render(square(t), path, opts))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, square(t), Options{Width: 64, Height: 32, Margin: 2, View: Iso}))
	cfg, err := png.DecodeConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 32, cfg.Height)
}

func TestDrawErrors(t *testing.T) {
	empty, err := umesh.New(nil, nil)
	require.NoError(t, err)
	_, err = Draw(empty, DefaultOptions())
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)

	_, err = Draw(square(t), Options{Width: 10, Height: 10, Margin: 5})
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)
}

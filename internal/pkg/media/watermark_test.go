package media_test

import (
	"bytes"
	"image"
	"strings"
	"testing"

	"Festa/internal/pkg/media"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyWatermark(t *testing.T) {
	src := media.EncodeDataURI("image/png", pngBytes(t, 300, 200))

	out, err := media.ApplyWatermark(src, "Festa")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "data:image/png;base64,"))
	// 叠加了水印的图一定与源图不同
	assert.NotEqual(t, src, out)

	_, data, err := media.DecodeDataURI(out)
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestApplyWatermarkDefaultText(t *testing.T) {
	src := media.EncodeDataURI("image/png", pngBytes(t, 100, 100))

	out, err := media.ApplyWatermark(src, "")
	require.NoError(t, err)
	assert.NotEqual(t, src, out)
}

func TestApplyWatermarkTinyImage(t *testing.T) {
	// 小图走字号下限分支
	src := media.EncodeDataURI("image/png", pngBytes(t, 40, 40))

	out, err := media.ApplyWatermark(src, "Festa")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "data:image/png;base64,"))
}

func TestApplyWatermarkInvalidURI(t *testing.T) {
	_, err := media.ApplyWatermark("not-a-data-uri", "Festa")
	assert.Error(t, err)

	_, err = media.ApplyWatermark(media.EncodeDataURI("image/png", []byte("garbage")), "Festa")
	assert.Error(t, err)
}

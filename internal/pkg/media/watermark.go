package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// DefaultWatermarkText 默认水印文案
const DefaultWatermarkText = "Festa"

// 水印字号下限，避免小图上文字糊成一团
const minWatermarkSize = 18

var (
	fontOnce   sync.Once
	fontParsed *opentype.Font
	fontErr    error
)

func watermarkFont() (*opentype.Font, error) {
	fontOnce.Do(func() {
		fontParsed, fontErr = opentype.Parse(goregular.TTF)
	})
	return fontParsed, fontErr
}

// ApplyWatermark 在预览图上叠加水印并返回新的 PNG data URI。
// 与预览生成不同，这是按需的单项操作，源图解码失败或字体不可用时错误直接上抛
func ApplyWatermark(imageURI string, text string) (string, error) {
	if text == "" {
		text = DefaultWatermarkText
	}

	_, data, err := DecodeDataURI(imageURI)
	if err != nil {
		return "", err
	}

	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("水印源图解码失败: %w", err)
	}

	canvas := imaging.Clone(src)
	w := canvas.Bounds().Dx()
	h := canvas.Bounds().Dy()

	fnt, err := watermarkFont()
	if err != nil {
		return "", fmt.Errorf("水印字体不可用: %w", err)
	}

	mainSize := float64(w) / 15
	if mainSize < minWatermarkSize {
		mainSize = minWatermarkSize
	}
	tileSize := float64(w) / 20
	if tileSize < minWatermarkSize {
		tileSize = minWatermarkSize
	}

	mainFace, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    mainSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return "", fmt.Errorf("水印字体构建失败: %w", err)
	}
	defer func() { _ = mainFace.Close() }()

	// 中心主水印：先描边后填充，保证深浅背景上都可读
	drawCenteredText(canvas, mainFace, text, w/2, h/2)

	tileFace, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    tileSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return "", fmt.Errorf("水印字体构建失败: %w", err)
	}
	defer func() { _ = tileFace.Close() }()

	// 斜向平铺：5x5 网格、步长为宽高的三分之一、跳过正中心，
	// 裁剪后仍能保留可见水印
	tile := renderTile(tileFace, text)
	rotated := imaging.Rotate(tile, 45, color.NRGBA{})
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			cx := w/2 + dx*w/3
			cy := h/2 + dy*h/3
			pos := image.Pt(cx-rotated.Bounds().Dx()/2, cy-rotated.Bounds().Dy()/2)
			canvas = imaging.Overlay(canvas, rotated, pos, 1.0)
		}
	}

	var buf bytes.Buffer
	if err = png.Encode(&buf, canvas); err != nil {
		return "", fmt.Errorf("水印图编码失败: %w", err)
	}
	return EncodeDataURI("image/png", buf.Bytes()), nil
}

// drawCenteredText 以 (cx, cy) 为中心绘制描边加填充的文字
func drawCenteredText(dst *image.NRGBA, face font.Face, text string, cx, cy int) {
	adv := font.MeasureString(face, text)
	metrics := face.Metrics()

	x := cx - adv.Round()/2
	y := cy + (metrics.Ascent.Round()-metrics.Descent.Round())/2

	stroke := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.NRGBA{R: 0, G: 0, B: 0, A: 160}),
		Face: face,
	}
	for _, off := range [][2]int{{-2, 0}, {2, 0}, {0, -2}, {0, 2}, {-1, -1}, {-1, 1}, {1, -1}, {1, 1}} {
		stroke.Dot = fixed.P(x+off[0], y+off[1])
		stroke.DrawString(text)
	}

	fill := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: 210}),
		Face: face,
	}
	fill.Dot = fixed.P(x, y)
	fill.DrawString(text)
}

// renderTile 在透明底上渲染一份平铺用的文字贴片
func renderTile(face font.Face, text string) *image.NRGBA {
	adv := font.MeasureString(face, text)
	metrics := face.Metrics()

	width := adv.Ceil() + 8
	height := metrics.Ascent.Ceil() + metrics.Descent.Ceil() + 8

	tile := image.NewNRGBA(image.Rect(0, 0, width, height))
	drawer := &font.Drawer{
		Dst:  tile,
		Src:  image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: 80}),
		Face: face,
		Dot:  fixed.P(4, 4+metrics.Ascent.Ceil()),
	}
	drawer.DrawString(text)
	return tile
}

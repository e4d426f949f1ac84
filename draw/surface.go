package draw

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/sirupsen/logrus"
)

// MaxDimension bounds either side of a surface.
const MaxDimension = 8192

// ErrContextUnavailable means no drawing surface could be created.
var ErrContextUnavailable = errors.New("drawing context unavailable")

// Container reports the content box a surface should fill.
type Container interface {
	ContentSize() (width, height int)
}

// Size is a fixed Container.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s Size) ContentSize() (int, int) { return s.Width, s.Height }

type styleState struct {
	mode  CompositeMode
	color color.NRGBA
	width float64
}

type segmentKind int

const (
	segQuad segmentKind = iota
	segLine
)

// segment is one piece of the current path, stroked with the line width
// that was active when it was added.
type segment struct {
	kind           segmentKind
	x0, y0, cx, cy float64
	x1, y1         float64
	width          float64
}

// Surface is a raster Context. Strokes use round caps and joins. A Surface
// is not safe for concurrent use.
type Surface struct {
	img   *image.RGBA
	style styleState
	stack []styleState

	segs       []segment
	penX, penY float64
	hasPen     bool
}

// InitCanvas creates a transparent surface sized to c's content box.
func InitCanvas(c Container) (*Surface, error) {
	w, h := c.ContentSize()
	if w <= 0 || h <= 0 || w > MaxDimension || h > MaxDimension {
		return nil, fmt.Errorf("%w: size %dx%d", ErrContextUnavailable, w, h)
	}
	return &Surface{
		img:   image.NewRGBA(image.Rect(0, 0, w, h)),
		style: styleState{mode: SourceOver, color: black, width: 1},
	}, nil
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int { return s.img.Bounds().Dx() }

// Height returns the surface height in pixels.
func (s *Surface) Height() int { return s.img.Bounds().Dy() }

// Image returns the live raster.
func (s *Surface) Image() *image.RGBA { return s.img }

func (s *Surface) Save() {
	s.stack = append(s.stack, s.style)
}

func (s *Surface) Restore() {
	if len(s.stack) == 0 {
		return
	}
	s.style = s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
}

func (s *Surface) SetCompositeMode(mode CompositeMode) { s.style.mode = mode }

func (s *Surface) SetStrokeColor(c string) { s.style.color = colorOrBlack(c) }

func (s *Surface) SetLineWidth(width float64) {
	if width > 0 && !math.IsInf(width, 0) {
		s.style.width = width
	}
}

func (s *Surface) BeginPath() {
	s.segs = s.segs[:0]
	s.hasPen = false
}

func (s *Surface) MoveTo(x, y float64) {
	s.penX, s.penY = x, y
	s.hasPen = true
}

func (s *Surface) QuadraticTo(cx, cy, x, y float64) {
	if !s.hasPen {
		s.MoveTo(cx, cy)
	}
	s.segs = append(s.segs, segment{
		kind:  segQuad,
		x0:    s.penX,
		y0:    s.penY,
		cx:    cx,
		cy:    cy,
		x1:    x,
		y1:    y,
		width: s.style.width,
	})
	s.penX, s.penY = x, y
}

func (s *Surface) LineTo(x, y float64) {
	if !s.hasPen {
		s.MoveTo(x, y)
		return
	}
	s.segs = append(s.segs, segment{
		kind:  segLine,
		x0:    s.penX,
		y0:    s.penY,
		x1:    x,
		y1:    y,
		width: s.style.width,
	})
	s.penX, s.penY = x, y
}

// Stroke composites the current path with the current style. The path is
// kept, as on an HTML canvas, until the next BeginPath.
func (s *Surface) Stroke() {
	if len(s.segs) == 0 {
		return
	}
	mask := s.strokeMask()

	switch s.style.mode {
	case DestinationOut:
		s.eraseMasked(mask)
	default:
		b := s.img.Bounds()
		draw.DrawMask(s.img, b, image.NewUniform(s.style.color), image.Point{}, mask, b.Min, draw.Over)
	}
}

// strokeMask rasterizes the current path into a coverage mask.
func (s *Surface) strokeMask() *image.Alpha {
	dc := gg.NewContext(s.Width(), s.Height())
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	dc.SetRGBA(0, 0, 0, 1)

	for _, seg := range s.segs {
		dc.SetLineWidth(seg.width)
		dc.MoveTo(seg.x0, seg.y0)
		if seg.kind == segQuad {
			dc.QuadraticTo(seg.cx, seg.cy, seg.x1, seg.y1)
		} else {
			dc.LineTo(seg.x1, seg.y1)
		}
		dc.Stroke()
	}
	return dc.AsMask()
}

// eraseMasked scales every pixel down by the mask coverage. RGBA is
// premultiplied, so all four channels scale together.
func (s *Surface) eraseMasked(mask *image.Alpha) {
	b := s.img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			m := mask.AlphaAt(x, y).A
			if m == 0 {
				continue
			}
			keep := uint32(255 - m)
			i := s.img.PixOffset(x, y)
			px := s.img.Pix[i : i+4 : i+4]
			for c := range px {
				px[c] = uint8(uint32(px[c]) * keep / 255)
			}
		}
	}
}

// Clear makes every pixel transparent.
func (s *Surface) Clear() {
	for i := range s.img.Pix {
		s.img.Pix[i] = 0
	}
}

// SaveAsImage exports the raster as a PNG data URL.
func (s *Surface) SaveAsImage() (string, error) {
	return EncodeDataURL(s.img)
}

// LoadImage replaces the raster with a previously saved data URL, drawn at
// the origin at its natural size.
func (s *Surface) LoadImage(dataURL string) error {
	img, err := DecodeDataURL(dataURL)
	if err != nil {
		return err
	}
	s.Clear()
	gg.NewContextForRGBA(s.img).DrawImage(img, 0, 0)
	return nil
}

// AddSticker draws img scaled by scale and centered on (x, y). A
// non-positive scale means 1.
func (s *Surface) AddSticker(img image.Image, x, y, scale float64) {
	if scale <= 0 {
		scale = 1
	}
	b := img.Bounds()
	w := int(math.Round(float64(b.Dx()) * scale))
	h := int(math.Round(float64(b.Dy()) * scale))
	if w <= 0 || h <= 0 {
		logrus.WithFields(logrus.Fields{
			"scale": scale,
			"size":  b.Size().String(),
		}).Debug("Sticker scaled to nothing, skipped")
		return
	}

	scaled := image.Image(img)
	if w != b.Dx() || h != b.Dy() {
		scaled = imaging.Resize(img, w, h, imaging.Lanczos)
	}

	left := x - float64(w)/2
	top := y - float64(h)/2
	gg.NewContextForRGBA(s.img).DrawImage(scaled, int(math.Round(left)), int(math.Round(top)))
}

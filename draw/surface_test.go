package draw

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"stable-thought/core"
)

func newTestSurface(t *testing.T, w, h int) *Surface {
	t.Helper()
	s, err := InitCanvas(Size{Width: w, Height: h})
	if err != nil {
		t.Fatalf("InitCanvas(%dx%d) failed: %v", w, h, err)
	}
	return s
}

func alphaAt(s *Surface, x, y int) uint8 {
	return s.Image().RGBAAt(x, y).A
}

func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func horizontal(y float64, opts Options) Path {
	return Path{
		Points:  []Point{{X: 0, Y: y}, {X: 10, Y: y}, {X: 20, Y: y}},
		Options: opts,
	}
}

func TestInitCanvas_SizesToContainer(t *testing.T) {
	s := newTestSurface(t, 120, 80)
	if s.Width() != 120 || s.Height() != 80 {
		t.Errorf("surface is %dx%d, want 120x80", s.Width(), s.Height())
	}
	if alphaAt(s, 0, 0) != 0 {
		t.Error("new surface is not transparent")
	}
}

func TestInitCanvas_Unavailable(t *testing.T) {
	for _, size := range []Size{{0, 10}, {10, 0}, {-1, 5}, {MaxDimension + 1, 10}} {
		_, err := InitCanvas(size)
		if !errors.Is(err, ErrContextUnavailable) {
			t.Errorf("InitCanvas(%+v) error = %v, want ErrContextUnavailable", size, err)
		}
	}
}

func TestSurface_StrokeHasConstantWidth(t *testing.T) {
	s := newTestSurface(t, 30, 12)
	DrawPath(s, horizontal(6, Options{StrokeColor: "#ff0000", StrokeWidth: 4}))

	// Width 4 centered on y=6 covers rows 4 and 5 above and 6 and 7 below.
	for _, x := range []int{2, 10, 18} {
		for _, y := range []int{4, 5, 6, 7} {
			px := s.Image().RGBAAt(x, y)
			if px.A < 200 || px.R < 200 || px.G != 0 {
				t.Errorf("pixel (%d,%d) = %+v, want opaque red", x, y, px)
			}
		}
		for _, y := range []int{0, 2, 9, 11} {
			if a := alphaAt(s, x, y); a != 0 {
				t.Errorf("pixel (%d,%d) alpha = %d, want 0", x, y, a)
			}
		}
	}
	if a := alphaAt(s, 26, 6); a != 0 {
		t.Errorf("stroke extends past its end: alpha %d", a)
	}
}

func TestSurface_SinglePointDrawsNothing(t *testing.T) {
	s := newTestSurface(t, 10, 10)
	DrawPath(s, Path{Points: []Point{{X: 5, Y: 5}}, Options: Options{StrokeColor: "#000", StrokeWidth: 6}})
	for _, b := range s.Image().Pix {
		if b != 0 {
			t.Fatal("single point changed the surface")
		}
	}
}

func TestSurface_EraserClearsRegardlessOfColor(t *testing.T) {
	for _, c := range []string{"#00ff00", "rgba(0,0,0,0)"} {
		s := newTestSurface(t, 30, 12)
		DrawPath(s, horizontal(6, Options{StrokeColor: "#ff0000", StrokeWidth: 10}))
		if alphaAt(s, 10, 6) == 0 {
			t.Fatal("setup stroke not painted")
		}

		DrawPath(s, horizontal(6, Options{StrokeColor: c, StrokeWidth: 4, IsEraser: true}))

		if px := s.Image().RGBAAt(10, 6); px.A != 0 || px.R != 0 || px.G != 0 {
			t.Errorf("color %q: erased pixel = %+v, want transparent", c, px)
		}
		if px := s.Image().RGBAAt(10, 2); px.A < 200 || px.R < 200 {
			t.Errorf("color %q: pixel outside the eraser = %+v, want red", c, px)
		}
	}
}

func TestSurface_StyleDoesNotLeak(t *testing.T) {
	s := newTestSurface(t, 20, 20)
	DrawPath(s, Path{
		Points:  []Point{{X: 1, Y: 1}, {X: 9, Y: 9}},
		Options: Options{StrokeColor: "#123456", StrokeWidth: 7, IsEraser: true},
	})

	if s.style.mode != SourceOver || s.style.width != 1 || s.style.color != black {
		t.Errorf("style after DrawPath = %+v", s.style)
	}
	if len(s.stack) != 0 {
		t.Errorf("unbalanced Save/Restore, stack depth %d", len(s.stack))
	}
}

func TestSurface_PressureWidensSegment(t *testing.T) {
	s := newTestSurface(t, 60, 30)
	DrawPath(s, Path{
		Points: []Point{
			{X: 0, Y: 15},
			{X: 20, Y: 15},
			{X: 40, Y: 15, Pressure: pressure(5)},
			{X: 60, Y: 15},
		},
		Options: Options{StrokeColor: "#000", StrokeWidth: 2},
	})

	// The segment ending at the pressured point is 10 wide, its neighbour 2.
	if a := alphaAt(s, 25, 11); a == 0 {
		t.Error("wide segment not painted at y=11")
	}
	if a := alphaAt(s, 3, 11); a != 0 {
		t.Errorf("narrow segment painted at y=11: alpha %d", a)
	}
}

func TestSurface_ClearAndSaveAsImage(t *testing.T) {
	s := newTestSurface(t, 16, 16)
	DrawPath(s, horizontal(8, Options{StrokeColor: "#0000ff", StrokeWidth: 4}))

	url, err := s.SaveAsImage()
	if err != nil {
		t.Fatalf("SaveAsImage() failed: %v", err)
	}
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Fatalf("SaveAsImage() = %.40q...", url)
	}
	if want, _ := EncodeDataURL(s.Image()); url != want {
		t.Error("SaveAsImage() differs from EncodeDataURL() of the raster")
	}

	s.Clear()
	if alphaAt(s, 8, 8) != 0 {
		t.Fatal("Clear() left pixels")
	}

	if err := s.LoadImage(url); err != nil {
		t.Fatalf("LoadImage() failed: %v", err)
	}
	if px := s.Image().RGBAAt(8, 8); px.A < 200 || px.B < 200 {
		t.Errorf("pixel after LoadImage = %+v, want blue", px)
	}

	if err := s.LoadImage("not a data url"); !errors.Is(err, ErrInvalidDataURL) {
		t.Errorf("LoadImage(garbage) error = %v", err)
	}
}

func TestSurface_AddStickerCentersScaledImage(t *testing.T) {
	blue := color.NRGBA{B: 255, A: 255}

	testCases := []struct {
		name    string
		scale   float64
		inside  []image.Point
		outside []image.Point
	}{
		{
			name:    "scaled",
			scale:   2,
			inside:  []image.Point{{6, 6}, {13, 13}, {10, 10}},
			outside: []image.Point{{5, 5}, {14, 14}},
		},
		{
			name:    "default scale",
			scale:   0,
			inside:  []image.Point{{8, 8}, {11, 11}},
			outside: []image.Point{{7, 7}, {12, 12}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSurface(t, 20, 20)
			s.AddSticker(solidImage(4, 4, blue), 10, 10, tc.scale)

			for _, p := range tc.inside {
				if px := s.Image().RGBAAt(p.X, p.Y); px.A < 200 || px.B < 200 {
					t.Errorf("pixel %v = %+v, want blue", p, px)
				}
			}
			for _, p := range tc.outside {
				if a := alphaAt(s, p.X, p.Y); a != 0 {
					t.Errorf("pixel %v alpha = %d, want 0", p, a)
				}
			}
		})
	}
}

func TestDataURL_RoundTrip(t *testing.T) {
	url, err := EncodeDataURL(solidImage(3, 2, color.NRGBA{R: 9, A: 255}))
	if err != nil {
		t.Fatalf("EncodeDataURL() failed: %v", err)
	}
	img, err := DecodeDataURL(url)
	if err != nil {
		t.Fatalf("DecodeDataURL() failed: %v", err)
	}
	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Errorf("decoded bounds = %v", img.Bounds())
	}

	for _, bad := range []string{"", "data:image/png,abc", "data:image/png;base64,!!!"} {
		if _, err := DecodeDataURL(bad); err == nil {
			t.Errorf("DecodeDataURL(%q) should fail", bad)
		}
	}
}

func TestComposeEntry(t *testing.T) {
	sketch := newTestSurface(t, 20, 20)
	DrawPath(sketch, horizontal(2, Options{StrokeColor: "#ff0000", StrokeWidth: 2}))
	sketchURL, _ := sketch.SaveAsImage()
	stickerURL, _ := EncodeDataURL(solidImage(4, 4, color.NRGBA{G: 255, A: 255}))

	entry := core.DiaryEntry{
		Date:             "2026-10-19",
		DrawingImageData: &sketchURL,
		Stickers: []core.Sticker{
			{ID: "ok", ImageURL: stickerURL, X: 10, Y: 10, Scale: 1},
			{ID: "missing", ImageURL: "/stickers/none.png", X: 2, Y: 18, Scale: 1},
		},
	}

	url, err := ComposeEntry(entry, Size{Width: 20, Height: 20}, StickerDir(""))
	if err != nil {
		t.Fatalf("ComposeEntry() failed: %v", err)
	}
	img, err := DecodeDataURL(url)
	if err != nil {
		t.Fatalf("DecodeDataURL() failed: %v", err)
	}

	if _, _, _, a := img.At(10, 2).RGBA(); a == 0 {
		t.Error("sketch missing from composition")
	}
	if _, g, _, a := img.At(10, 10).RGBA(); a == 0 || g == 0 {
		t.Error("sticker missing from composition")
	}
	if _, _, _, a := img.At(2, 18).RGBA(); a != 0 {
		t.Error("unresolvable sticker was drawn")
	}

	if _, err := ComposeEntry(entry, Size{}, StickerDir("")); !errors.Is(err, ErrContextUnavailable) {
		t.Errorf("ComposeEntry() with empty size error = %v", err)
	}
}

func TestPad_GestureLifecycle(t *testing.T) {
	s := newTestSurface(t, 30, 12)
	pad := NewPad(s)
	opts := Options{StrokeColor: "#000", StrokeWidth: 4}

	if err := pad.Move(Point{X: 1, Y: 1}); !errors.Is(err, ErrNoGesture) {
		t.Errorf("Move() while idle = %v, want ErrNoGesture", err)
	}
	if _, err := pad.End(); !errors.Is(err, ErrNoGesture) {
		t.Errorf("End() while idle = %v, want ErrNoGesture", err)
	}

	if err := pad.Begin(Point{X: 0, Y: 6}, opts); err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	if !pad.Capturing() {
		t.Error("Capturing() = false after Begin")
	}
	if err := pad.Begin(Point{X: 0, Y: 0}, opts); !errors.Is(err, ErrGestureActive) {
		t.Errorf("second Begin() = %v, want ErrGestureActive", err)
	}

	pad.Move(Point{X: 10, Y: 6})
	pad.Move(Point{X: 20, Y: 6})
	if alphaAt(s, 10, 6) != 0 {
		t.Error("path rendered before the gesture ended")
	}

	path, err := pad.End()
	if err != nil {
		t.Fatalf("End() failed: %v", err)
	}
	if len(path.Points) != 3 || path.Options != opts {
		t.Errorf("End() = %+v", path)
	}
	if pad.Capturing() || pad.Paths() != 1 {
		t.Errorf("pad state after End: capturing=%v paths=%d", pad.Capturing(), pad.Paths())
	}
	if alphaAt(s, 10, 6) == 0 {
		t.Error("path not rendered on End")
	}
}

func TestPad_SinglePointGestureRendersNothing(t *testing.T) {
	s := newTestSurface(t, 10, 10)
	pad := NewPad(s)
	pad.Begin(Point{X: 5, Y: 5}, Options{StrokeColor: "#000", StrokeWidth: 8})
	if _, err := pad.End(); err != nil {
		t.Fatalf("End() failed: %v", err)
	}
	if alphaAt(s, 5, 5) != 0 {
		t.Error("single-point gesture painted")
	}
}

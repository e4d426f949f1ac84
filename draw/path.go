// Package draw renders freehand sketches: smoothed strokes with optional
// pen pressure, an eraser, sticker placement and PNG data URL export.
package draw

// CompositeMode selects how a stroke combines with existing pixels.
type CompositeMode int

const (
	// SourceOver paints the stroke color over existing content.
	SourceOver CompositeMode = iota
	// DestinationOut clears existing content under the stroke.
	DestinationOut
)

func (m CompositeMode) String() string {
	if m == DestinationOut {
		return "destination-out"
	}
	return "source-over"
}

// eraserColor is the stroke style used while erasing. Only its alpha matters.
const eraserColor = "rgba(0,0,0,1)"

type (
	// Point is one sampled pointer position. Pressure is nil when the device
	// does not report it.
	Point struct {
		X        float64  `json:"x"`
		Y        float64  `json:"y"`
		Pressure *float64 `json:"pressure,omitempty"`
	}

	// Options is the stroke style of a path.
	Options struct {
		StrokeColor string  `json:"strokeColor"`
		StrokeWidth float64 `json:"strokeWidth"`
		IsEraser    bool    `json:"isEraser"`
	}

	// Path is the point sequence of one gesture.
	Path struct {
		Points  []Point `json:"points"`
		Options Options `json:"options"`
	}

	// Context is the 2D drawing surface a path is rendered onto. Save and
	// Restore bracket style state: composite mode, stroke color, line width.
	Context interface {
		Save()
		Restore()
		SetCompositeMode(mode CompositeMode)
		SetStrokeColor(color string)
		SetLineWidth(width float64)
		BeginPath()
		MoveTo(x, y float64)
		QuadraticTo(cx, cy, x, y float64)
		LineTo(x, y float64)
		Stroke()
	}
)

// DrawPath strokes path onto ctx. Each point is joined to the next with a
// quadratic curve that ends at their midpoint and uses the earlier point as
// control; the last point is reached with a straight line. The segment
// ending at a point with pressure is StrokeWidth*pressure wide, any other
// segment StrokeWidth. Paths with fewer than two points draw nothing.
func DrawPath(ctx Context, path Path) {
	pts := path.Points
	if len(pts) < 2 {
		return
	}
	opts := path.Options

	ctx.Save()
	defer ctx.Restore()

	if opts.IsEraser {
		ctx.SetCompositeMode(DestinationOut)
		ctx.SetStrokeColor(eraserColor)
	} else {
		ctx.SetCompositeMode(SourceOver)
		ctx.SetStrokeColor(opts.StrokeColor)
	}
	width := opts.StrokeWidth
	ctx.SetLineWidth(width)

	ctx.BeginPath()
	ctx.MoveTo(pts[0].X, pts[0].Y)
	for i := 1; i < len(pts); i++ {
		p1, p2 := pts[i-1], pts[i]
		if w := segmentWidth(opts.StrokeWidth, p2); w != width {
			width = w
			ctx.SetLineWidth(width)
		}
		ctx.QuadraticTo(p1.X, p1.Y, (p1.X+p2.X)/2, (p1.Y+p2.Y)/2)
	}
	last := pts[len(pts)-1]
	ctx.LineTo(last.X, last.Y)
	ctx.Stroke()
}

func segmentWidth(base float64, p Point) float64 {
	if p.Pressure == nil {
		return base
	}
	return base * *p.Pressure
}

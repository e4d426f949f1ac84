package draw

import (
	"errors"
	"sync"
)

var (
	// ErrGestureActive is returned by Begin while a gesture is in progress.
	ErrGestureActive = errors.New("gesture already in progress")
	// ErrNoGesture is returned by Move and End when no gesture is in progress.
	ErrNoGesture = errors.New("no gesture in progress")
)

// Pad captures one gesture at a time and renders it onto its Context when
// the gesture ends. It is safe for concurrent use.
type Pad struct {
	mu      sync.Mutex
	ctx     Context
	current *Path
	paths   int
}

// NewPad returns an idle pad drawing onto ctx.
func NewPad(ctx Context) *Pad {
	return &Pad{ctx: ctx}
}

// Begin starts a new path at p.
func (pd *Pad) Begin(p Point, opts Options) error {
	pd.mu.Lock()
	defer pd.mu.Unlock()

	if pd.current != nil {
		return ErrGestureActive
	}
	pd.current = &Path{Points: []Point{p}, Options: opts}
	return nil
}

// Move appends p to the path in progress.
func (pd *Pad) Move(p Point) error {
	pd.mu.Lock()
	defer pd.mu.Unlock()

	if pd.current == nil {
		return ErrNoGesture
	}
	pd.current.Points = append(pd.current.Points, p)
	return nil
}

// End finalizes the path in progress, renders it and returns it.
func (pd *Pad) End() (Path, error) {
	pd.mu.Lock()
	defer pd.mu.Unlock()

	if pd.current == nil {
		return Path{}, ErrNoGesture
	}
	path := *pd.current
	pd.current = nil

	DrawPath(pd.ctx, path)
	pd.paths++
	return path, nil
}

// Capturing reports whether a gesture is in progress.
func (pd *Pad) Capturing() bool {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	return pd.current != nil
}

// Paths returns how many gestures have been rendered.
func (pd *Pad) Paths() int {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	return pd.paths
}

// Do runs fn with exclusive access to the pad's context, for operations
// that must not interleave with a gesture being rendered.
func (pd *Pad) Do(fn func(ctx Context)) {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	fn(pd.ctx)
}

package websocket

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"stable-thought/calendar"
	"stable-thought/core"
	"stable-thought/draw"
	"stable-thought/sound"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// ErrNotOpen is returned by drawing events sent before sketch-open.
var ErrNotOpen = errors.New("no sketch open")

type (
	// DiaryStore is the part of the domain store a sketch session writes to.
	DiaryStore interface {
		Diary(date string) (core.DiaryEntry, bool)
		SaveDiary(ctx context.Context, u core.DiaryUpdate) (core.DiaryEntry, error)
		AddSticker(ctx context.Context, date string, st core.Sticker) (core.DiaryEntry, error)
		SelectedDate() string
	}

	// Player plays UI sound effects.
	Player interface {
		Play(t sound.Type, volume float64)
	}

	OpenRequest struct {
		Date   string `json:"date"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	}

	PointRequest struct {
		X        float64  `json:"x"`
		Y        float64  `json:"y"`
		Pressure *float64 `json:"pressure,omitempty"`
	}

	StrokeRequest struct {
		PointRequest
		Color  string  `json:"color"`
		Width  float64 `json:"width"`
		Eraser bool    `json:"eraser"`
	}

	StickerRequest struct {
		ImageURL string  `json:"imageUrl"`
		X        float64 `json:"x"`
		Y        float64 `json:"y"`
		Scale    float64 `json:"scale"`
	}
)

func (p PointRequest) point() draw.Point {
	return draw.Point{X: p.X, Y: p.Y, Pressure: p.Pressure}
}

// Session is the sketch state of one socket: the day being drawn and the pad
// capturing its strokes.
type Session struct {
	store    DiaryStore
	stickers draw.StickerSource
	player   Player

	mu      sync.Mutex
	date    string
	surface *draw.Surface
	pad     *draw.Pad
}

// NewSession returns a session with no sketch open. stickers and player may
// be nil.
func NewSession(store DiaryStore, stickers draw.StickerSource, player Player) *Session {
	if stickers == nil {
		stickers = draw.StickerDir("")
	}
	return &Session{store: store, stickers: stickers, player: player}
}

// Open starts a sketch of req.Date, or of the selected day, sized to the
// client's canvas. An existing drawing of that day is loaded to continue
// editing.
func (s *Session) Open(req OpenRequest) error {
	date := req.Date
	if date == "" {
		date = s.store.SelectedDate()
	}
	day, err := calendar.Normalize(date)
	if err != nil {
		return err
	}

	surface, err := draw.InitCanvas(draw.Size{Width: req.Width, Height: req.Height})
	if err != nil {
		return err
	}
	if entry, ok := s.store.Diary(day); ok && entry.DrawingImageData != nil && *entry.DrawingImageData != "" {
		if err := surface.LoadImage(*entry.DrawingImageData); err != nil {
			logrus.WithFields(logrus.Fields{
				"error": err,
				"date":  day,
			}).Warn("Saved sketch could not be loaded, starting blank")
		}
	}

	s.mu.Lock()
	s.date = day
	s.surface = surface
	s.pad = draw.NewPad(surface)
	s.mu.Unlock()

	s.play(sound.FlipPage)
	return nil
}

// Date returns the day being drawn, empty when no sketch is open.
func (s *Session) Date() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date
}

func (s *Session) current() (*draw.Pad, *draw.Surface, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pad == nil {
		return nil, nil, "", ErrNotOpen
	}
	return s.pad, s.surface, s.date, nil
}

func (s *Session) StrokeStart(req StrokeRequest) error {
	pad, _, _, err := s.current()
	if err != nil {
		return err
	}
	if err := pad.Begin(req.point(), draw.Options{
		StrokeColor: req.Color,
		StrokeWidth: req.Width,
		IsEraser:    req.Eraser,
	}); err != nil {
		return err
	}
	s.play(sound.Writing)
	return nil
}

func (s *Session) StrokePoint(req PointRequest) error {
	pad, _, _, err := s.current()
	if err != nil {
		return err
	}
	return pad.Move(req.point())
}

// StrokeEnd renders the stroke in progress and returns its point count.
func (s *Session) StrokeEnd() (int, error) {
	pad, _, _, err := s.current()
	if err != nil {
		return 0, err
	}
	path, err := pad.End()
	if err != nil {
		return 0, err
	}
	return len(path.Points), nil
}

// Clear wipes the sketch. The saved drawing is untouched until Save.
func (s *Session) Clear() error {
	pad, surface, _, err := s.current()
	if err != nil {
		return err
	}
	pad.Do(func(draw.Context) { surface.Clear() })
	return nil
}

// Save stores the sketch as the drawing of the day's diary entry.
func (s *Session) Save(ctx context.Context) (core.DiaryEntry, error) {
	pad, surface, date, err := s.current()
	if err != nil {
		return core.DiaryEntry{}, err
	}

	var url string
	pad.Do(func(draw.Context) { url, err = surface.SaveAsImage() })
	if err != nil {
		return core.DiaryEntry{}, err
	}
	return s.store.SaveDiary(ctx, core.DiaryUpdate{Date: &date, DrawingImageData: &url})
}

// AddSticker appends a sticker to the day's diary entry. The image must
// resolve so that the entry always composes.
func (s *Session) AddSticker(ctx context.Context, req StickerRequest) (core.Sticker, error) {
	_, _, date, err := s.current()
	if err != nil {
		return core.Sticker{}, err
	}
	if _, err := s.stickers.Sticker(req.ImageURL); err != nil {
		return core.Sticker{}, fmt.Errorf("sticker image unavailable: %w", err)
	}

	sticker := core.Sticker{
		ID:       "sticker_" + ulid.Make().String(),
		ImageURL: req.ImageURL,
		X:        req.X,
		Y:        req.Y,
		Scale:    req.Scale,
	}
	if sticker.Scale <= 0 {
		sticker.Scale = 1
	}

	if _, err := s.store.AddSticker(ctx, date, sticker); err != nil {
		return core.Sticker{}, err
	}

	s.play(sound.StickerAdd)
	return sticker, nil
}

// Close drops the sketch.
func (s *Session) Close() {
	s.mu.Lock()
	s.date = ""
	s.surface = nil
	s.pad = nil
	s.mu.Unlock()
}

func (s *Session) play(t sound.Type) {
	if s.player != nil {
		s.player.Play(t, sound.DefaultVolume)
	}
}

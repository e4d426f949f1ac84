// Package sound serves the UI's sound effects. Loading is best effort: a
// sound that cannot be read is logged and simply never plays.
package sound

import (
	"fmt"
	"io/fs"
	"math"
	"sync"

	"github.com/sirupsen/logrus"
)

// Type identifies a sound effect.
type Type string

const (
	FlipPage     Type = "flip-page"
	Writing      Type = "writing"
	TaskComplete Type = "task-complete"
	StickerAdd   Type = "sticker-add"
	Tap          Type = "tap"
)

// DefaultVolume is used when Play is given a negative volume.
const DefaultVolume = 0.5

// Types lists every known sound effect.
var Types = []Type{FlipPage, Writing, TaskComplete, StickerAdd, Tap}

// Valid reports whether t is a known sound effect.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Cue asks the UI to play a loaded sound.
type Cue struct {
	Type   Type    `json:"type"`
	Volume float64 `json:"volume"`
}

// Library caches sound files read from an fs.FS as <type>.mp3.
type Library struct {
	fsys fs.FS

	mu    sync.RWMutex
	cache map[Type][]byte
	sink  func(Cue)
}

// NewLibrary returns a library reading from fsys. A nil fsys loads nothing.
func NewLibrary(fsys fs.FS) *Library {
	return &Library{fsys: fsys, cache: make(map[Type][]byte)}
}

// SetSink sets the function cues are delivered to.
func (l *Library) SetSink(sink func(Cue)) {
	l.mu.Lock()
	l.sink = sink
	l.mu.Unlock()
}

// Preload loads the given types concurrently and waits for all of them.
func (l *Library) Preload(types ...Type) {
	var wg sync.WaitGroup
	for _, t := range types {
		wg.Add(1)
		go func(t Type) {
			defer wg.Done()
			l.load(t)
		}(t)
	}
	wg.Wait()
}

// Get returns the bytes of t, loading them on first use.
func (l *Library) Get(t Type) ([]byte, bool) {
	l.mu.RLock()
	data, ok := l.cache[t]
	l.mu.RUnlock()
	if ok {
		return data, true
	}
	return l.load(t)
}

// Play delivers a cue for t once it is loaded. It never blocks on loading.
func (l *Library) Play(t Type, volume float64) {
	if volume < 0 {
		volume = DefaultVolume
	}
	volume = math.Min(volume, 1)

	l.mu.RLock()
	_, cached := l.cache[t]
	l.mu.RUnlock()
	if cached {
		l.emit(Cue{Type: t, Volume: volume})
		return
	}

	go func() {
		if _, ok := l.load(t); ok {
			l.emit(Cue{Type: t, Volume: volume})
		}
	}()
}

func (l *Library) emit(c Cue) {
	l.mu.RLock()
	sink := l.sink
	l.mu.RUnlock()
	if sink != nil {
		sink(c)
	}
}

func (l *Library) load(t Type) ([]byte, bool) {
	log := logrus.WithField("sound", t)
	if !t.Valid() {
		log.Warn("Unknown sound type")
		return nil, false
	}
	if l.fsys == nil {
		return nil, false
	}

	data, err := fs.ReadFile(l.fsys, fileName(t))
	if err != nil {
		log.WithError(err).Error("Failed to load sound")
		return nil, false
	}

	l.mu.Lock()
	l.cache[t] = data
	l.mu.Unlock()
	log.WithField("size", len(data)).Debug("Sound loaded")
	return data, true
}

func fileName(t Type) string {
	return fmt.Sprintf("%s.mp3", t)
}

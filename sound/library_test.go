package sound

import (
	"testing"
	"testing/fstest"
	"time"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"tap.mp3":           {Data: []byte("tap-bytes")},
		"task-complete.mp3": {Data: []byte("done-bytes")},
	}
}

func TestGet_LoadsAndCaches(t *testing.T) {
	fsys := testFS()
	lib := NewLibrary(fsys)

	data, ok := lib.Get(Tap)
	if !ok || string(data) != "tap-bytes" {
		t.Fatalf("Get(Tap) = %q, %v", data, ok)
	}

	// Removing the file must not matter once cached.
	delete(fsys, "tap.mp3")
	if data, ok := lib.Get(Tap); !ok || string(data) != "tap-bytes" {
		t.Errorf("cached Get(Tap) = %q, %v", data, ok)
	}
}

func TestGet_MissingAndUnknownDegrade(t *testing.T) {
	lib := NewLibrary(testFS())
	if _, ok := lib.Get(FlipPage); ok {
		t.Error("Get() of a missing file should report false")
	}
	if _, ok := lib.Get(Type("../secret")); ok {
		t.Error("Get() of an unknown type should report false")
	}

	if _, ok := NewLibrary(nil).Get(Tap); ok {
		t.Error("a library without files should load nothing")
	}
}

func TestPreload(t *testing.T) {
	lib := NewLibrary(testFS())
	lib.Preload(Types...)

	lib.mu.RLock()
	defer lib.mu.RUnlock()
	if len(lib.cache) != 2 {
		t.Errorf("preloaded %d sounds, want 2", len(lib.cache))
	}
}

func TestPlay_DeliversCueOnceLoaded(t *testing.T) {
	lib := NewLibrary(testFS())
	cues := make(chan Cue, 4)
	lib.SetSink(func(c Cue) { cues <- c })

	lib.Play(TaskComplete, -1)
	select {
	case c := <-cues:
		if c.Type != TaskComplete || c.Volume != DefaultVolume {
			t.Errorf("cue = %+v", c)
		}
	case <-time.After(time.Second):
		t.Fatal("no cue delivered")
	}

	lib.Play(TaskComplete, 3)
	if c := <-cues; c.Volume != 1 {
		t.Errorf("volume = %v, want clamped to 1", c.Volume)
	}
}

func TestPlay_FailedLoadIsSilent(t *testing.T) {
	lib := NewLibrary(testFS())
	cues := make(chan Cue, 1)
	lib.SetSink(func(c Cue) { cues <- c })

	lib.Play(Writing, 0.5)
	select {
	case c := <-cues:
		t.Errorf("unexpected cue %+v", c)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTypeValid(t *testing.T) {
	for _, typ := range Types {
		if !typ.Valid() {
			t.Errorf("%q should be valid", typ)
		}
	}
	if Type("boom").Valid() {
		t.Error("unknown type reported valid")
	}
}

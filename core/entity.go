package core

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a KVStore when a key has never been written.
var ErrNotFound = errors.New("key not found")

type (
	// Task is a to-do item attached to one calendar day, or to a span of days
	// when IsDuration is set.
	Task struct {
		ID              string          `json:"id"`
		Title           string          `json:"title"`
		Icon            string          `json:"icon"`
		IsCompleted     bool            `json:"isCompleted"`
		Date            string          `json:"date"` // YYYY-MM-DD
		CompletedTime   *time.Time      `json:"completedTime,omitempty"`
		IsDuration      *bool           `json:"isDuration,omitempty"`
		DurationEndDate *string         `json:"durationEndDate,omitempty"` // YYYY-MM-DD
		DurationStatus  map[string]bool `json:"durationStatus,omitempty"`
	}

	// TaskInput carries everything a caller supplies when creating a task.
	// The id is always generated by the store.
	TaskInput struct {
		Title           string          `json:"title"`
		Icon            string          `json:"icon"`
		IsCompleted     bool            `json:"isCompleted"`
		Date            string          `json:"date"`
		IsDuration      *bool           `json:"isDuration,omitempty"`
		DurationEndDate *string         `json:"durationEndDate,omitempty"`
		DurationStatus  map[string]bool `json:"durationStatus,omitempty"`
	}

	// TaskUpdate is a field-level patch. A nil field leaves the stored value as is.
	TaskUpdate struct {
		Title           *string         `json:"title,omitempty"`
		Icon            *string         `json:"icon,omitempty"`
		IsCompleted     *bool           `json:"isCompleted,omitempty"`
		Date            *string         `json:"date,omitempty"`
		IsDuration      *bool           `json:"isDuration,omitempty"`
		DurationEndDate *string         `json:"durationEndDate,omitempty"`
		DurationStatus  map[string]bool `json:"durationStatus,omitempty"`
	}

	// Sticker is placement metadata for a decorative image on the diary canvas.
	Sticker struct {
		ID       string  `json:"id"`
		ImageURL string  `json:"imageUrl"`
		X        float64 `json:"x"`
		Y        float64 `json:"y"`
		Scale    float64 `json:"scale"`
	}

	// DiaryEntry is the single diary page of a calendar day.
	DiaryEntry struct {
		ID               string    `json:"id"`
		Date             string    `json:"date"` // YYYY-MM-DD, unique among entries
		Content          string    `json:"content"`
		Mood             *string   `json:"mood,omitempty"`
		Weather          *string   `json:"weather,omitempty"`
		DrawingImageData *string   `json:"drawingImageData,omitempty"` // data URL, opaque to the store
		Stickers         []Sticker `json:"stickers"`
		CreatedAt        time.Time `json:"createdAt"`
		UpdatedAt        time.Time `json:"updatedAt"`
	}

	// DiaryUpdate is the payload of an upsert-by-date. Date falls back to the
	// currently selected day when nil.
	DiaryUpdate struct {
		Date             *string    `json:"date,omitempty"`
		Content          *string    `json:"content,omitempty"`
		Mood             *string    `json:"mood,omitempty"`
		Weather          *string    `json:"weather,omitempty"`
		DrawingImageData *string    `json:"drawingImageData,omitempty"`
		Stickers         *[]Sticker `json:"stickers,omitempty"`
	}

	// KVStore is the durable string-keyed byte store the persistence layer writes to.
	KVStore interface {
		// Get returns the value stored under key, or ErrNotFound.
		Get(ctx context.Context, key string) ([]byte, error)

		// Set overwrites the value stored under key.
		Set(ctx context.Context, key string, value []byte) error

		// Delete removes key. Deleting a missing key is not an error.
		Delete(ctx context.Context, key string) error
	}
)

// Apply merges the non-nil fields of u into t.
func (u TaskUpdate) Apply(t *Task) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Icon != nil {
		t.Icon = *u.Icon
	}
	if u.IsCompleted != nil {
		t.IsCompleted = *u.IsCompleted
	}
	if u.Date != nil {
		t.Date = *u.Date
	}
	if u.IsDuration != nil {
		v := *u.IsDuration
		t.IsDuration = &v
	}
	if u.DurationEndDate != nil {
		v := *u.DurationEndDate
		t.DurationEndDate = &v
	}
	if u.DurationStatus != nil {
		t.DurationStatus = cloneStatus(u.DurationStatus)
	}
}

// Completes reports whether the update marks the task as completed.
func (u TaskUpdate) Completes() bool {
	return u.IsCompleted != nil && *u.IsCompleted
}

// Apply merges the non-nil content fields of u into e. Date is not touched.
func (u DiaryUpdate) Apply(e *DiaryEntry) {
	if u.Content != nil {
		e.Content = *u.Content
	}
	if u.Mood != nil {
		v := *u.Mood
		e.Mood = &v
	}
	if u.Weather != nil {
		v := *u.Weather
		e.Weather = &v
	}
	if u.DrawingImageData != nil {
		v := *u.DrawingImageData
		e.DrawingImageData = &v
	}
	if u.Stickers != nil {
		e.Stickers = append([]Sticker{}, (*u.Stickers)...)
	}
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	c := t
	if t.CompletedTime != nil {
		v := *t.CompletedTime
		c.CompletedTime = &v
	}
	if t.IsDuration != nil {
		v := *t.IsDuration
		c.IsDuration = &v
	}
	if t.DurationEndDate != nil {
		v := *t.DurationEndDate
		c.DurationEndDate = &v
	}
	c.DurationStatus = cloneStatus(t.DurationStatus)
	return c
}

// Spans reports whether t is a duration task.
func (t Task) Spans() bool {
	return t.IsDuration != nil && *t.IsDuration
}

// Clone returns a deep copy of e.
func (e DiaryEntry) Clone() DiaryEntry {
	c := e
	if e.Mood != nil {
		v := *e.Mood
		c.Mood = &v
	}
	if e.Weather != nil {
		v := *e.Weather
		c.Weather = &v
	}
	if e.DrawingImageData != nil {
		v := *e.DrawingImageData
		c.DrawingImageData = &v
	}
	// Entries always carry a sticker list, possibly empty.
	c.Stickers = append([]Sticker{}, e.Stickers...)
	return c
}

func cloneStatus(m map[string]bool) map[string]bool {
	if m == nil {
		return nil
	}
	c := make(map[string]bool, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

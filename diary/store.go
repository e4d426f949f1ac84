// Package diary is the in-memory state of the app: tasks, diary entries and
// the calendar selection. Every mutation writes the affected collection
// through to persistence before it returns and then notifies subscribers.
package diary

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"stable-thought/calendar"
	"stable-thought/core"
	"stable-thought/storage"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidSpan is returned for a duration that ends before it starts.
	ErrInvalidSpan = errors.New("duration ends before it starts")

	// ErrOutsideSpan is returned when toggling a day a duration does not cover.
	ErrOutsideSpan = errors.New("day is outside the task duration")
)

// Persistence is the subset of the storage gateway the store writes through.
type Persistence interface {
	GetTasks(ctx context.Context) ([]core.Task, storage.Result)
	SaveTasks(ctx context.Context, tasks []core.Task) storage.Result
	GetDiaryEntries(ctx context.Context) ([]core.DiaryEntry, storage.Result)
	SaveDiaryEntries(ctx context.Context, entries []core.DiaryEntry) storage.Result
}

// EventKind names the part of the state a mutation touched.
type EventKind string

const (
	EventTasks     EventKind = "tasks"
	EventDiary     EventKind = "diary"
	EventSelection EventKind = "selection"
	EventTheme     EventKind = "theme"
)

// Event is delivered to subscribers after a mutation has been applied.
type Event struct {
	Kind EventKind `json:"kind"`
	ID   string    `json:"id,omitempty"`
}

// State is a point-in-time copy of the store plus its derived values.
type State struct {
	Tasks                           []core.Task       `json:"tasks"`
	DiaryEntries                    []core.DiaryEntry `json:"diaryEntries"`
	SelectedDate                    string            `json:"selectedDate"`
	IsDetailOpen                    bool              `json:"isDetailOpen"`
	Theme                           string            `json:"theme"`
	Loading                         bool              `json:"loading"`
	CurrentDateTasks                []core.Task       `json:"currentDateTasks"`
	CurrentDateDiary                *core.DiaryEntry  `json:"currentDateDiary"`
	CurrentMonthCompletedTasksCount int               `json:"currentMonthCompletedTasksCount"`
	CurrentMonthDiaryDaysCount      int               `json:"currentMonthDiaryDaysCount"`
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store holds the task and diary collections. It is safe for concurrent use;
// each operation is applied atomically.
type Store struct {
	mu           sync.RWMutex
	p            Persistence
	now          func() time.Time
	tasks        []core.Task
	entries      []core.DiaryEntry
	selectedDate string
	detailOpen   bool
	theme        string
	loading      bool

	subMu  sync.Mutex
	subs   map[int]func(Event)
	nextID int
}

// New returns an empty store writing through p. The selection starts on today.
func New(p Persistence, opts ...Option) *Store {
	s := &Store{
		p:       p,
		now:     time.Now,
		tasks:   []core.Task{},
		entries: []core.DiaryEntry{},
		theme:   storage.DefaultTheme,
		subs:    make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.selectedDate = calendar.FormatDate(s.now())
	return s
}

// InitData replaces the in-memory collections with the persisted ones.
// Unreadable collections load as empty.
func (s *Store) InitData(ctx context.Context) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	tasks, res := s.p.GetTasks(ctx)
	if !res.OK() && res.Kind != storage.Missing {
		logrus.WithField("result", res.String()).Warn("Tasks could not be loaded, starting empty")
	}
	entries, res := s.p.GetDiaryEntries(ctx)
	if !res.OK() && res.Kind != storage.Missing {
		logrus.WithField("result", res.String()).Warn("Diary entries could not be loaded, starting empty")
	}

	s.mu.Lock()
	s.tasks = tasks
	s.entries = entries
	s.loading = false
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"tasks":   len(tasks),
		"entries": len(entries),
	}).Info("Store initialized")
	s.notify(Event{Kind: EventTasks})
	s.notify(Event{Kind: EventDiary})
}

// SelectDate moves the selection to t's local day and opens the detail view.
func (s *Store) SelectDate(t time.Time) {
	s.mu.Lock()
	s.selectedDate = calendar.FormatDate(t)
	s.detailOpen = true
	s.mu.Unlock()
	s.notify(Event{Kind: EventSelection})
}

// SelectDay is SelectDate for a date string.
func (s *Store) SelectDay(date string) error {
	t, err := calendar.ParseDate(date)
	if err != nil {
		return err
	}
	s.SelectDate(t)
	return nil
}

// CloseDetail closes the detail view. The selection is kept.
func (s *Store) CloseDetail() {
	s.mu.Lock()
	s.detailOpen = false
	s.mu.Unlock()
	s.notify(Event{Kind: EventSelection})
}

// SetTheme changes the theme in memory only.
func (s *Store) SetTheme(theme string) {
	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()
	s.notify(Event{Kind: EventTheme})
}

// AddTask creates a task from in. An empty date means the selected day.
func (s *Store) AddTask(ctx context.Context, in core.TaskInput) (core.Task, error) {
	s.mu.Lock()
	date, err := s.canonical(in.Date)
	if err != nil {
		s.mu.Unlock()
		return core.Task{}, err
	}
	task := core.Task{
		ID:              newID("task"),
		Title:           in.Title,
		Icon:            in.Icon,
		IsCompleted:     in.IsCompleted,
		Date:            date,
		IsDuration:      in.IsDuration,
		DurationEndDate: in.DurationEndDate,
		DurationStatus:  in.DurationStatus,
	}
	task = task.Clone()
	if err := fixSpan(&task); err != nil {
		s.mu.Unlock()
		return core.Task{}, err
	}

	tasks := append(append(make([]core.Task, 0, len(s.tasks)+1), s.tasks...), task)
	s.tasks = tasks
	s.p.SaveTasks(ctx, tasks)
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"id":   task.ID,
		"date": task.Date,
	}).Debug("Task added")
	s.notify(Event{Kind: EventTasks, ID: task.ID})
	return task.Clone(), nil
}

// UpdateTask merges u into the task with the given id. An update that sets
// IsCompleted to true stamps CompletedTime. It reports false, and writes
// nothing, when no task has that id. Dates are stored canonical; an invalid
// date or a span ending before its start is rejected.
func (s *Store) UpdateTask(ctx context.Context, id string, u core.TaskUpdate) (bool, error) {
	s.mu.Lock()
	i := s.taskIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}

	task := s.tasks[i].Clone()
	u.Apply(&task)
	if u.Date != nil || u.DurationEndDate != nil {
		day, err := calendar.Normalize(task.Date)
		if err == nil {
			task.Date = day
			err = fixSpan(&task)
		}
		if err != nil {
			s.mu.Unlock()
			return false, err
		}
	}
	if u.Completes() {
		now := s.now()
		task.CompletedTime = &now
	}

	tasks := append([]core.Task(nil), s.tasks...)
	tasks[i] = task
	s.tasks = tasks
	s.p.SaveTasks(ctx, tasks)
	s.mu.Unlock()

	s.notify(Event{Kind: EventTasks, ID: id})
	return true, nil
}

// DeleteTask removes the task with the given id. It reports false, and
// writes nothing, when no task has that id.
func (s *Store) DeleteTask(ctx context.Context, id string) bool {
	s.mu.Lock()
	i := s.taskIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}

	tasks := make([]core.Task, 0, len(s.tasks)-1)
	tasks = append(tasks, s.tasks[:i]...)
	tasks = append(tasks, s.tasks[i+1:]...)
	s.tasks = tasks
	s.p.SaveTasks(ctx, tasks)
	s.mu.Unlock()

	logrus.WithField("id", id).Debug("Task deleted")
	s.notify(Event{Kind: EventTasks, ID: id})
	return true
}

// ToggleTask flips IsCompleted through UpdateTask.
func (s *Store) ToggleTask(ctx context.Context, id string) bool {
	task, ok := s.Task(id)
	if !ok {
		return false
	}
	done := !task.IsCompleted
	ok, _ = s.UpdateTask(ctx, id, core.TaskUpdate{IsCompleted: &done})
	return ok
}

// ToggleDurationDay flips the per-day completion of a duration task. The day
// must fall within the task's span.
func (s *Store) ToggleDurationDay(ctx context.Context, id, date string) (bool, error) {
	day, err := calendar.Normalize(date)
	if err != nil {
		return false, err
	}
	task, ok := s.Task(id)
	if !ok {
		return false, nil
	}
	if !task.Spans() {
		return false, fmt.Errorf("task %s is not a duration task", id)
	}
	if !inSpan(task, day) {
		return false, fmt.Errorf("%w: %s", ErrOutsideSpan, day)
	}

	status := task.DurationStatus
	if status == nil {
		status = make(map[string]bool)
	}
	status[day] = !status[day]
	return s.UpdateTask(ctx, id, core.TaskUpdate{DurationStatus: status})
}

// SaveDiary upserts the entry for u.Date, or for the selected day when u.Date
// is nil. An existing entry keeps its id and CreatedAt.
func (s *Store) SaveDiary(ctx context.Context, u core.DiaryUpdate) (core.DiaryEntry, error) {
	var requested string
	if u.Date != nil {
		requested = *u.Date
	}
	return s.upsertDiary(ctx, requested, u.Apply)
}

// AddSticker appends st to the entry of date, creating the entry when the day
// has none. An empty date means the selected day.
func (s *Store) AddSticker(ctx context.Context, date string, st core.Sticker) (core.DiaryEntry, error) {
	return s.upsertDiary(ctx, date, func(e *core.DiaryEntry) {
		e.Stickers = append(e.Stickers, st)
	})
}

func (s *Store) upsertDiary(ctx context.Context, requested string, apply func(*core.DiaryEntry)) (core.DiaryEntry, error) {
	s.mu.Lock()
	date, err := s.canonical(requested)
	if err != nil {
		s.mu.Unlock()
		return core.DiaryEntry{}, err
	}

	now := s.now()
	entries := append([]core.DiaryEntry(nil), s.entries...)
	var saved core.DiaryEntry
	if i := entryIndex(entries, date); i >= 0 {
		saved = entries[i].Clone()
		apply(&saved)
		saved.UpdatedAt = now
		entries[i] = saved
	} else {
		saved = core.DiaryEntry{
			ID:        newID("diary"),
			Date:      date,
			Stickers:  []core.Sticker{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		apply(&saved)
		entries = append(entries, saved)
	}

	s.entries = entries
	s.p.SaveDiaryEntries(ctx, entries)
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"id":   saved.ID,
		"date": saved.Date,
	}).Debug("Diary saved")
	s.notify(Event{Kind: EventDiary, ID: saved.ID})
	return saved.Clone(), nil
}

// Task returns a copy of the task with the given id.
func (s *Store) Task(id string) (core.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.taskIndex(id); i >= 0 {
		return s.tasks[i].Clone(), true
	}
	return core.Task{}, false
}

// Diary returns a copy of the entry dated date.
func (s *Store) Diary(date string) (core.DiaryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return DiaryOn(s.entries, date)
}

// Tasks returns a copy of every task.
func (s *Store) Tasks() []core.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTasks(s.tasks)
}

// DiaryEntries returns a copy of every diary entry.
func (s *Store) DiaryEntries() []core.DiaryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEntries(s.entries)
}

// SelectedDate returns the canonical selected day.
func (s *Store) SelectedDate() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedDate
}

// IsDetailOpen reports whether the detail view is open.
func (s *Store) IsDetailOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.detailOpen
}

func (s *Store) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// CurrentDateTasks returns the tasks of the selected day.
func (s *Store) CurrentDateTasks() []core.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return TasksOn(s.tasks, s.selectedDate)
}

// CurrentDateDiary returns the diary entry of the selected day.
func (s *Store) CurrentDateDiary() (core.DiaryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return DiaryOn(s.entries, s.selectedDate)
}

// CurrentMonthCompletedTasksCount counts completed tasks of the real current
// month, whatever day is selected.
func (s *Store) CurrentMonthCompletedTasksCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CompletedInMonth(s.tasks, s.now())
}

// CurrentMonthDiaryDaysCount counts diary entries of the real current month.
func (s *Store) CurrentMonthDiaryDaysCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return DiaryDaysInMonth(s.entries, s.now())
}

// ActiveTasksOn returns the tasks to show on date, duration spans included.
func (s *Store) ActiveTasksOn(date string) []core.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ActiveTasksOn(s.tasks, date)
}

// Snapshot copies the whole state with derived values filled in.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	st := State{
		Tasks:                           cloneTasks(s.tasks),
		DiaryEntries:                    cloneEntries(s.entries),
		SelectedDate:                    s.selectedDate,
		IsDetailOpen:                    s.detailOpen,
		Theme:                           s.theme,
		Loading:                         s.loading,
		CurrentDateTasks:                TasksOn(s.tasks, s.selectedDate),
		CurrentMonthCompletedTasksCount: CompletedInMonth(s.tasks, now),
		CurrentMonthDiaryDaysCount:      DiaryDaysInMonth(s.entries, now),
	}
	if e, ok := DiaryOn(s.entries, s.selectedDate); ok {
		st.CurrentDateDiary = &e
	}
	return st
}

// Subscribe registers fn for every later mutation. fn runs on the mutating
// goroutine after the store lock is released. The returned func removes it.
func (s *Store) Subscribe(fn func(Event)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) notify(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// canonical normalizes date, falling back to the selected day when empty.
// Callers hold s.mu.
func (s *Store) canonical(date string) (string, error) {
	if date == "" {
		return s.selectedDate, nil
	}
	return calendar.Normalize(date)
}

// fixSpan canonicalizes t.DurationEndDate and checks it does not precede
// t.Date. An empty end date is dropped.
func fixSpan(t *core.Task) error {
	if t.DurationEndDate == nil {
		return nil
	}
	if *t.DurationEndDate == "" {
		t.DurationEndDate = nil
		return nil
	}
	end, err := calendar.Normalize(*t.DurationEndDate)
	if err != nil {
		return err
	}
	if end < t.Date {
		return fmt.Errorf("%w: %s is before %s", ErrInvalidSpan, end, t.Date)
	}
	t.DurationEndDate = &end
	return nil
}

func (s *Store) taskIndex(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func entryIndex(entries []core.DiaryEntry, date string) int {
	for i := range entries {
		if entries[i].Date == date {
			return i
		}
	}
	return -1
}

func newID(prefix string) string {
	return prefix + "_" + ulid.Make().String()
}

func cloneTasks(tasks []core.Task) []core.Task {
	out := make([]core.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

func cloneEntries(entries []core.DiaryEntry) []core.DiaryEntry {
	out := make([]core.DiaryEntry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}

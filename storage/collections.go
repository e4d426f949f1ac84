package storage

import (
	"context"

	"stable-thought/core"
)

// SaveTasks overwrites the whole task list.
func (g *Gateway) SaveTasks(ctx context.Context, tasks []core.Task) Result {
	if tasks == nil {
		tasks = []core.Task{}
	}
	return g.Save(ctx, KeyTasks, tasks)
}

// GetTasks returns the persisted task list, empty when none is stored.
func (g *Gateway) GetTasks(ctx context.Context) ([]core.Task, Result) {
	tasks, res := LoadOr(ctx, g, KeyTasks, []core.Task{})
	if tasks == nil {
		tasks = []core.Task{}
	}
	return tasks, res
}

// GetTasksByDate returns the persisted tasks dated date.
func (g *Gateway) GetTasksByDate(ctx context.Context, date string) []core.Task {
	tasks, _ := g.GetTasks(ctx)
	out := make([]core.Task, 0)
	for _, t := range tasks {
		if t.Date == date {
			out = append(out, t)
		}
	}
	return out
}

// SaveDiaryEntries overwrites the whole diary list.
func (g *Gateway) SaveDiaryEntries(ctx context.Context, entries []core.DiaryEntry) Result {
	if entries == nil {
		entries = []core.DiaryEntry{}
	}
	return g.Save(ctx, KeyDiaryEntries, entries)
}

// GetDiaryEntries returns the persisted diary entries, empty when none is stored.
func (g *Gateway) GetDiaryEntries(ctx context.Context) ([]core.DiaryEntry, Result) {
	entries, res := LoadOr(ctx, g, KeyDiaryEntries, []core.DiaryEntry{})
	if entries == nil {
		entries = []core.DiaryEntry{}
	}
	return entries, res
}

// GetDiaryByDate returns the persisted entry for date, if any.
func (g *Gateway) GetDiaryByDate(ctx context.Context, date string) (core.DiaryEntry, bool) {
	entries, _ := g.GetDiaryEntries(ctx)
	for _, e := range entries {
		if e.Date == date {
			return e, true
		}
	}
	return core.DiaryEntry{}, false
}

// SaveDiaryEntry replaces the stored entry with the same id, or appends it.
func (g *Gateway) SaveDiaryEntry(ctx context.Context, entry core.DiaryEntry) Result {
	entries, res := g.GetDiaryEntries(ctx)
	if res.Kind == StoreFailed {
		// Writing now would replace the unreadable list with a single entry.
		return res
	}

	replaced := false
	for i := range entries {
		if entries[i].ID == entry.ID {
			entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, entry)
	}
	return g.SaveDiaryEntries(ctx, entries)
}

// SaveTheme persists the theme name.
func (g *Gateway) SaveTheme(ctx context.Context, theme string) Result {
	return g.Save(ctx, KeyTheme, theme)
}

// GetTheme returns the persisted theme, DefaultTheme when none is stored.
func (g *Gateway) GetTheme(ctx context.Context) (string, Result) {
	return LoadOr(ctx, g, KeyTheme, DefaultTheme)
}

// SaveUserSettings persists the settings map.
func (g *Gateway) SaveUserSettings(ctx context.Context, settings core.UserSettings) Result {
	if settings == nil {
		settings = core.UserSettings{}
	}
	return g.Save(ctx, KeyUserSettings, settings)
}

// GetUserSettings returns the persisted settings, empty when none are stored.
func (g *Gateway) GetUserSettings(ctx context.Context) (core.UserSettings, Result) {
	settings, res := LoadOr(ctx, g, KeyUserSettings, core.UserSettings{})
	if settings == nil {
		settings = core.UserSettings{}
	}
	return settings, res
}

// SaveCustomIcons overwrites the custom icon list.
func (g *Gateway) SaveCustomIcons(ctx context.Context, icons []core.CustomIcon) Result {
	if icons == nil {
		icons = []core.CustomIcon{}
	}
	return g.Save(ctx, KeyCustomIcons, icons)
}

// GetCustomIcons returns the persisted custom icons, empty when none are stored.
func (g *Gateway) GetCustomIcons(ctx context.Context) ([]core.CustomIcon, Result) {
	icons, res := LoadOr(ctx, g, KeyCustomIcons, []core.CustomIcon{})
	if icons == nil {
		icons = []core.CustomIcon{}
	}
	return icons, res
}

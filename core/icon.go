package core

type (
	// CustomIcon is a user-uploaded task icon.
	CustomIcon struct {
		URL  string `json:"url"`  // data URL of the icon
		Data string `json:"data"` // base64 payload
	}

	// UserSettings is a free-form settings map persisted as one JSON object.
	UserSettings map[string]any
)

package store

type Preferences struct {
	Topics []string `json:"topics"`
}

type VisualSettings struct {
	Theme       string `json:"theme"`
	Layout      string `json:"layout"`
	AccentColor string `json:"accentColor"`
}

func DefaultVisualSettings() VisualSettings {
	return VisualSettings{
		Theme:       "dark",
		Layout:      "grid",
		AccentColor: "amber",
	}
}

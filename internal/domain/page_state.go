package domain

// PageState is the complete state of an open page, returned to callers so
// they can render the full canvas in one round trip.
type PageState struct {
	Page     Page     `json:"page"`
	Blocks   []Block  `json:"blocks"`
	Selected []string `json:"selected"`
}

package domain

// FileRef points at a file written by a FileStore.
type FileRef struct {
	URI  string `json:"uri"`
	Path string `json:"path"`
	Name string `json:"name"`
	Size int    `json:"size"`
}

// ShareOutcome is what a share sink reports. A dismissed share sheet is
// Shared=false with no error.
type ShareOutcome struct {
	Shared   bool   `json:"shared"`
	Location string `json:"location,omitempty"`
}

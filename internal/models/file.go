package models

// FileRef identifies one candidate program file.
type FileRef struct {
	// Name is the base file name.
	Name string `json:"name"`
	// RelPath is the path relative to the selected folder's parent,
	// so it starts with the folder name (e.g. "RobotA/path_Z01.2_034_R01.mod").
	RelPath string `json:"rel_path"`
	// URL locates the file for reading.
	URL string `json:"url,omitempty"`
}

// ItemPair is a new/old file pair sharing an item key.
type ItemPair struct {
	Key string  `json:"key"`
	New FileRef `json:"new"`
	Old FileRef `json:"old"`
}

// KeyedFile is a file that has a key on one side only.
type KeyedFile struct {
	Key  string  `json:"key"`
	File FileRef `json:"file"`
}

// PairResult is the outcome of pairing two file collections.
type PairResult struct {
	Pairs   []ItemPair  `json:"pairs"`
	NewOnly []KeyedFile `json:"new_only"`
	OldOnly []KeyedFile `json:"old_only"`
	// NewCount and OldCount are the numbers of distinct keys per side.
	NewCount int `json:"new_count"`
	OldCount int `json:"old_count"`
}

package service

import (
	"github.com/raphaelgruber/targetdiff/internal/models"
)

// keyedSet maps item keys to files, keeping the order in which keys first appeared.
type keyedSet struct {
	keys  []string
	files map[string]models.FileRef
}

func buildKeyedSet(profile models.KindProfile, files []models.FileRef) keyedSet {
	set := keyedSet{files: make(map[string]models.FileRef)}
	for _, f := range files {
		if !profile.Accepts(f.Name) {
			continue
		}
		key := profile.ItemKey(f)
		if key == "" {
			continue
		}
		if _, ok := set.files[key]; !ok {
			set.keys = append(set.keys, key)
		}
		// last file wins
		set.files[key] = f
	}
	return set
}

// PairItems filters both collections by the profile's file rules, derives
// item keys and splits them into matched pairs and one-sided files.
// Pairs and new-only files follow the new side's key order; old-only files
// follow the old side's.
func PairItems(profile models.KindProfile, newFiles, oldFiles []models.FileRef) models.PairResult {
	newSet := buildKeyedSet(profile, newFiles)
	oldSet := buildKeyedSet(profile, oldFiles)

	result := models.PairResult{
		Pairs:    []models.ItemPair{},
		NewOnly:  []models.KeyedFile{},
		OldOnly:  []models.KeyedFile{},
		NewCount: len(newSet.keys),
		OldCount: len(oldSet.keys),
	}
	for _, key := range newSet.keys {
		newFile := newSet.files[key]
		if oldFile, ok := oldSet.files[key]; ok {
			result.Pairs = append(result.Pairs, models.ItemPair{Key: key, New: newFile, Old: oldFile})
		} else {
			result.NewOnly = append(result.NewOnly, models.KeyedFile{Key: key, File: newFile})
		}
	}
	for _, key := range oldSet.keys {
		if _, ok := newSet.files[key]; !ok {
			result.OldOnly = append(result.OldOnly, models.KeyedFile{Key: key, File: oldSet.files[key]})
		}
	}
	return result
}

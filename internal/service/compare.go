// Package service runs comparisons and listings over two program file sets.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/targetdiff/internal/diff"
	"github.com/raphaelgruber/targetdiff/internal/metrics"
	"github.com/raphaelgruber/targetdiff/internal/models"
	"github.com/raphaelgruber/targetdiff/internal/parser"
	"github.com/raphaelgruber/targetdiff/internal/source"
)

var (
	// ErrNoInput is returned when a required input location is missing.
	ErrNoInput = errors.New("no input location")
	// ErrNoComparableItems is returned when nothing can be paired for comparison.
	ErrNoComparableItems = errors.New("no comparable items")
)

// FileSource lists and reads candidate files.
type FileSource interface {
	List(ctx context.Context, location string) ([]models.FileRef, error)
	ReadAll(ctx context.Context, files []models.FileRef, progress source.ProgressFunc) ([]string, error)
}

// CompareService pairs, reads and diffs two file sets.
type CompareService struct {
	source   FileSource
	profiles map[models.DeclarationKind]models.KindProfile
	metrics  *metrics.Collector
	now      func() time.Time
}

// NewCompareService creates a compare service. Kinds missing from profiles use
// their built-in profile; a nil collector gets a private one.
func NewCompareService(src FileSource, profiles map[models.DeclarationKind]models.KindProfile, collector *metrics.Collector) *CompareService {
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &CompareService{
		source:   src,
		profiles: profiles,
		metrics:  collector,
		now:      time.Now,
	}
}

// Profile returns the effective profile of a kind.
func (s *CompareService) Profile(kind models.DeclarationKind) (models.KindProfile, error) {
	if p, ok := s.profiles[kind]; ok {
		return p, nil
	}
	return models.DefaultProfile(kind)
}

// CompareRequest selects the kind and the two locations of a comparison.
type CompareRequest struct {
	Kind   models.DeclarationKind
	NewURL string
	OldURL string
	// Progress is called as paired files are read (optional).
	Progress source.ProgressFunc
}

// ListRequest selects the kind and locations of a file listing.
type ListRequest struct {
	Kind   models.DeclarationKind
	NewURL string
	OldURL string
}

// Listing is the pairing of two locations without any diff.
type Listing struct {
	Kind      models.DeclarationKind `json:"kind"`
	ItemLabel string                 `json:"item_label"`
	NewBase   string                 `json:"new_base"`
	OldBase   string                 `json:"old_base"`
	models.PairResult
}

// List pairs the files of both locations. Either side may be empty, not both.
func (s *CompareService) List(ctx context.Context, req ListRequest) (*Listing, error) {
	if req.NewURL == "" && req.OldURL == "" {
		return nil, ErrNoInput
	}
	profile, err := s.Profile(req.Kind)
	if err != nil {
		return nil, err
	}

	newFiles, oldFiles, err := s.listBoth(ctx, req.NewURL, req.OldURL)
	if err != nil {
		return nil, err
	}
	pairing := PairItems(profile, newFiles, oldFiles)
	slog.Info("listed items",
		"kind", profile.Kind,
		"matched", len(pairing.Pairs),
		"new_only", len(pairing.NewOnly),
		"old_only", len(pairing.OldOnly),
	)
	return &Listing{
		Kind:       profile.Kind,
		ItemLabel:  profile.ItemLabel,
		NewBase:    req.NewURL,
		OldBase:    req.OldURL,
		PairResult: pairing,
	}, nil
}

func (s *CompareService) listBoth(ctx context.Context, newURL, oldURL string) (newFiles, oldFiles []models.FileRef, err error) {
	done := s.metrics.Track(metrics.StageList)
	if newURL != "" {
		if newFiles, err = s.source.List(ctx, newURL); err != nil {
			return nil, nil, fmt.Errorf("list new files: %w", err)
		}
	}
	if oldURL != "" {
		if oldFiles, err = s.source.List(ctx, oldURL); err != nil {
			return nil, nil, fmt.Errorf("list old files: %w", err)
		}
	}
	done(len(newFiles) + len(oldFiles))
	return newFiles, oldFiles, nil
}

// Compare runs a full comparison and returns its report.
func (s *CompareService) Compare(ctx context.Context, req CompareRequest) (*diff.Report, error) {
	if req.NewURL == "" || req.OldURL == "" {
		return nil, ErrNoInput
	}
	profile, err := s.Profile(req.Kind)
	if err != nil {
		return nil, err
	}
	runID := uuid.New().String()
	log := slog.With("run", runID, "kind", profile.Kind)

	newFiles, oldFiles, err := s.listBoth(ctx, req.NewURL, req.OldURL)
	if err != nil {
		return nil, err
	}
	pairing := PairItems(profile, newFiles, oldFiles)
	log.Info("paired items",
		"new_files", pairing.NewCount,
		"old_files", pairing.OldCount,
		"matched", len(pairing.Pairs),
	)
	switch {
	case pairing.NewCount == 0:
		return nil, fmt.Errorf("%w: no valid %s files in %s", ErrNoComparableItems, profile.Extension, req.NewURL)
	case pairing.OldCount == 0:
		return nil, fmt.Errorf("%w: no valid %s files in %s", ErrNoComparableItems, profile.Extension, req.OldURL)
	case len(pairing.Pairs) == 0:
		return nil, fmt.Errorf("%w: no item keys match between new and old", ErrNoComparableItems)
	}

	files := make([]models.FileRef, 0, 2*len(pairing.Pairs))
	for _, pair := range pairing.Pairs {
		files = append(files, pair.New, pair.Old)
	}
	doneRead := s.metrics.Track(metrics.StageRead)
	texts, err := s.source.ReadAll(ctx, files, req.Progress)
	if err != nil {
		return nil, fmt.Errorf("read files: %w", err)
	}
	doneRead(len(files))
	log.Debug("read files", "files", len(files))

	grammar := parser.NewGrammar(profile)
	matcher := diff.NewMatcher(profile)
	builder := diff.NewBuilder(runID, profile, req.NewURL, req.OldURL)
	builder.SetPairing(pairing)
	for i, pair := range pairing.Pairs {
		doneExtract := s.metrics.Track(metrics.StageExtract)
		newRecords := grammar.Extract(texts[2*i])
		oldRecords := grammar.Extract(texts[2*i+1])
		doneExtract(len(newRecords) + len(oldRecords))

		doneDiff := s.metrics.Track(metrics.StageDiff)
		result := matcher.Match(pair.Key, newRecords, oldRecords)
		doneDiff(len(result.Rows))
		builder.Add(pair.Key, result)

		log.Debug("compared item", "item", pair.Key, "new_records", len(newRecords), "old_records", len(oldRecords), "rows", len(result.Rows))
	}

	report := builder.Build(s.now())
	log.Info("comparison complete",
		"rows", len(report.Rows),
		"changed", report.Summary.Changed,
		"added", report.Summary.Added,
		"deleted", report.Summary.Deleted,
	)
	return report, nil
}

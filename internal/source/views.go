package source

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dqaudit/dqaudit/internal/entity"
)

// Default page size applied to views that do not set one.
const defaultViewPageSize = 1000

// Sentinel errors for view descriptor validation. An unparseable descriptor
// is a configuration error and aborts the run; it is not a skippable record.
var (
	ErrViewUnknownType = errors.New("view references unknown entity type")
	ErrViewBadPageSize = errors.New("view page size must be positive")
)

// View tunes how one entity type is paged.
type View struct {
	Type      entity.Type `yaml:"type"`
	PageSize  int         `yaml:"page_size"`
	DatasetID string      `yaml:"dataset_id"`
	// Limit soft-caps ingested instances for this type; 0 means unlimited.
	Limit int64 `yaml:"limit"`
}

// Views maps entity types to their paging configuration.
type Views map[entity.Type]View

// DefaultViews returns a view per known entity type with default paging.
func DefaultViews() Views {
	views := make(Views, len(entity.AllTypes()))
	for _, t := range entity.AllTypes() {
		views[t] = View{Type: t, PageSize: defaultViewPageSize}
	}

	return views
}

// For returns the view for t, falling back to defaults for unknown types.
func (v Views) For(t entity.Type) View {
	view, ok := v[t]
	if !ok {
		return View{Type: t, PageSize: defaultViewPageSize}
	}

	return view
}

// LoadViews reads a YAML view descriptor file and overlays it on the
// defaults. The file is a list of views:
//
//	- type: asset
//	  page_size: 500
//	  limit: 100000
func LoadViews(path string) (Views, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read view descriptor: %w", err)
	}

	var parsed []View

	unmarshalErr := yaml.Unmarshal(data, &parsed)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("parse view descriptor %s: %w", path, unmarshalErr)
	}

	views := DefaultViews()

	for _, view := range parsed {
		if !entity.Known(view.Type) {
			return nil, fmt.Errorf("%w: %q in %s", ErrViewUnknownType, view.Type, path)
		}

		if view.PageSize < 0 {
			return nil, fmt.Errorf("%w: %d for %s", ErrViewBadPageSize, view.PageSize, view.Type)
		}

		if view.PageSize == 0 {
			view.PageSize = defaultViewPageSize
		}

		views[view.Type] = view
	}

	return views, nil
}

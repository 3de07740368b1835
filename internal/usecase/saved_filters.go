package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xavierca1/leadflow/internal/entity"
	"go.uber.org/zap"
)

const SavedFiltersKey = "saved_filters"

type SavedFilterInput struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	IsDefault   bool                  `json:"is_default"`
	Criteria    entity.FilterCriteria `json:"filters"`
}

// SavedFilterService keeps named filter presets in local storage. It has
// no server-side counterpart.
type SavedFilterService struct {
	Store  KeyValueStore
	Logger *zap.Logger
	Now    func() time.Time

	mu sync.Mutex
}

func NewSavedFilterService(store KeyValueStore, logger *zap.Logger) *SavedFilterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SavedFilterService{Store: store, Logger: logger, Now: time.Now}
}

func (s *SavedFilterService) List(ctx context.Context) ([]entity.SavedFilter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return st.filters, nil
}

func (s *SavedFilterService) Get(ctx context.Context, id string) (entity.SavedFilter, error) {
	filters, err := s.List(ctx)
	if err != nil {
		return entity.SavedFilter{}, err
	}
	for _, f := range filters {
		if f.ID == id {
			return f, nil
		}
	}
	return entity.SavedFilter{}, notFound(id)
}

// Find resolves a filter by id first, then by case-insensitive name.
func (s *SavedFilterService) Find(ctx context.Context, ref string) (entity.SavedFilter, error) {
	filters, err := s.List(ctx)
	if err != nil {
		return entity.SavedFilter{}, err
	}
	for _, f := range filters {
		if f.ID == ref {
			return f, nil
		}
	}
	for _, f := range filters {
		if strings.EqualFold(f.Name, strings.TrimSpace(ref)) {
			return f, nil
		}
	}
	return entity.SavedFilter{}, notFound(ref)
}

// Default returns the default filter, ok=false when none is marked.
func (s *SavedFilterService) Default(ctx context.Context) (entity.SavedFilter, bool, error) {
	filters, err := s.List(ctx)
	if err != nil {
		return entity.SavedFilter{}, false, err
	}
	for _, f := range filters {
		if f.IsDefault {
			return f, true, nil
		}
	}
	return entity.SavedFilter{}, false, nil
}

func (s *SavedFilterService) Create(ctx context.Context, in SavedFilterInput) (entity.SavedFilter, error) {
	var created entity.SavedFilter
	err := s.mutate(ctx, func(filters []entity.SavedFilter) ([]entity.SavedFilter, error) {
		name := strings.TrimSpace(in.Name)
		if errs := validateFilterName(filters, name, ""); len(errs) > 0 {
			return nil, errs
		}
		now := s.Now().UTC()
		created = entity.SavedFilter{
			ID:          uuid.New().String(),
			Name:        name,
			Description: strings.TrimSpace(in.Description),
			IsDefault:   in.IsDefault,
			Criteria:    in.Criteria.Clone(),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if created.IsDefault {
			clearDefault(filters, now)
		}
		return append(filters, created), nil
	})
	return created, err
}

func (s *SavedFilterService) Update(ctx context.Context, id string, in SavedFilterInput) (entity.SavedFilter, error) {
	var updated entity.SavedFilter
	err := s.mutate(ctx, func(filters []entity.SavedFilter) ([]entity.SavedFilter, error) {
		i := slices.IndexFunc(filters, func(f entity.SavedFilter) bool { return f.ID == id })
		if i < 0 {
			return nil, notFound(id)
		}
		name := strings.TrimSpace(in.Name)
		if errs := validateFilterName(filters, name, id); len(errs) > 0 {
			return nil, errs
		}
		now := s.Now().UTC()
		if in.IsDefault {
			clearDefault(filters, now)
		}
		f := filters[i]
		f.Name = name
		f.Description = strings.TrimSpace(in.Description)
		f.IsDefault = in.IsDefault
		f.Criteria = in.Criteria.Clone()
		f.UpdatedAt = now
		filters[i] = f
		updated = f
		return filters, nil
	})
	return updated, err
}

func (s *SavedFilterService) Delete(ctx context.Context, id string) error {
	return s.mutate(ctx, func(filters []entity.SavedFilter) ([]entity.SavedFilter, error) {
		i := slices.IndexFunc(filters, func(f entity.SavedFilter) bool { return f.ID == id })
		if i < 0 {
			return nil, notFound(id)
		}
		return slices.Delete(filters, i, i+1), nil
	})
}

// SetDefault marks id as the only default filter.
func (s *SavedFilterService) SetDefault(ctx context.Context, id string) error {
	return s.mutate(ctx, func(filters []entity.SavedFilter) ([]entity.SavedFilter, error) {
		i := slices.IndexFunc(filters, func(f entity.SavedFilter) bool { return f.ID == id })
		if i < 0 {
			return nil, notFound(id)
		}
		now := s.Now().UTC()
		clearDefault(filters, now)
		filters[i].IsDefault = true
		filters[i].UpdatedAt = now
		return filters, nil
	})
}

func (s *SavedFilterService) ClearDefault(ctx context.Context) error {
	return s.mutate(ctx, func(filters []entity.SavedFilter) ([]entity.SavedFilter, error) {
		clearDefault(filters, s.Now().UTC())
		return filters, nil
	})
}

// mutate rewrites the stored list. Entries that did not decode are written
// back untouched, and a stored value that is not a list is never replaced.
func (s *SavedFilterService) mutate(ctx context.Context, edit func([]entity.SavedFilter) ([]entity.SavedFilter, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load(ctx)
	if err != nil {
		return err
	}
	if st.corrupt {
		return &TechnicalError{Code: CodeStorageError, Message: "saved filters are unreadable, refusing to overwrite them"}
	}
	next, err := edit(st.filters)
	if err != nil {
		return err
	}

	out := make([]json.RawMessage, 0, len(next)+len(st.unreadable))
	for _, f := range next {
		raw, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("encode saved filter %s: %w", f.ID, err)
		}
		out = append(out, raw)
	}
	out = append(out, st.unreadable...)
	raw, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode saved filters: %w", err)
	}
	if err := s.Store.Put(ctx, SavedFiltersKey, raw); err != nil {
		return &TechnicalError{Code: CodeStorageError, Message: "failed to save filters", Err: err}
	}
	return nil
}

type storedFilters struct {
	filters    []entity.SavedFilter
	unreadable []json.RawMessage
	// corrupt is set when the stored value is not a JSON list at all.
	corrupt bool
}

func (s *SavedFilterService) load(ctx context.Context) (storedFilters, error) {
	st := storedFilters{filters: []entity.SavedFilter{}}
	raw, ok, err := s.Store.Get(ctx, SavedFiltersKey)
	if err != nil {
		return st, &TechnicalError{Code: CodeStorageError, Message: "failed to read saved filters", Err: err}
	}
	if !ok {
		return st, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.Logger.Warn("saved filters are corrupt, reading them as empty", zap.Error(err))
		st.corrupt = true
		return st, nil
	}
	for i, e := range entries {
		var f entity.SavedFilter
		if err := json.Unmarshal(e, &f); err != nil || f.ID == "" {
			s.Logger.Warn("skipping unreadable saved filter", zap.Int("index", i), zap.Error(err))
			st.unreadable = append(st.unreadable, e)
			continue
		}
		st.filters = append(st.filters, f)
	}
	return st, nil
}

func validateFilterName(filters []entity.SavedFilter, name, selfID string) ValidationErrors {
	if name == "" {
		return ValidationErrors{{"name", "is required"}}
	}
	for _, f := range filters {
		if f.ID != selfID && strings.EqualFold(f.Name, name) {
			return ValidationErrors{{"name", fmt.Sprintf("a filter named %q already exists", f.Name)}}
		}
	}
	return nil
}

func clearDefault(filters []entity.SavedFilter, now time.Time) {
	for i := range filters {
		if filters[i].IsDefault {
			filters[i].IsDefault = false
			filters[i].UpdatedAt = now
		}
	}
}

func notFound(ref string) error {
	return &DomainError{Code: CodeFilterNotFound, Message: fmt.Sprintf("saved filter %q not found", ref)}
}

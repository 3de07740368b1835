package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/xavierca1/leadflow/internal/entity"
	"go.uber.org/zap"
)

const StagesKey = "pipeline_stages"

// StageRegistry holds the ordered pipeline stages. Every mutation is
// validated as a whole; a rejected edit leaves the registry untouched.
type StageRegistry struct {
	Store  KeyValueStore
	Logger *zap.Logger

	mu        sync.RWMutex
	stages    []entity.Stage
	listeners []func([]entity.Stage)
}

func NewStageRegistry(store KeyValueStore, logger *zap.Logger) *StageRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StageRegistry{
		Store:  store,
		Logger: logger,
		stages: entity.DefaultStages(),
	}
}

// Load replaces the in-memory stages with the persisted ones, keeping the
// defaults when nothing valid is stored.
func (r *StageRegistry) Load(ctx context.Context) error {
	if r.Store == nil {
		return nil
	}
	raw, ok, err := r.Store.Get(ctx, StagesKey)
	if err != nil {
		return &TechnicalError{Code: CodeStorageError, Message: "failed to load pipeline stages", Err: err}
	}
	if !ok {
		return nil
	}
	var stages []entity.Stage
	if err := json.Unmarshal(raw, &stages); err != nil {
		r.Logger.Warn("stored pipeline stages are corrupt, using defaults", zap.Error(err))
		return nil
	}
	if errs := validateStages(stages); len(errs) > 0 {
		r.Logger.Warn("stored pipeline stages are invalid, using defaults", zap.Error(errs))
		return nil
	}
	r.mu.Lock()
	r.stages = stages
	r.mu.Unlock()
	return nil
}

func (r *StageRegistry) Stages() []entity.Stage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.stages)
}

func (r *StageRegistry) Stage(id string) (entity.Stage, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.stages {
		if s.ID == id {
			return s, true
		}
	}
	return entity.Stage{}, false
}

func (r *StageRegistry) Has(id string) bool {
	_, ok := r.Stage(id)
	return ok
}

// OnChange registers fn to run after every successful mutation.
func (r *StageRegistry) OnChange(fn func([]entity.Stage)) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

func (r *StageRegistry) Add(ctx context.Context, stage entity.Stage) error {
	return r.mutate(ctx, func(cur []entity.Stage) ([]entity.Stage, error) {
		return append(cur, normalizeStage(stage)), nil
	})
}

// Update replaces the stage with the given id. The id itself may change.
func (r *StageRegistry) Update(ctx context.Context, id string, stage entity.Stage) error {
	return r.mutate(ctx, func(cur []entity.Stage) ([]entity.Stage, error) {
		i := slices.IndexFunc(cur, func(s entity.Stage) bool { return s.ID == id })
		if i < 0 {
			return nil, &DomainError{Code: CodeStageNotFound, Message: fmt.Sprintf("stage %q not found", id)}
		}
		cur[i] = normalizeStage(stage)
		return cur, nil
	})
}

// Remove drops a stage. Leads still carrying its id become unassigned.
func (r *StageRegistry) Remove(ctx context.Context, id string) error {
	return r.mutate(ctx, func(cur []entity.Stage) ([]entity.Stage, error) {
		i := slices.IndexFunc(cur, func(s entity.Stage) bool { return s.ID == id })
		if i < 0 {
			return nil, &DomainError{Code: CodeStageNotFound, Message: fmt.Sprintf("stage %q not found", id)}
		}
		return slices.Delete(cur, i, i+1), nil
	})
}

// Reorder takes the complete list of stage ids in their new order.
func (r *StageRegistry) Reorder(ctx context.Context, ids []string) error {
	return r.mutate(ctx, func(cur []entity.Stage) ([]entity.Stage, error) {
		if len(ids) != len(cur) {
			return nil, ValidationErrors{{"order", "must list every stage exactly once"}}
		}
		byID := make(map[string]entity.Stage, len(cur))
		for _, s := range cur {
			byID[s.ID] = s
		}
		out := make([]entity.Stage, 0, len(ids))
		for _, id := range ids {
			s, ok := byID[id]
			if !ok {
				return nil, ValidationErrors{{"order", fmt.Sprintf("unknown or repeated stage %q", id)}}
			}
			delete(byID, id)
			out = append(out, s)
		}
		return out, nil
	})
}

func (r *StageRegistry) Replace(ctx context.Context, stages []entity.Stage) error {
	return r.mutate(ctx, func([]entity.Stage) ([]entity.Stage, error) {
		out := make([]entity.Stage, len(stages))
		for i, s := range stages {
			out[i] = normalizeStage(s)
		}
		return out, nil
	})
}

func (r *StageRegistry) mutate(ctx context.Context, edit func([]entity.Stage) ([]entity.Stage, error)) error {
	r.mu.Lock()
	next, err := edit(slices.Clone(r.stages))
	if err != nil {
		r.mu.Unlock()
		return err
	}
	if errs := validateStages(next); len(errs) > 0 {
		r.mu.Unlock()
		return errs
	}
	if r.Store != nil {
		raw, err := json.Marshal(next)
		if err != nil {
			r.mu.Unlock()
			return fmt.Errorf("encode stages: %w", err)
		}
		if err := r.Store.Put(ctx, StagesKey, raw); err != nil {
			r.mu.Unlock()
			return &TechnicalError{Code: CodeStorageError, Message: "failed to save pipeline stages", Err: err}
		}
	}
	r.stages = next
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()

	snapshot := slices.Clone(next)
	for _, fn := range listeners {
		fn(snapshot)
	}
	return nil
}

func normalizeStage(s entity.Stage) entity.Stage {
	s.ID = strings.TrimSpace(s.ID)
	s.Name = strings.TrimSpace(s.Name)
	return s
}

func validateStages(stages []entity.Stage) ValidationErrors {
	var errs ValidationErrors
	if len(stages) == 0 {
		return ValidationErrors{{"stages", "at least one stage is required"}}
	}
	seen := make(map[string]bool, len(stages))
	for i, s := range stages {
		if s.ID == "" {
			errs = append(errs, ValidationError{fmt.Sprintf("stages[%d].id", i), "is required"})
			continue
		}
		if s.Name == "" {
			errs = append(errs, ValidationError{fmt.Sprintf("stages[%d].name", i), "is required"})
		}
		if seen[s.ID] {
			errs = append(errs, ValidationError{fmt.Sprintf("stages[%d].id", i), fmt.Sprintf("duplicate stage id %q", s.ID)})
		}
		seen[s.ID] = true
	}
	return errs
}

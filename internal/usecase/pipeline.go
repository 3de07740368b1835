package usecase

import (
	"slices"

	"github.com/xavierca1/leadflow/internal/entity"
)

// Snapshot is the board grouped by stage, in registry order.
type Snapshot struct {
	Order  []string                 `json:"order"`
	Stages map[string][]entity.Lead `json:"stages"`
}

type StageMetrics struct {
	Count      int     `json:"count"`
	TotalValue float64 `json:"total_value"`
}

type Metrics map[string]StageMetrics

// Partition groups leads by status. Every stage gets a sequence, even an
// empty one. Leads whose status matches no stage are left out.
func Partition(leads []entity.Lead, stages []entity.Stage) Snapshot {
	snap := Snapshot{
		Order:  make([]string, 0, len(stages)),
		Stages: make(map[string][]entity.Lead, len(stages)),
	}
	for _, s := range stages {
		snap.Order = append(snap.Order, s.ID)
		snap.Stages[s.ID] = []entity.Lead{}
	}
	for _, l := range leads {
		seq, ok := snap.Stages[l.Status]
		if !ok {
			continue
		}
		snap.Stages[l.Status] = append(seq, l.Clone())
	}
	return snap
}

// Unrecognized returns the leads Partition would drop.
func Unrecognized(leads []entity.Lead, stages []entity.Stage) []entity.Lead {
	known := make(map[string]struct{}, len(stages))
	for _, s := range stages {
		known[s.ID] = struct{}{}
	}
	var out []entity.Lead
	for _, l := range leads {
		if _, ok := known[l.Status]; !ok {
			out = append(out, l.Clone())
		}
	}
	return out
}

func Aggregate(snap Snapshot) Metrics {
	m := make(Metrics, len(snap.Order))
	for _, id := range snap.Order {
		m[id] = stageMetrics(snap.Stages[id])
	}
	return m
}

func stageMetrics(seq []entity.Lead) StageMetrics {
	sm := StageMetrics{Count: len(seq)}
	for _, l := range seq {
		sm.TotalValue += dealValue(l)
	}
	return sm
}

func dealValue(l entity.Lead) float64 {
	if l.DealValue != l.DealValue || l.DealValue < 0 { // NaN or corrupt
		return 0
	}
	return l.DealValue
}

func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Order:  slices.Clone(s.Order),
		Stages: make(map[string][]entity.Lead, len(s.Stages)),
	}
	for id, seq := range s.Stages {
		cp := make([]entity.Lead, len(seq))
		for i, l := range seq {
			cp[i] = l.Clone()
		}
		out.Stages[id] = cp
	}
	return out
}

func (m Metrics) Clone() Metrics {
	out := make(Metrics, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Locate returns the stage and index of a lead, or ok=false.
func (s Snapshot) Locate(leadID string) (stage string, index int, ok bool) {
	for _, id := range s.Order {
		for i, l := range s.Stages[id] {
			if l.ID == leadID {
				return id, i, true
			}
		}
	}
	return "", -1, false
}

func (s Snapshot) Total() int {
	n := 0
	for _, seq := range s.Stages {
		n += len(seq)
	}
	return n
}

func removeAt(seq []entity.Lead, i int) ([]entity.Lead, entity.Lead) {
	l := seq[i]
	return slices.Delete(slices.Clone(seq), i, i+1), l
}

func insertAt(seq []entity.Lead, i int, l entity.Lead) []entity.Lead {
	i = max(0, min(i, len(seq)))
	return slices.Insert(slices.Clone(seq), i, l)
}

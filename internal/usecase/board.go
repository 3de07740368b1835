package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xavierca1/leadflow/internal/entity"
	"go.uber.org/zap"
)

type BoardState int

const (
	BoardIdle BoardState = iota
	BoardLoading
	BoardReady
	BoardMutating
)

func (s BoardState) String() string {
	switch s {
	case BoardIdle:
		return "idle"
	case BoardLoading:
		return "loading"
	case BoardReady:
		return "ready"
	case BoardMutating:
		return "mutating"
	default:
		return fmt.Sprintf("BoardState(%d)", int(s))
	}
}

func (s BoardState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type StageSource interface {
	Stages() []entity.Stage
}

type MoveRequest struct {
	LeadID    string `json:"lead_id"`
	FromStage string `json:"from_stage"`
	FromIndex int    `json:"from_index"`
	ToStage   string `json:"to_stage"`
	ToIndex   int    `json:"to_index"`
}

type MoveOutcome int

const (
	MoveNoop MoveOutcome = iota
	MoveReordered
	MoveQueued
)

func (o MoveOutcome) String() string {
	switch o {
	case MoveNoop:
		return "noop"
	case MoveReordered:
		return "reordered"
	default:
		return "queued"
	}
}

// BoardView is a consistent copy of the board taken under one lock.
type BoardView struct {
	State      BoardState     `json:"state"`
	Stages     []entity.Stage `json:"stages"`
	Snapshot   Snapshot       `json:"snapshot"`
	Metrics    Metrics        `json:"metrics"`
	Unassigned []entity.Lead  `json:"unassigned"`
	Revision   uint64         `json:"revision"`
}

type rollbackPoint struct {
	snapshot   Snapshot
	metrics    Metrics
	revision   uint64
	surgical   bool // full restore no longer valid
	version    uint64
	fromStage  string
	fromIndex  int
	fromName   string
	prevUpdate time.Time
}

type syncJob struct {
	ctx      context.Context
	lead     entity.Lead
	toStage  string
	toName   string
	rollback rollbackPoint
}

// Board is the pipeline board controller. Moves are applied to the local
// snapshot immediately and synced to the backend afterwards, one FIFO
// queue per lead. A failed sync restores the pre-move state unless a newer
// mutation owns it.
type Board struct {
	Gateway     LeadGateway
	Stages      StageSource
	Notifier    Notifier
	Events      EventPublisher
	Recorder    MoveRecorder
	Logger      *zap.Logger
	SyncTimeout time.Duration
	PageSize    int
	Now         func() time.Time

	mu         sync.Mutex
	state      BoardState
	snapshot   Snapshot
	metrics    Metrics
	unassigned []entity.Lead
	revision   uint64
	versions   map[string]uint64
	queues     map[string][]syncJob
	pending    int
	wg         sync.WaitGroup
}

func NewBoard(gateway LeadGateway, stages StageSource, notifier Notifier, logger *zap.Logger) *Board {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Board{
		Gateway:     gateway,
		Stages:      stages,
		Notifier:    notifier,
		Recorder:    nopRecorder{},
		Logger:      logger,
		SyncTimeout: 15 * time.Second,
		Now:         time.Now,
		state:       BoardIdle,
		snapshot:    Partition(nil, nil),
		metrics:     Metrics{},
		versions:    make(map[string]uint64),
		queues:      make(map[string][]syncJob),
	}
}

func (b *Board) State() BoardState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Board) View() BoardView {
	stages := b.Stages.Stages()
	b.mu.Lock()
	defer b.mu.Unlock()
	v := BoardView{
		State:    b.state,
		Stages:   stages,
		Snapshot: b.snapshot.Clone(),
		Metrics:  b.metrics.Clone(),
		Revision: b.revision,
	}
	v.Unassigned = make([]entity.Lead, len(b.unassigned))
	for i, l := range b.unassigned {
		v.Unassigned[i] = l.Clone()
	}
	return v
}

func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot.Clone()
}

func (b *Board) Metrics() Metrics {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.metrics.Clone()
}

// Unassigned lists leads whose status matches no registered stage.
func (b *Board) Unassigned() []entity.Lead {
	return b.View().Unassigned
}

func (b *Board) Lead(id string) (entity.Lead, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if stage, i, ok := b.snapshot.Locate(id); ok {
		return b.snapshot.Stages[stage][i].Clone(), true
	}
	for _, l := range b.unassigned {
		if l.ID == id {
			return l.Clone(), true
		}
	}
	return entity.Lead{}, false
}

// Pending reports whether lead id still has backend syncs queued.
func (b *Board) Pending(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queues[id]) > 0
}

// Wait blocks until every queued sync has finished.
func (b *Board) Wait() {
	b.wg.Wait()
}

// Load fetches the lead list and rebuilds the board. A failed fetch still
// leaves the board Ready, empty, with an error notification.
func (b *Board) Load(ctx context.Context) error {
	b.mu.Lock()
	b.state = BoardLoading
	b.mu.Unlock()
	return b.reload(ctx)
}

// reload runs with the board already in BoardLoading.
func (b *Board) reload(ctx context.Context) error {
	fetchCtx, cancel := b.withTimeout(ctx)
	leads, err := b.Gateway.ListLeads(fetchCtx, ListLeadsParams{PageSize: b.PageSize})
	cancel()
	stages := b.Stages.Stages()

	b.mu.Lock()
	if err != nil {
		b.snapshot = Partition(nil, stages)
		b.unassigned = nil
	} else {
		b.snapshot = Partition(leads, stages)
		b.unassigned = Unrecognized(leads, stages)
	}
	b.metrics = Aggregate(b.snapshot)
	b.revision++
	b.settleLocked()
	unassigned := len(b.unassigned)
	total := b.snapshot.Total()
	b.mu.Unlock()

	if err != nil {
		b.Logger.Error("failed to load leads", zap.Error(err))
		b.notify(NotifyError, "Failed to load leads", err.Error(), "")
		return &TechnicalError{Code: CodeBackendError, Message: "failed to load leads", Err: err}
	}
	if unassigned > 0 {
		b.Logger.Warn("leads with unknown stage left off the board", zap.Int("count", unassigned))
	}
	b.Logger.Info("board loaded", zap.Int("leads", total), zap.Int("stages", len(stages)))
	return nil
}

// Refresh reloads the board unless syncs are in flight. It reports whether
// a reload happened.
func (b *Board) Refresh(ctx context.Context) (bool, error) {
	b.mu.Lock()
	if b.pending > 0 || b.state == BoardLoading {
		b.mu.Unlock()
		return false, nil
	}
	b.state = BoardLoading
	b.mu.Unlock()
	return true, b.reload(ctx)
}

// Move relocates a lead. The local change is visible as soon as Move
// returns; the backend sync runs asynchronously.
func (b *Board) Move(ctx context.Context, req MoveRequest) (MoveOutcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BoardIdle || b.state == BoardLoading {
		return MoveNoop, &DomainError{Code: CodeInvalidMove, Message: "board is not ready"}
	}
	src, ok := b.snapshot.Stages[req.FromStage]
	if !ok {
		return MoveNoop, &DomainError{Code: CodeInvalidMove, Message: fmt.Sprintf("unknown source stage %q", req.FromStage)}
	}
	if req.FromIndex < 0 || req.FromIndex >= len(src) || src[req.FromIndex].ID != req.LeadID {
		return MoveNoop, &DomainError{Code: CodeInvalidMove, Message: fmt.Sprintf("lead %q is not at %s[%d]", req.LeadID, req.FromStage, req.FromIndex)}
	}
	dst, ok := b.snapshot.Stages[req.ToStage]
	if !ok {
		return MoveNoop, &DomainError{Code: CodeInvalidMove, Message: fmt.Sprintf("unknown destination stage %q", req.ToStage)}
	}

	if req.FromStage == req.ToStage {
		to := max(0, min(req.ToIndex, len(src)-1))
		if to == req.FromIndex {
			return MoveNoop, nil
		}
		seq, lead := removeAt(src, req.FromIndex)
		b.snapshot.Stages[req.FromStage] = insertAt(seq, to, lead)
		b.revision++
		return MoveReordered, nil
	}

	rb := rollbackPoint{
		snapshot:  b.snapshot.Clone(),
		metrics:   b.metrics.Clone(),
		fromStage: req.FromStage,
		fromIndex: req.FromIndex,
		fromName:  b.stageName(req.FromStage),
	}

	seq, lead := removeAt(src, req.FromIndex)
	rb.prevUpdate = lead.UpdatedAt
	lead.Status = req.ToStage
	lead.UpdatedAt = b.Now().UTC()
	b.snapshot.Stages[req.FromStage] = seq
	b.snapshot.Stages[req.ToStage] = insertAt(dst, req.ToIndex, lead)
	b.metrics[req.FromStage] = stageMetrics(b.snapshot.Stages[req.FromStage])
	b.metrics[req.ToStage] = stageMetrics(b.snapshot.Stages[req.ToStage])

	b.revision++
	b.versions[lead.ID]++
	rb.revision = b.revision
	rb.version = b.versions[lead.ID]

	b.enqueueLocked(syncJob{
		ctx:      context.WithoutCancel(ctx),
		lead:     lead.Clone(),
		toStage:  req.ToStage,
		toName:   b.stageName(req.ToStage),
		rollback: rb,
	})
	return MoveQueued, nil
}

// ApplyLeadUpdate stores an edited lead in place. A status change moves it
// to the end of its new stage.
func (b *Board) ApplyLeadUpdate(lead entity.Lead) {
	lead = lead.Clone()
	b.mu.Lock()
	defer b.mu.Unlock()

	stage, i, found := b.snapshot.Locate(lead.ID)
	if found && stage == lead.Status {
		b.snapshot.Stages[stage][i] = lead
		b.metrics[stage] = stageMetrics(b.snapshot.Stages[stage])
		b.revision++
		return
	}
	if found {
		seq, _ := removeAt(b.snapshot.Stages[stage], i)
		b.snapshot.Stages[stage] = seq
		b.metrics[stage] = stageMetrics(seq)
	} else {
		b.dropUnassignedLocked(lead.ID)
	}
	b.placeLocked(lead)
	b.versions[lead.ID]++
	b.revision++
}

// RemoveLead drops a lead from the board. It reports whether it was there.
func (b *Board) RemoveLead(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if stage, i, ok := b.snapshot.Locate(id); ok {
		seq, _ := removeAt(b.snapshot.Stages[stage], i)
		b.snapshot.Stages[stage] = seq
		b.metrics[stage] = stageMetrics(seq)
		b.versions[id]++
		b.revision++
		return true
	}
	if b.dropUnassignedLocked(id) {
		b.revision++
		return true
	}
	return false
}

// Repartition rebuilds the snapshot for a new stage list, keeping lead
// order and bringing back leads whose stage reappeared.
func (b *Board) Repartition(stages []entity.Stage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	flat := make([]entity.Lead, 0, b.snapshot.Total()+len(b.unassigned))
	for _, id := range b.snapshot.Order {
		flat = append(flat, b.snapshot.Stages[id]...)
	}
	flat = append(flat, b.unassigned...)
	b.snapshot = Partition(flat, stages)
	b.unassigned = Unrecognized(flat, stages)
	b.metrics = Aggregate(b.snapshot)
	b.revision++
}

func (b *Board) placeLocked(lead entity.Lead) {
	if seq, ok := b.snapshot.Stages[lead.Status]; ok {
		b.snapshot.Stages[lead.Status] = append(seq, lead)
		b.metrics[lead.Status] = stageMetrics(b.snapshot.Stages[lead.Status])
		return
	}
	b.unassigned = append(b.unassigned, lead)
}

func (b *Board) dropUnassignedLocked(id string) bool {
	for i, l := range b.unassigned {
		if l.ID == id {
			b.unassigned = append(b.unassigned[:i:i], b.unassigned[i+1:]...)
			return true
		}
	}
	return false
}

func (b *Board) enqueueLocked(job syncJob) {
	id := job.lead.ID
	b.pending++
	b.wg.Add(1)
	q := b.queues[id]
	b.queues[id] = append(q, job)
	b.state = BoardMutating
	if len(q) == 0 {
		go b.drain(id)
	}
}

// drain runs the queued syncs of one lead in order. The queue entry is
// popped only after its sync finished, so Pending stays true meanwhile.
func (b *Board) drain(id string) {
	b.mu.Lock()
	job := b.queues[id][0]
	b.mu.Unlock()

	for {
		b.sync(job)

		b.mu.Lock()
		b.queues[id] = b.queues[id][1:]
		b.pending--
		b.settleLocked()
		if len(b.queues[id]) == 0 {
			delete(b.queues, id)
			b.mu.Unlock()
			b.wg.Done()
			return
		}
		job = b.queues[id][0]
		b.mu.Unlock()
		b.wg.Done()
	}
}

func (b *Board) sync(job syncJob) {
	lead := job.lead
	log := b.Logger.With(zap.String("lead_id", lead.ID), zap.String("to", job.toStage))

	ctx, cancel := b.withTimeout(job.ctx)
	_, err := b.Gateway.UpdateLead(ctx, lead.ID, entity.LeadPatch{Status: &job.toStage})
	cancel()
	if err != nil {
		log.Warn("stage update failed, rolling back", zap.Error(err))
		b.Recorder.RecordMove("failed")
		b.rollback(job)
		b.notify(NotifyError, "Move failed",
			fmt.Sprintf("Could not move %s to %s: %v", displayName(lead), job.toName, err), lead.ID)
		return
	}
	b.Recorder.RecordMove("success")

	// The move already stands; a missing audit note only warrants a warning.
	noteCtx, cancelNote := b.withTimeout(job.ctx)
	err = b.Gateway.AddNote(noteCtx, lead.ID, entity.NoteInput{
		Content:  fmt.Sprintf("Status changed from %s to %s", job.rollback.fromName, job.toName),
		NoteType: entity.NoteTypeSystem,
	})
	cancelNote()
	if err != nil {
		log.Warn("failed to record status note", zap.Error(err))
		b.notify(NotifyWarning, "Note not saved",
			fmt.Sprintf("%s was moved but the history note could not be saved", displayName(lead)), lead.ID)
	}

	b.notify(NotifySuccess, "Lead moved",
		fmt.Sprintf("%s moved to %s", displayName(lead), job.toName), lead.ID)

	if b.Events != nil {
		evCtx, cancelEv := b.withTimeout(job.ctx)
		err := b.Events.PublishStageChanged(evCtx, StageChangedEvent{
			LeadID:    lead.ID,
			LeadName:  lead.Name,
			FromStage: job.rollback.fromStage,
			ToStage:   job.toStage,
			DealValue: lead.DealValue,
			ChangedAt: lead.UpdatedAt,
		})
		cancelEv()
		if err != nil {
			log.Error("failed to publish stage change", zap.Error(err))
		}
	}
	log.Info("lead moved")
}

func (b *Board) rollback(job syncJob) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := job.lead.ID
	rb := job.rollback
	switch {
	case !rb.surgical && b.revision == rb.revision:
		b.snapshot = rb.snapshot
		b.metrics = rb.metrics
	case b.versions[id] == rb.version:
		stage, i, ok := b.snapshot.Locate(id)
		if !ok {
			b.Logger.Info("lead left the board before rollback", zap.String("lead_id", id))
			return
		}
		seq, lead := removeAt(b.snapshot.Stages[stage], i)
		b.snapshot.Stages[stage] = seq
		b.metrics[stage] = stageMetrics(seq)
		lead.Status = rb.fromStage
		lead.UpdatedAt = rb.prevUpdate
		if dst, ok := b.snapshot.Stages[rb.fromStage]; ok {
			b.snapshot.Stages[rb.fromStage] = insertAt(dst, rb.fromIndex, lead)
			b.metrics[rb.fromStage] = stageMetrics(b.snapshot.Stages[rb.fromStage])
		} else {
			b.unassigned = append(b.unassigned, lead)
		}
	default:
		// A newer move of this lead is queued behind us and now owns its
		// position. It must roll back to where the backend still has the lead.
		if q := b.queues[id]; len(q) > 1 {
			next := &q[1].rollback
			next.surgical = true
			next.fromStage = rb.fromStage
			next.fromIndex = rb.fromIndex
			next.fromName = rb.fromName
			next.prevUpdate = rb.prevUpdate
		}
		b.Logger.Info("skipping stale rollback", zap.String("lead_id", id))
		return
	}
	b.versions[id]++
	b.revision++
	b.Recorder.RecordRollback()
}

func (b *Board) settleLocked() {
	if b.pending > 0 {
		b.state = BoardMutating
	} else {
		b.state = BoardReady
	}
}

func (b *Board) stageName(id string) string {
	for _, s := range b.Stages.Stages() {
		if s.ID == id {
			return s.Name
		}
	}
	return id
}

func (b *Board) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.SyncTimeout > 0 {
		return context.WithTimeout(ctx, b.SyncTimeout)
	}
	return context.WithCancel(ctx)
}

func (b *Board) notify(level, title, msg, leadID string) {
	b.Notifier.Notify(Notification{
		Level:   level,
		Title:   title,
		Message: msg,
		LeadID:  leadID,
		At:      b.Now().UTC(),
	})
}

func displayName(l entity.Lead) string {
	if l.Name != "" {
		return l.Name
	}
	return l.ID
}

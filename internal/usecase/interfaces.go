package usecase

import (
	"context"
	"time"

	"github.com/xavierca1/leadflow/internal/entity"
)

type ListLeadsParams struct {
	Page     int
	PageSize int
	Status   string
	Search   string
}

// LeadGateway is the CRM backend as seen by the use cases.
type LeadGateway interface {
	ListLeads(ctx context.Context, params ListLeadsParams) ([]entity.Lead, error)
	UpdateLead(ctx context.Context, id string, patch entity.LeadPatch) (*entity.Lead, error)
	AddNote(ctx context.Context, id string, note entity.NoteInput) error
	DeleteLead(ctx context.Context, id string) error
}

// KeyValueStore is durable local storage for JSON documents.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

const (
	NotifySuccess = "success"
	NotifyError   = "error"
	NotifyWarning = "warning"
	NotifyInfo    = "info"
)

type Notification struct {
	Level   string    `json:"level"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	LeadID  string    `json:"lead_id,omitempty"`
	At      time.Time `json:"at"`
}

type Notifier interface {
	Notify(n Notification)
}

type StageChangedEvent struct {
	LeadID    string    `json:"lead_id"`
	LeadName  string    `json:"lead_name"`
	FromStage string    `json:"from_stage"`
	ToStage   string    `json:"to_stage"`
	DealValue float64   `json:"deal_value"`
	ChangedAt time.Time `json:"changed_at"`
}

type EventPublisher interface {
	PublishStageChanged(ctx context.Context, event StageChangedEvent) error
}

// MoveRecorder receives the outcome of every synced move ("success",
// "failed") and every applied rollback.
type MoveRecorder interface {
	RecordMove(result string)
	RecordRollback()
}

type nopNotifier struct{}

func (nopNotifier) Notify(Notification) {}

type nopRecorder struct{}

func (nopRecorder) RecordMove(string) {}
func (nopRecorder) RecordRollback()   {}

package mail

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"text/template"
	"time"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/usecase"
	"gopkg.in/gomail.v2"
)

var stageChangeTmpl = template.Must(template.New("stage_change").Parse(
	`Lead {{.LeadName}} (#{{.LeadID}}) moved from {{.FromStage}} to {{.ToStage}}.

Deal value: {{.DealValue}}
Changed at: {{.ChangedAt}}
`))

// StageLookup resolves stage ids to display names.
type StageLookup interface {
	Stage(id string) (entity.Stage, bool)
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       string
	Stages   StageLookup

	dial func() (gomail.SendCloser, error)
}

func NewEmailSender(host string, port int, user, password, from, to string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		To:       to,
		dial:     gomail.NewDialer(host, port, user, password).Dial,
	}
}

// HandleStageChanged emails the alert recipient about one stage change.
func (m *EmailSender) HandleStageChanged(ctx context.Context, event usecase.StageChangedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := m.stageChangeMessage(event)
	if err != nil {
		return err
	}

	sc, err := m.dial()
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	defer sc.Close()

	if err := gomail.Send(sc, msg); err != nil {
		return fmt.Errorf("send stage change email: %w", err)
	}
	return nil
}

func (m *EmailSender) stageChangeMessage(event usecase.StageChangedEvent) (*gomail.Message, error) {
	data := StageChangeEmailData{
		LeadName:  event.LeadName,
		LeadID:    event.LeadID,
		FromStage: m.stageName(event.FromStage),
		ToStage:   m.stageName(event.ToStage),
		DealValue: strconv.FormatFloat(event.DealValue, 'f', 2, 64),
		ChangedAt: event.ChangedAt.UTC().Format(time.RFC1123),
	}

	var body bytes.Buffer
	if err := stageChangeTmpl.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("render stage change email: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", fmt.Sprintf("%s moved to %s", data.LeadName, data.ToStage))
	msg.SetBody("text/plain", body.String())
	return msg, nil
}

func (m *EmailSender) stageName(id string) string {
	if m.Stages != nil {
		if st, ok := m.Stages.Stage(id); ok {
			return st.Name
		}
	}
	return id
}

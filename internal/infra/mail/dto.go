package mail

type StageChangeEmailData struct {
	LeadName  string
	LeadID    string
	FromStage string
	ToStage   string
	DealValue string
	ChangedAt string
}

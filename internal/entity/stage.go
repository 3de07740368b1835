package entity

// Stage is one column of the pipeline board. Its ID doubles as the lead
// status persisted by the backend.
type Stage struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

func DefaultStages() []Stage {
	return []Stage{
		{ID: "new", Name: "New", Color: "#3b82f6", Description: "Fresh leads awaiting first contact", Icon: "user-plus"},
		{ID: "contacted", Name: "Contacted", Color: "#8b5cf6", Description: "First touch made", Icon: "phone"},
		{ID: "qualified", Name: "Qualified", Color: "#f59e0b", Description: "Confirmed fit and budget", Icon: "check-circle"},
		{ID: "proposal", Name: "Proposal", Color: "#06b6d4", Description: "Proposal sent", Icon: "file-text"},
		{ID: "negotiation", Name: "Negotiation", Color: "#ec4899", Description: "Terms under discussion", Icon: "message-square"},
		{ID: "won", Name: "Won", Color: "#10b981", Description: "Closed won", Icon: "trophy"},
		{ID: "lost", Name: "Lost", Color: "#ef4444", Description: "Closed lost", Icon: "x-circle"},
	}
}

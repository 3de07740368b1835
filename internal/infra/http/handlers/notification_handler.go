package handlers

import (
	"net/http"
	"strconv"

	"github.com/xavierca1/leadflow/internal/infra/notify"
)

type NotificationHandler struct {
	Feed *notify.Feed
}

func NewNotificationHandler(feed *notify.Feed) *NotificationHandler {
	return &NotificationHandler{Feed: feed}
}

func (h *NotificationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	writeJSON(w, http.StatusOK, h.Feed.Recent(limit))
}

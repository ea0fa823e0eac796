// Activity HTTP handler.
//
// GET /activity returns the user's recent-activity feed. Each entry is
// rendered as {kind, at, data}, where data is the kind-specific payload.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-mindcare-backend/internal/services"
	"github.com/tbourn/go-mindcare-backend/internal/utils"
)

// maxActivityLimit caps the limit query parameter.
const maxActivityLimit = 100

// ActivityEntry is one rendered feed item.
type ActivityEntry struct {
	Kind string    `json:"kind" example:"conversation_started"`
	At   time.Time `json:"at"`
	Data any       `json:"data"`
}

// ActivityResponse is the feed, newest first.
type ActivityResponse struct {
	Items []ActivityEntry `json:"items"`
}

// RecentActivity godoc
// @ID          recentActivity
// @Summary     Recent activity
// @Description Merges conversations started, crisis-flagged messages and activated plans into one feed, newest first.
// @Tags        Activity
// @Produce     json
// @Param       X-User-ID  header  string  true  "Authenticated user ID"  example(user123)
// @Param       limit      query   int     false "Maximum items"          minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ActivityResponse
// @Failure     401  {object}  handlers.ErrorResponse "Authentication required"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /activity [get]
func (h *Handlers) RecentActivity(c *gin.Context) {
	uid, found := requireUser(c)
	if !found {
		return
	}
	limit := utils.AtoiDefault(c.Query("limit"), services.DefaultActivityLimit)
	limit = min(max(limit, 1), maxActivityLimit)

	items, err := h.actSvc.Recent(c.Request.Context(), uid, limit)
	if err != nil {
		failService(c, err, ErrCodeActivityFailed)
		return
	}

	out := make([]ActivityEntry, 0, len(items))
	for _, it := range items {
		out = append(out, ActivityEntry{Kind: it.Kind(), At: it.At(), Data: it})
	}
	ok(c, http.StatusOK, ActivityResponse{Items: out})
}

package audit

import (
	"strconv"

	"pos-backend/internal/apperror"

	"github.com/gofiber/fiber/v2"
)

type AuditLogResponse struct {
	ID          uint   `json:"id"`
	CreatedAt   string `json:"created_at"`
	Actor       string `json:"actor"`
	EntityType  string `json:"entity_type"`
	EntityID    string `json:"entity_id"`
	Action      string `json:"action"`
	Description string `json:"description"`
	BeforeData  string `json:"before_data"`
	AfterData   string `json:"after_data"`
}

// GET /api/audit-logs?entity_type=&entity_id=&limit=
// scope resolves the establishment of the request.
func ListAuditLogsHandler(r *Recorder, scope func(c *fiber.Ctx) (uint, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		estID, err := scope(c)
		if err != nil {
			return err
		}

		f := Filter{
			EstablishmentID: estID,
			EntityType:      c.Query("entity_type"),
			EntityID:        c.Query("entity_id"),
			Limit:           100,
		}
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > 1000 {
				return apperror.Validation("limit must be between 1 and 1000")
			}
			f.Limit = n
		}

		logs, err := r.List(c.UserContext(), f)
		if err != nil {
			return err
		}

		res := make([]AuditLogResponse, 0, len(logs))
		for _, l := range logs {
			res = append(res, AuditLogResponse{
				ID:          l.ID,
				CreatedAt:   l.CreatedAt.Format("2006-01-02 15:04:05"),
				Actor:       l.Actor,
				EntityType:  l.EntityType,
				EntityID:    l.EntityID,
				Action:      string(l.Action),
				Description: l.Description,
				BeforeData:  l.BeforeData,
				AfterData:   l.AfterData,
			})
		}
		return c.JSON(res)
	}
}

package usage

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/saastools-backend/pkg/db/models"
)

// UsageDTO is one row of the user's usage history.
type UsageDTO struct {
	ID        uuid.UUID       `json:"id"`
	ToolID    uuid.UUID       `json:"tool_id"`
	ToolName  string          `json:"tool_name"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func FromModel(row models.Usage) UsageDTO {
	dto := UsageDTO{
		ID:        row.ID,
		ToolID:    row.ToolID,
		ToolName:  "Unknown",
		CreatedAt: row.CreatedAt,
	}
	if len(row.Metadata) > 0 {
		dto.Metadata = json.RawMessage(row.Metadata)
	}
	if row.Tool != nil {
		dto.ToolName = row.Tool.Name
	}
	return dto
}

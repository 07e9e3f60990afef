package analytics

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/saastools-backend/internal/subscriptions"
	"github.com/angelmondragon/saastools-backend/internal/users"
)

type Overview struct {
	TotalUsers          int64           `json:"total_users"`
	ActiveSubscriptions int64           `json:"active_subscriptions"`
	MonthlyRevenue      decimal.Decimal `json:"monthly_revenue"`
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
}

type ToolUsage struct {
	ToolID   uuid.UUID `json:"tool_id"`
	ToolName string    `json:"tool_name"`
	Count    int64     `json:"count"`
}

// DashboardResponse is the payload of the admin analytics endpoint.
type DashboardResponse struct {
	Overview           Overview     `json:"overview"`
	ToolUsage          []ToolUsage  `json:"tool_usage"`
	UserGrowth         []MonthCount `json:"user_growth"`
	SubscriptionGrowth []MonthCount `json:"subscription_growth"`
}

// UsersRequest carries the admin listing query parameters.
type UsersRequest struct {
	Page   int
	Limit  int
	Search string
}

type AdminUserDTO struct {
	users.UserDTO
	Subscriptions []subscriptions.SubscriptionDTO `json:"subscriptions"`
	UsageCount    int64                           `json:"usage_count"`
}

type UsersResponse struct {
	Users       []AdminUserDTO `json:"users"`
	Total       int64          `json:"total"`
	Pages       int            `json:"pages"`
	CurrentPage int            `json:"current_page"`
}

package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/saastools-backend/internal/subscriptions"
	"github.com/angelmondragon/saastools-backend/internal/usage"
	"github.com/angelmondragon/saastools-backend/internal/users"
	"github.com/angelmondragon/saastools-backend/pkg/db/models"
	"github.com/angelmondragon/saastools-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/saastools-backend/pkg/errors"
	"github.com/angelmondragon/saastools-backend/pkg/pagination"
)

// GrowthMonths is the width of the growth charts.
const GrowthMonths = 6

const unknownToolName = "Unknown"

// Service produces the admin dashboard figures and the admin user listing.
type Service interface {
	Dashboard(ctx context.Context) (*DashboardResponse, error)
	Users(ctx context.Context, req UsersRequest) (*UsersResponse, error)
}

type subscriptionStats interface {
	CountActive(ctx context.Context, now time.Time) (int64, error)
	SumAmount(ctx context.Context, statuses []enums.SubscriptionStatus, startFrom *time.Time) (decimal.Decimal, error)
	CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error)
}

type userStats interface {
	CountByRole(ctx context.Context, role enums.UserRole) (int64, error)
	CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error)
	List(ctx context.Context, filter users.ListFilter, now time.Time) ([]models.User, int64, error)
}

type usageStats interface {
	CountByToolSince(ctx context.Context, since time.Time) ([]usage.ToolCount, error)
	CountByUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}

type toolNames interface {
	NameByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

type ServiceParams struct {
	Subscriptions subscriptionStats
	Users         userStats
	Usage         usageStats
	Tools         toolNames
	Now           func() time.Time
}

type service struct {
	subs  subscriptionStats
	users userStats
	usage usageStats
	tools toolNames
	now   func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription repository is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Usage == nil {
		return nil, fmt.Errorf("usage repository is required")
	}
	if params.Tools == nil {
		return nil, fmt.Errorf("tool repository is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		subs:  params.Subscriptions,
		users: params.Users,
		usage: params.Usage,
		tools: params.Tools,
		now:   now,
	}, nil
}

func (s *service) Dashboard(ctx context.Context) (*DashboardResponse, error) {
	now := s.now().UTC()
	monthStart := MonthStart(now)
	growthStart := monthStart.AddDate(0, -(GrowthMonths - 1), 0)

	overview, err := s.overview(ctx, now, monthStart)
	if err != nil {
		return nil, err
	}

	toolUsage, err := s.toolUsage(ctx, monthStart)
	if err != nil {
		return nil, err
	}

	userStamps, err := s.users.CreatedSince(ctx, growthStart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user growth")
	}
	subStamps, err := s.subs.CreatedSince(ctx, growthStart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load subscription growth")
	}

	return &DashboardResponse{
		Overview:           overview,
		ToolUsage:          toolUsage,
		UserGrowth:         BucketByMonth(userStamps, now, GrowthMonths),
		SubscriptionGrowth: BucketByMonth(subStamps, now, GrowthMonths),
	}, nil
}

func (s *service) overview(ctx context.Context, now, monthStart time.Time) (Overview, error) {
	sellers, err := s.users.CountByRole(ctx, enums.UserRoleSeller)
	if err != nil {
		return Overview{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count sellers")
	}
	active, err := s.subs.CountActive(ctx, now)
	if err != nil {
		return Overview{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count active subscriptions")
	}
	monthly, err := s.subs.SumAmount(ctx, []enums.SubscriptionStatus{enums.SubscriptionStatusActive}, &monthStart)
	if err != nil {
		return Overview{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum monthly revenue")
	}
	total, err := s.subs.SumAmount(ctx, []enums.SubscriptionStatus{
		enums.SubscriptionStatusActive,
		enums.SubscriptionStatusCancelled,
	}, nil)
	if err != nil {
		return Overview{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum total revenue")
	}
	return Overview{
		TotalUsers:          sellers,
		ActiveSubscriptions: active,
		MonthlyRevenue:      monthly,
		TotalRevenue:        total,
	}, nil
}

func (s *service) toolUsage(ctx context.Context, since time.Time) ([]ToolUsage, error) {
	counts, err := s.usage.CountByToolSince(ctx, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count tool usage")
	}
	ids := make([]uuid.UUID, 0, len(counts))
	for _, c := range counts {
		ids = append(ids, c.ToolID)
	}
	names, err := s.tools.NameByID(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load tool names")
	}

	out := make([]ToolUsage, 0, len(counts))
	for _, c := range counts {
		name, ok := names[c.ToolID]
		if !ok {
			name = unknownToolName
		}
		out = append(out, ToolUsage{ToolID: c.ToolID, ToolName: name, Count: c.Count})
	}
	return out, nil
}

func (s *service) Users(ctx context.Context, req UsersRequest) (*UsersResponse, error) {
	page := pagination.Params{Page: req.Page, Limit: req.Limit}.Normalize()

	rows, total, err := s.users.List(ctx, users.ListFilter{
		Search: req.Search,
		Limit:  page.Limit,
		Offset: page.Offset(),
	}, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	counts, err := s.usage.CountByUsers(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count user usage")
	}

	out := make([]AdminUserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toAdminUser(&rows[i], counts[rows[i].ID]))
	}

	return &UsersResponse{
		Users:       out,
		Total:       total,
		Pages:       pagination.TotalPages(total, page.Limit),
		CurrentPage: page.Page,
	}, nil
}

func toAdminUser(u *models.User, usageCount int64) AdminUserDTO {
	subs := make([]subscriptions.SubscriptionDTO, 0, len(u.Subscriptions))
	for _, sub := range u.Subscriptions {
		subs = append(subs, subscriptions.FromModel(sub))
	}
	return AdminUserDTO{
		UserDTO:       *users.FromModel(u),
		Subscriptions: subs,
		UsageCount:    usageCount,
	}
}

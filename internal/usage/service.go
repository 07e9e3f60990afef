package usage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/saastools-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/saastools-backend/pkg/errors"
	"github.com/angelmondragon/saastools-backend/pkg/pagination"
)

type usageLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Usage, error)
}

// Service serves the signed-in user's usage history.
type Service struct {
	repo usageLister
}

func NewService(repo usageLister) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("usage repository is required")
	}
	return &Service{repo: repo}, nil
}

func (s *Service) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]UsageDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID, pagination.NormalizeLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list usage")
	}
	out := make([]UsageDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

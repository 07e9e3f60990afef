package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/saastools-backend/pkg/db"
	"github.com/angelmondragon/saastools-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/saastools-backend/pkg/errors"
)

const toolNotFoundMessage = "Tool not found"

// Service exposes the tool catalog.
type Service interface {
	List(ctx context.Context, userID *uuid.UUID) ([]ToolDTO, error)
	Get(ctx context.Context, toolID uuid.UUID, userID *uuid.UUID) (*ToolDTO, error)
	AdminList(ctx context.Context) ([]ToolDTO, error)
	Create(ctx context.Context, req CreateToolRequest) (*ToolDTO, error)
	Update(ctx context.Context, toolID uuid.UUID, req UpdateToolRequest) (*ToolDTO, error)
}

type toolRepository interface {
	Create(ctx context.Context, tool *models.Tool) error
	ListActive(ctx context.Context) ([]models.Tool, error)
	ListAll(ctx context.Context) ([]models.Tool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tool, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type accessLookup interface {
	ActiveToolIDs(ctx context.Context, userID uuid.UUID, now time.Time) (map[uuid.UUID]bool, error)
}

type service struct {
	tools  toolRepository
	access accessLookup
	now    func() time.Time
}

func NewService(tools toolRepository, access accessLookup) (Service, error) {
	if tools == nil {
		return nil, fmt.Errorf("tool repository is required")
	}
	if access == nil {
		return nil, fmt.Errorf("access lookup is required")
	}
	return &service{tools: tools, access: access, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) List(ctx context.Context, userID *uuid.UUID) ([]ToolDTO, error) {
	rows, err := s.tools.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list tools")
	}
	access, err := s.accessFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]ToolDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row, access[row.ID]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, toolID uuid.UUID, userID *uuid.UUID) (*ToolDTO, error) {
	tool, err := s.tools.FindByID(ctx, toolID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load tool")
	}
	if tool == nil || !tool.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, toolNotFoundMessage)
	}
	access, err := s.accessFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*tool, access[tool.ID])
	return &dto, nil
}

func (s *service) AdminList(ctx context.Context) ([]ToolDTO, error) {
	rows, err := s.tools.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list tools")
	}
	out := make([]ToolDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row, false))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, req CreateToolRequest) (*ToolDTO, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if req.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	slug := Slugify(req.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug could not be derived from name")
	}

	tool := &models.Tool{
		Slug:        slug,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Icon:        strings.TrimSpace(req.Icon),
		Price:       req.Price.Round(2),
		IsActive:    true,
	}
	if req.IsActive != nil {
		tool.IsActive = *req.IsActive
	}
	if err := s.tools.Create(ctx, tool); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "tool with slug %q already exists", slug)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create tool")
	}
	dto := FromModel(*tool, false)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, toolID uuid.UUID, req UpdateToolRequest) (*ToolDTO, error) {
	existing, err := s.tools.FindByID(ctx, toolID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load tool")
	}
	if existing == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, toolNotFoundMessage)
	}

	updates := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Icon != nil {
		updates["icon"] = strings.TrimSpace(*req.Icon)
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		updates["price"] = req.Price.Round(2)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if err := s.tools.Update(ctx, toolID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update tool")
	}

	updated, err := s.tools.FindByID(ctx, toolID)
	if err != nil || updated == nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload tool")
	}
	dto := FromModel(*updated, false)
	return &dto, nil
}

func (s *service) accessFor(ctx context.Context, userID *uuid.UUID) (map[uuid.UUID]bool, error) {
	if userID == nil {
		return map[uuid.UUID]bool{}, nil
	}
	access, err := s.access.ActiveToolIDs(ctx, *userID, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load tool access")
	}
	return access, nil
}

package keywords

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/angelmondragon/saastools-backend/pkg/db/models"
	"github.com/angelmondragon/saastools-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/saastools-backend/pkg/errors"
	"github.com/angelmondragon/saastools-backend/pkg/logger"
)

const (
	maxSeedLength              = 100
	subscriptionRequiredMessage = "Subscription required for this tool"
)

// ResearchRequest is the keyword tool input.
type ResearchRequest struct {
	SeedKeyword string   `json:"seed_keyword" validate:"required,max=100"`
	Platforms   []string `json:"platforms" validate:"required,min=1,dive,oneof=amazon flipkart"`
}

type ResearchResponse struct {
	Results []Result `json:"results"`
}

type toolLookup interface {
	FindBySlug(ctx context.Context, slug string) (*models.Tool, error)
	FindByName(ctx context.Context, name string) (*models.Tool, error)
}

type subscriptionLookup interface {
	FindActiveSubscription(ctx context.Context, userID, toolID uuid.UUID, now time.Time) (*models.Subscription, error)
}

type usageRecorder interface {
	Create(ctx context.Context, row *models.Usage) error
}

// Service gates the generator behind an active subscription and records usage.
type Service struct {
	tools     toolLookup
	subs      subscriptionLookup
	usage     usageRecorder
	generator *Generator
	logg      *logger.Logger
	now       func() time.Time
}

type ServiceParams struct {
	Tools         toolLookup
	Subscriptions subscriptionLookup
	Usage         usageRecorder
	Generator     *Generator
	Logger        *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Tools == nil || params.Subscriptions == nil || params.Usage == nil {
		return nil, fmt.Errorf("tools, subscriptions and usage are required")
	}
	gen := params.Generator
	if gen == nil {
		gen = NewGenerator(nil)
	}
	return &Service{
		tools:     params.Tools,
		subs:      params.Subscriptions,
		usage:     params.Usage,
		generator: gen,
		logg:      params.Logger,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Authorize fails with 404 when the keyword tool is missing and 403 when
// userID holds no active subscription to it. Callers run it before reading
// the request body.
func (s *Service) Authorize(ctx context.Context, userID uuid.UUID) error {
	_, err := s.access(ctx, userID)
	return err
}

// Research checks access, validates the request, generates suggestions and logs one usage row.
func (s *Service) Research(ctx context.Context, userID uuid.UUID, req ResearchRequest) (*ResearchResponse, error) {
	tool, err := s.access(ctx, userID)
	if err != nil {
		return nil, err
	}
	seed, platforms, err := normalize(req)
	if err != nil {
		return nil, err
	}

	results := s.generator.Generate(seed, platforms)

	metadata, err := json.Marshal(map[string]any{
		"seedKeyword": seed,
		"platforms":   platforms,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode usage metadata")
	}
	if err := s.usage.Create(ctx, &models.Usage{
		UserID:   userID,
		ToolID:   tool.ID,
		Metadata: datatypes.JSON(metadata),
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record usage")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "platforms", len(platforms)), "keywords.generated")
	}

	return &ResearchResponse{Results: results}, nil
}

// Export runs Research and renders the results as CSV.
func (s *Service) Export(ctx context.Context, userID uuid.UUID, req ResearchRequest) ([]byte, error) {
	resp, err := s.Research(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	data, err := WriteCSV(resp.Results)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv")
	}
	return data, nil
}

func (s *Service) access(ctx context.Context, userID uuid.UUID) (*models.Tool, error) {
	tool, err := s.keywordTool(ctx)
	if err != nil {
		return nil, err
	}
	sub, err := s.subs.FindActiveSubscription(ctx, userID, tool.ID, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check subscription")
	}
	if sub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, subscriptionRequiredMessage)
	}
	return tool, nil
}

func (s *Service) keywordTool(ctx context.Context) (*models.Tool, error) {
	tool, err := s.tools.FindBySlug(ctx, models.KeywordResearchSlug)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load keyword tool")
	}
	if tool == nil {
		tool, err = s.tools.FindByName(ctx, models.KeywordResearchName)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load keyword tool")
		}
	}
	if tool == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Tool not found")
	}
	return tool, nil
}

func normalize(req ResearchRequest) (string, []enums.Platform, error) {
	seed := strings.TrimSpace(req.SeedKeyword)
	if seed == "" {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "seed_keyword is required")
	}
	if len([]rune(seed)) > maxSeedLength {
		return "", nil, pkgerrors.Newf(pkgerrors.CodeValidation, "seed_keyword must be at most %d characters", maxSeedLength)
	}
	if len(req.Platforms) == 0 {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one platform is required")
	}

	seen := make(map[enums.Platform]bool, len(req.Platforms))
	platforms := make([]enums.Platform, 0, len(req.Platforms))
	for _, raw := range req.Platforms {
		platform, err := enums.ParsePlatform(raw)
		if err != nil {
			return "", nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "platforms must be amazon or flipkart").
				WithDetails(map[string]string{"platforms": raw})
		}
		if seen[platform] {
			continue
		}
		seen[platform] = true
		platforms = append(platforms, platform)
	}
	return seed, platforms, nil
}

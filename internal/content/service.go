package content

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelmondragon/saastools-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/saastools-backend/pkg/errors"
)

// SectionDTO is a landing page section and its raw JSON content.
type SectionDTO struct {
	Section string          `json:"section"`
	Content json.RawMessage `json:"content"`
}

type sectionLookup interface {
	FindActiveBySection(ctx context.Context, section string) (*models.LandingPageContent, error)
}

type Service struct {
	repo sectionLookup
}

func NewService(repo sectionLookup) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("content repository is required")
	}
	return &Service{repo: repo}, nil
}

func (s *Service) Section(ctx context.Context, section string) (*SectionDTO, error) {
	section = strings.ToLower(strings.TrimSpace(section))
	if section == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "section is required")
	}
	row, err := s.repo.FindActiveBySection(ctx, section)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load content")
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Content not found")
	}
	return &SectionDTO{Section: row.Section, Content: json.RawMessage(row.Content)}, nil
}

package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/saastools-backend/api/responses"
	"github.com/angelmondragon/saastools-backend/internal/content"
	pkgerrors "github.com/angelmondragon/saastools-backend/pkg/errors"
	"github.com/angelmondragon/saastools-backend/pkg/logger"
)

type ContentSections interface {
	Section(ctx context.Context, section string) (*content.SectionDTO, error)
}

func ContentSection(svc ContentSections, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "content service unavailable"))
			return
		}
		section, err := svc.Section(r.Context(), chi.URLParam(r, "section"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, section)
	}
}

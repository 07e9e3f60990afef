package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/angelmondragon/saastools-backend/api/responses"
	"github.com/angelmondragon/saastools-backend/api/validators"
	"github.com/angelmondragon/saastools-backend/internal/keywords"
	pkgerrors "github.com/angelmondragon/saastools-backend/pkg/errors"
	"github.com/angelmondragon/saastools-backend/pkg/logger"
)

const keywordExportFileName = "keywords.csv"

// KeywordResearcher runs the keyword tool for a subscribed user.
type KeywordResearcher interface {
	Authorize(ctx context.Context, userID uuid.UUID) error
	Research(ctx context.Context, userID uuid.UUID, req keywords.ResearchRequest) (*keywords.ResearchResponse, error)
	Export(ctx context.Context, userID uuid.UUID, req keywords.ResearchRequest) ([]byte, error)
}

func KeywordResearch(svc KeywordResearcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, req, ok := decodeKeywordRequest(w, r, svc, logg)
		if !ok {
			return
		}
		result, err := svc.Research(r.Context(), userID, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// KeywordExport returns the same research as a CSV attachment.
func KeywordExport(svc KeywordResearcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, req, ok := decodeKeywordRequest(w, r, svc, logg)
		if !ok {
			return
		}
		data, err := svc.Export(r.Context(), userID, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+keywordExportFileName+`"`)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func decodeKeywordRequest(w http.ResponseWriter, r *http.Request, svc KeywordResearcher, logg *logger.Logger) (uuid.UUID, keywords.ResearchRequest, bool) {
	var body keywords.ResearchRequest
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "keyword service unavailable"))
		return uuid.Nil, body, false
	}
	userID, err := currentUserID(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return uuid.Nil, body, false
	}
	if err := svc.Authorize(r.Context(), userID); err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return uuid.Nil, body, false
	}
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return uuid.Nil, body, false
	}
	return userID, body, true
}

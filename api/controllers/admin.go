package controllers

import (
	"net/http"

	"github.com/angelmondragon/saastools-backend/api/responses"
	"github.com/angelmondragon/saastools-backend/api/validators"
	"github.com/angelmondragon/saastools-backend/internal/analytics"
	pkgerrors "github.com/angelmondragon/saastools-backend/pkg/errors"
	"github.com/angelmondragon/saastools-backend/pkg/logger"
)

const maxSearchLength = 100

func AdminAnalytics(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}
		dashboard, err := svc.Dashboard(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dashboard)
	}
}

// AdminUsers lists accounts with paging and a name/email search.
func AdminUsers(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}
		page, err := validators.QueryInt(r, "page", validators.IntRange{Default: 1, Min: 1, Max: 1_000_000})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.QueryInt(r, "limit", limitRange)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Users(r.Context(), analytics.UsersRequest{
			Page:   page,
			Limit:  limit,
			Search: validators.QueryString(r, "search", maxSearchLength),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

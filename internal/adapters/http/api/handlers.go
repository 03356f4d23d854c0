package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/okian/crmpulse/internal/domain/types"
)

// Query parameter names.
const (
	paramFiscalYear = "fy"
	paramKam        = "kam"
	paramCloseMonth = "close_month"
	paramStatusType = "status_type"
	paramPeriod     = "period"
	paramQuarter    = "quarter"
	paramMonth      = "month"
)

func fiscalYear(q url.Values) (string, error) {
	fy := strings.TrimSpace(q.Get(paramFiscalYear))
	if fy == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingParam, paramFiscalYear)
	}
	return fy, nil
}

func funnelQuery(q url.Values) (types.FunnelQuery, error) {
	fy, err := fiscalYear(q)
	if err != nil {
		return types.FunnelQuery{}, err
	}
	return types.FunnelQuery{FiscalYear: fy, KamID: q.Get(paramKam), CloseMonth: q.Get(paramCloseMonth)}, nil
}

func summaryQuery(q url.Values) (types.SummaryQuery, error) {
	fy, err := fiscalYear(q)
	if err != nil {
		return types.SummaryQuery{}, err
	}
	return types.SummaryQuery{
		FiscalYear: fy,
		Period:     types.Period(q.Get(paramPeriod)),
		Quarter:    q.Get(paramQuarter),
		Month:      q.Get(paramMonth),
		StatusType: q.Get(paramStatusType),
		KamID:      q.Get(paramKam),
	}, nil
}

// handleFunnel handles GET /api/v1/funnel.
func (s *Server) handleFunnel(w http.ResponseWriter, r *http.Request) {
	q, err := funnelQuery(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.engine.Funnel(r.Context(), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleConversion handles GET /api/v1/conversion.
func (s *Server) handleConversion(w http.ResponseWriter, r *http.Request) {
	q, err := funnelQuery(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.engine.ConversionTable(r.Context(), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleReconciliation handles GET /api/v1/reconciliation.
func (s *Server) handleReconciliation(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	fy, err := fiscalYear(v)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.engine.TierReconciliation(r.Context(), types.ReconciliationQuery{
		FiscalYear: fy,
		StatusType: v.Get(paramStatusType),
		KamID:      v.Get(paramKam),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleSummary handles GET /api/v1/summary.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	q, err := summaryQuery(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.engine.Summary(r.Context(), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type breakdownFunc func(context.Context, types.SummaryQuery) (types.BreakdownResult, error)

// handleBreakdown handles the GET /api/v1/summary/{kam,lob,tier} family.
func (s *Server) handleBreakdown(split breakdownFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := summaryQuery(r.URL.Query())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		res, err := split(r.Context(), q)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// handleWeekly handles GET /api/v1/activity/weekly.
func (s *Server) handleWeekly(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	fy, err := fiscalYear(v)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.engine.WeeklyActivity(r.Context(), types.WeeklyQuery{FiscalYear: fy, KamID: v.Get(paramKam)})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleTiers handles GET /api/v1/tiers.
func (s *Server) handleTiers(w http.ResponseWriter, r *http.Request) {
	fy, err := fiscalYear(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.engine.Tiers(r.Context(), fy)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

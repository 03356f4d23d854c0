package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/crmpulse/internal/adapters/repository"
	app "github.com/okian/crmpulse/internal/app"
	"github.com/okian/crmpulse/internal/config"
	"github.com/okian/crmpulse/internal/domain/fiscal"
	"github.com/okian/crmpulse/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestOpenSource(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNop()

	convey.Convey("Given the default configuration", t, func() {
		cfg := config.New()

		convey.Convey("Then a seeded in-memory source is used", func() {
			src, closeFn, err := openSource(ctx, cfg, log)
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = closeFn() }()

			_, ok := src.(*repository.MemoryStore)
			convey.So(ok, convey.ShouldBeTrue)
			deals, err := src.ListDeals(ctx, repository.DealFilter{})
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(deals), convey.ShouldBeGreaterThan, 0)
		})

		convey.Convey("When seeding is disabled", func() {
			cfg.SeedDemo = false
			src, _, err := openSource(ctx, cfg, log)
			convey.So(err, convey.ShouldBeNil)
			deals, err := src.ListDeals(ctx, repository.DealFilter{})
			convey.So(err, convey.ShouldBeNil)
			convey.So(deals, convey.ShouldBeEmpty)
		})

		convey.Convey("When a database path is configured", func() {
			cfg.DBPath = filepath.Join(t.TempDir(), "crm.db")
			src, closeFn, err := openSource(ctx, cfg, log)
			convey.So(err, convey.ShouldBeNil)

			_, ok := src.(*repository.SQLiteStore)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(closeFn(), convey.ShouldBeNil)
		})
	})
}

func TestRouter(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNop()

	convey.Convey("Given the full router over the demo snapshot", t, func() {
		src, _, err := openSource(ctx, config.New(), log)
		convey.So(err, convey.ShouldBeNil)
		svc := app.New(app.WithSource(src), app.WithLogger(log))
		h := newRouter(svc, log)
		fy := fiscal.CurrentLabel(time.Now().UTC())

		get := func(target string) int {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, http.NoBody))
			return w.Code
		}

		convey.Convey("Then every endpoint answers", func() {
			for _, path := range []string{
				"/healthz",
				"/metrics",
				"/openapi.yaml",
				"/api-docs",
				"/api/v1/funnel?fy=" + fy,
				"/api/v1/conversion?fy=" + fy,
				"/api/v1/reconciliation?fy=" + fy,
				"/api/v1/summary?fy=" + fy + "&period=quarter&quarter=Q1",
				"/api/v1/summary/kam?fy=" + fy,
				"/api/v1/summary/lob?fy=" + fy,
				"/api/v1/summary/tier?fy=" + fy,
				"/api/v1/activity/weekly?fy=" + fy,
				"/api/v1/tiers?fy=" + fy,
			} {
				convey.So(get(path), convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("Then bad input is rejected", func() {
			convey.So(get("/api/v1/funnel?fy=2025"), convey.ShouldEqual, http.StatusBadRequest)
			convey.So(get("/api/v1/summary?fy="+fy+"&status_type=Other"), convey.ShouldEqual, http.StatusBadRequest)
		})
	})
}

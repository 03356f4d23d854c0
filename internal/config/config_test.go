package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/crmpulse/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.DBPath, convey.ShouldBeEmpty)
			convey.So(cfg.SeedDemo, convey.ShouldBeTrue)
			convey.So(cfg.Tier1Threshold, convey.ShouldEqual, 10_000_000)
			convey.So(cfg.FetchTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.ShutdownTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given invalid fields", t, func() {
		for _, mutate := range []func(*config.Config){
			func(c *config.Config) { c.Addr = "" },
			func(c *config.Config) { c.Tier1Threshold = -1 },
			func(c *config.Config) { c.FetchTimeoutMS = 0 },
			func(c *config.Config) { c.ShutdownTimeoutMS = -5 },
		} {
			cfg := config.New()
			mutate(cfg)
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		}
	})
}

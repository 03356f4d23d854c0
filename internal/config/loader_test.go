package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/crmpulse/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"CRMPULSE_CONFIG",
	"CRMPULSE_ADDR",
	"CRMPULSE_LOG_LEVEL",
	"CRMPULSE_DB_PATH",
	"CRMPULSE_SEED_DEMO",
	"CRMPULSE_TIER1_THRESHOLD",
	"CRMPULSE_FETCH_TIMEOUT_MS",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crmpulse.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load()

			convey.Convey("Then the defaults are returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Tier1Threshold, convey.ShouldEqual, 10_000_000)
			})
		})

		convey.Convey("When loading with environment variables", func() {
			_ = os.Setenv("CRMPULSE_ADDR", ":8080")
			_ = os.Setenv("CRMPULSE_DB_PATH", "/tmp/crm.db")
			_ = os.Setenv("CRMPULSE_SEED_DEMO", "false")
			_ = os.Setenv("CRMPULSE_TIER1_THRESHOLD", "500")
			_ = os.Setenv("CRMPULSE_FETCH_TIMEOUT_MS", "250")

			cfg, err := config.Load()

			convey.Convey("Then env overrides the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DBPath, convey.ShouldEqual, "/tmp/crm.db")
				convey.So(cfg.SeedDemo, convey.ShouldBeFalse)
				convey.So(cfg.Tier1Threshold, convey.ShouldEqual, 500)
				convey.So(cfg.FetchTimeoutMS, convey.ShouldEqual, 250)
			})
		})

		convey.Convey("When loading with a YAML file and env", func() {
			path := writeConfigFile(t, "addr: \":9090\"\nlog_level: debug\ntier1_threshold: 2000\n")
			_ = os.Setenv("CRMPULSE_CONFIG", path)
			_ = os.Setenv("CRMPULSE_TIER1_THRESHOLD", "3000")

			cfg, err := config.Load()

			convey.Convey("Then env wins over the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.Tier1Threshold, convey.ShouldEqual, 3000)
			})
		})

		convey.Convey("When the file does not exist", func() {
			_ = os.Setenv("CRMPULSE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
			_, err := config.Load()
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When validation fails", func() {
			_ = os.Setenv("CRMPULSE_FETCH_TIMEOUT_MS", "0")
			_, err := config.Load()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/taskflow/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"TASKFLOW_CONFIG",
	"TASKFLOW_ADDR",
	"TASKFLOW_QUEUE_SIZE",
	"TASKFLOW_WORKER_COUNT",
	"TASKFLOW_SKILL_WEIGHT",
	"TASKFLOW_CAPACITY_WEIGHT",
	"TASKFLOW_CAPACITY_THRESHOLD",
	"TASKFLOW_WATCH_ROSTER",
	"TASKFLOW_ROSTER_FILE",
	"TASKFLOW_REQUEST_TIMEOUT",
	"TASKFLOW_DEFAULT_TOP_N",
}

func clearConfigEnvVars() {
	for _, key := range configEnvVars {
		_ = os.Unsetenv(key)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taskflow.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const fileConfig = `
addr: ":9090"
queue_size: 64
worker_count: 3
skill_weight: 0.6
capacity_weight: 0.4
capacity_threshold: 0.85
max_top_n: 20
request_timeout: 5s
roster_file: configs/roster.yaml
`

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then the defaults are returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
				convey.So(cfg.Weights().Skill, convey.ShouldEqual, 0.7)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TASKFLOW_ADDR", ":8080")
			_ = os.Setenv("TASKFLOW_QUEUE_SIZE", "128")
			_ = os.Setenv("TASKFLOW_SKILL_WEIGHT", "0.5")
			_ = os.Setenv("TASKFLOW_CAPACITY_WEIGHT", "0.5")
			_ = os.Setenv("TASKFLOW_DEFAULT_TOP_N", "5")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env vars override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 128)
				convey.So(cfg.SkillWeight, convey.ShouldEqual, 0.5)
				convey.So(cfg.DefaultTopN, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When loading config from a YAML file", func() {
			_ = os.Setenv("TASKFLOW_CONFIG", writeConfigFile(t, fileConfig))

			cfg, err := config.Load(ctx)

			convey.Convey("Then the file values apply", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.CapacityThreshold, convey.ShouldEqual, 0.85)
				convey.So(cfg.MaxTopN, convey.ShouldEqual, 20)
				convey.So(cfg.RequestTimeout, convey.ShouldEqual, 5*time.Second)
				convey.So(cfg.RosterFile, convey.ShouldEqual, "configs/roster.yaml")
			})
		})

		convey.Convey("When both file and environment variables are set", func() {
			_ = os.Setenv("TASKFLOW_CONFIG", writeConfigFile(t, fileConfig))
			_ = os.Setenv("TASKFLOW_ADDR", ":8181")
			_ = os.Setenv("TASKFLOW_WATCH_ROSTER", "true")
			_ = os.Setenv("TASKFLOW_REQUEST_TIMEOUT", "2s")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8181")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.WatchRoster, convey.ShouldBeTrue)
				convey.So(cfg.RequestTimeout, convey.ShouldEqual, 2*time.Second)
			})
		})

		convey.Convey("When the file does not exist", func() {
			_, err := config.LoadFile(ctx, filepath.Join(t.TempDir(), "missing.yaml"))

			convey.Convey("Then ErrLoadConfig is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the merged config is invalid", func() {
			_ = os.Setenv("TASKFLOW_CAPACITY_THRESHOLD", "1.5")

			_, err := config.Load(ctx)

			convey.Convey("Then ErrInvalidConfig is returned", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

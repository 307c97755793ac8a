package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"voice-insight/pkg/config"

	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should match the documented defaults", func() {
			convey.So(cfg.Server.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.Server.MaxUploadBytes, convey.ShouldEqual, 16*1024*1024)
			convey.So(cfg.Storage.UploadDir, convey.ShouldEqual, "audio")
			convey.So(cfg.Storage.GraphDir, convey.ShouldEqual, "static/graphs")
			convey.So(cfg.Features.SampleRate, convey.ShouldEqual, 22050)
			convey.So(cfg.Features.OffsetSeconds, convey.ShouldEqual, 0.5)
			convey.So(cfg.Features.DurationSeconds, convey.ShouldEqual, 3)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars(t)

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Server.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.Server.ReadTimeout, convey.ShouldEqual, 30*time.Second)
		})

		convey.Convey("When environment variables are set", func() {
			t.Setenv("VOICE_ADDR", ":9090")
			t.Setenv("VOICE_MAX_UPLOAD_BYTES", "1024")
			t.Setenv("VOICE_GRAPH_DIR", "/tmp/graphs")
			t.Setenv("VOICE_SAMPLE_RATE", "0")
			t.Setenv("VOICE_READ_TIMEOUT", "5s")

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Server.Addr, convey.ShouldEqual, ":9090")
			convey.So(cfg.Server.MaxUploadBytes, convey.ShouldEqual, 1024)
			convey.So(cfg.Server.ReadTimeout, convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.Storage.GraphDir, convey.ShouldEqual, "/tmp/graphs")
			convey.So(cfg.Features.SampleRate, convey.ShouldEqual, 0)
			convey.So(cfg.Storage.UploadDir, convey.ShouldEqual, "audio")
		})

		convey.Convey("When a YAML file and env vars are both set", func() {
			path := writeTempConfig(t, `
addr: ":7070"
upload_dir: "/srv/uploads"
offset_seconds: 1.25
storage_path: ""
`)
			t.Setenv("VOICE_CONFIG", path)
			t.Setenv("VOICE_ADDR", ":6060")

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Server.Addr, convey.ShouldEqual, ":6060")
			convey.So(cfg.Storage.UploadDir, convey.ShouldEqual, "/srv/uploads")
			convey.So(cfg.Storage.Path, convey.ShouldEqual, "")
			convey.So(cfg.Features.OffsetSeconds, convey.ShouldEqual, 1.25)
			convey.So(cfg.Features.DurationSeconds, convey.ShouldEqual, 3)
		})

		convey.Convey("When the config file does not exist", func() {
			t.Setenv("VOICE_CONFIG", "/non/existent/voice.yaml")

			cfg, err := config.Load(ctx)

			convey.So(cfg, convey.ShouldBeNil)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the YAML is malformed", func() {
			t.Setenv("VOICE_CONFIG", writeTempConfig(t, `addr: [`))

			cfg, err := config.Load(ctx)

			convey.So(cfg, convey.ShouldBeNil)
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When a numeric variable is not a number", func() {
			t.Setenv("VOICE_MAX_UPLOAD_BYTES", "lots")

			cfg, err := config.Load(ctx)

			convey.So(cfg, convey.ShouldBeNil)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When addr is empty", func() {
			t.Setenv("VOICE_CONFIG", writeTempConfig(t, `addr: ""`))

			cfg, err := config.Load(ctx)

			convey.So(cfg, convey.ShouldBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given a valid config", t, func() {
		cfg := config.New()

		convey.Convey("A zero upload ceiling is rejected", func() {
			cfg.Server.MaxUploadBytes = 0
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("A zero duration is rejected", func() {
			cfg.Features.DurationSeconds = 0
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("A negative offset is rejected", func() {
			cfg.Features.OffsetSeconds = -1
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("An empty graph dir is rejected", func() {
			cfg.Storage.GraphDir = " "
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

// Helper functions.

func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "VOICE_") {
			// t.Setenv registers the restore; Unsetenv makes the key absent.
			t.Setenv(name, "")
			_ = os.Unsetenv(name)
		}
	}
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voice.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

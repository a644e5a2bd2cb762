package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"scheddy/internal/config"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()

	Convey("Given no file and no env overrides", t, func() {
		os.Unsetenv("SCHEDDY_CONFIG")

		cfg, err := config.Load(ctx)

		Convey("Then the defaults come back", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":9080")
			So(cfg.SearchHorizonDays, ShouldEqual, 14)
		})
	})

	Convey("Given env overrides", t, func() {
		os.Setenv("SCHEDDY_ADDR", ":7070")
		os.Setenv("SCHEDDY_CONVERSATION_TTL_MINUTES", "15")
		defer os.Unsetenv("SCHEDDY_ADDR")
		defer os.Unsetenv("SCHEDDY_CONVERSATION_TTL_MINUTES")

		cfg, err := config.Load(ctx)

		Convey("Then env wins over defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":7070")
			So(cfg.ConversationTTLMinutes, ShouldEqual, 15)
		})
	})

	Convey("Given a YAML config file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "scheddy.yaml")
		yaml := "addr: \":6060\"\nsearch_horizon_days: 7\nnlp_endpoint: \"http://localhost:1234/v1/chat/completions\"\n"
		So(os.WriteFile(path, []byte(yaml), 0o600), ShouldBeNil)

		os.Setenv("SCHEDDY_CONFIG", path)
		defer os.Unsetenv("SCHEDDY_CONFIG")

		cfg, err := config.Load(ctx)

		Convey("Then file values override defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":6060")
			So(cfg.SearchHorizonDays, ShouldEqual, 7)
			So(cfg.NLPEndpoint, ShouldContainSubstring, "chat/completions")
		})

		Convey("And env still wins over the file", func() {
			os.Setenv("SCHEDDY_ADDR", ":5050")
			defer os.Unsetenv("SCHEDDY_ADDR")

			cfg, err := config.Load(ctx)
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":5050")
		})
	})

	Convey("Given invalid values", t, func() {
		os.Setenv("SCHEDDY_SEARCH_HORIZON_DAYS", "0")
		defer os.Unsetenv("SCHEDDY_SEARCH_HORIZON_DAYS")

		_, err := config.Load(ctx)

		Convey("Then loading fails with an invalid-config error", func() {
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}

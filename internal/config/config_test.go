package config_test

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"scheddy/internal/config"
)

func TestNewDefaults(t *testing.T) {
	Convey("Given a default config", t, func() {
		cfg := config.New(context.Background())

		Convey("Then the scheduling defaults are set", func() {
			So(cfg.Addr, ShouldEqual, ":9080")
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.SearchHorizonDays, ShouldEqual, 14)
			So(cfg.ConversationTTLMinutes, ShouldEqual, 30)
			So(cfg.RescheduleMaxVictims, ShouldEqual, 16)
			So(cfg.SimilarityCutoff, ShouldEqual, 0.8)
			So(cfg.PatternSearchLimit, ShouldEqual, 10)
		})

		Convey("Then the background jobs have cron specs", func() {
			So(cfg.SweepSpec, ShouldEqual, "* * * * *")
			So(cfg.GoalResyncSpec, ShouldNotBeEmpty)
		})

		Convey("Then external services are off by default", func() {
			So(cfg.NLPEndpoint, ShouldBeEmpty)
			So(cfg.SimilarityEndpoint, ShouldBeEmpty)
		})
	})
}

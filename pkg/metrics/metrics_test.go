package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerDefaults(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Then it is initialized with the service namespace", func() {
			So(globalManager, ShouldNotBeNil)
			So(globalManager.namespace, ShouldEqual, "scheddy")
			So(globalManager.subsystem, ShouldEqual, "engine")
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}

func TestRecordFunctions(t *testing.T) {
	Convey("Given the package-level record functions", t, func() {
		Convey("When business metrics are recorded", func() {
			So(func() {
				RecordTurn("create_event", "scheduled")
				RecordTurnLatency(12.5)
				RecordPlacement()
				RecordDisplacedEvents(2)
				RecordSlotSearchLatency(1.5)
				RecordSlotSearchMiss()
			}, ShouldNotPanic)
		})

		Convey("When dialogue metrics are recorded", func() {
			So(func() {
				RecordClarificationAsked()
				UpdateConversationsOpen(3)
				RecordConversationsExpired(1)
			}, ShouldNotPanic)
		})

		Convey("When store and error metrics are recorded", func() {
			So(func() {
				UpdateStoreEventsTotal(10)
				UpdateStoreOwnersTotal(2)
				RecordStoreUpdateLatency(0.4)
				RecordStoreQueryLatency(0.2)
				RecordErrorByComponent("repository", "not_found")
			}, ShouldNotPanic)
		})

		Convey("When refresh pipeline metrics are recorded", func() {
			So(func() {
				UpdateRefreshQueueDepth(4)
				RecordRefreshJob()
				RecordRefreshJobError()
				RecordRefreshJobDropped()
				RecordRefreshJobLatency(2.5)
				UpdateRefreshWorkers(4)
			}, ShouldNotPanic)
		})

		Convey("When HTTP metrics are recorded", func() {
			So(func() {
				RecordHTTPRequest("/turns", "POST", "200")
				RecordHTTPRequestDuration("/turns", "POST", "200", 5.0)
			}, ShouldNotPanic)
		})
	})
}

func TestNewManagerWithOptions(t *testing.T) {
	Convey("Given manager options", t, func() {
		Convey("When a manager is built with a custom namespace and registry", func() {
			m := NewManager(
				WithNamespace("testns"),
				WithSubsystem("testsub"),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the options are applied", func() {
				So(m.namespace, ShouldEqual, "testns")
				So(m.subsystem, ShouldEqual, "testsub")
			})
		})
	})
}

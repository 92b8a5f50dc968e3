package metrics

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given manager creation", t, func() {
		Convey("When creating with default options", func() {
			m := NewManager()

			Convey("Then it should expose a private registry", func() {
				So(m, ShouldNotBeNil)
				So(m.Registry(), ShouldNotBeNil)
			})
		})

		Convey("When creating with a custom namespace", func() {
			m := NewManager(WithNamespace("routing_test"))

			Convey("Then all collectors register without collision", func() {
				So(m, ShouldNotBeNil)
				families, err := m.Registry().Gather()
				So(err, ShouldBeNil)
				So(families, ShouldNotBeNil)
			})
		})
	})
}

func TestAssignmentMetrics(t *testing.T) {
	Convey("Given assignment outcome metrics", t, func() {
		Convey("When recording assignments per strategy", func() {
			So(func() {
				RecordAssignment("balanced")
				RecordAssignment("skill_match")
				RecordAssignment("round_robin")
			}, ShouldNotPanic)
		})

		Convey("When recording escalations and rejects", func() {
			So(func() {
				RecordEscalation()
				RecordInvalidTicket()
				RecordCapacityRetry()
				RecordTicketDuplicate()
			}, ShouldNotPanic)
		})

		Convey("When observing latencies", func() {
			So(func() {
				RecordAssignmentLatency(2.5)
				RecordScoringLatency(0.8)
				RecordWorkerLatency(1.2)
			}, ShouldNotPanic)
		})
	})
}

func TestRosterAndPipelineMetrics(t *testing.T) {
	Convey("Given roster and pipeline metrics", t, func() {
		Convey("When updating roster gauges", func() {
			So(func() {
				UpdateTechnicianCount(12)
				UpdateActiveTickets(31)
				UpdateRuleCount(4)
				RecordConfigUpdate()
			}, ShouldNotPanic)
		})

		Convey("When updating queue gauges and counters", func() {
			So(func() {
				UpdateQueueSize(100)
				UpdateQueueCapacity(10_000)
				UpdateQueueUtilization(0.01)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueReject()
			}, ShouldNotPanic)
		})

		Convey("When updating worker gauges", func() {
			So(func() {
				UpdateWorkerCount(8)
				RecordWorkerError()
				UpdateWorkerCount(0)
			}, ShouldNotPanic)
		})
	})
}

func TestHTTPAndSystemMetrics(t *testing.T) {
	Convey("Given HTTP and process metrics", t, func() {
		Convey("When recording HTTP traffic", func() {
			So(func() {
				RecordHTTPRequest("/tickets", "POST", "202")
				RecordHTTPRequest("/assign", "POST", "200")
				RecordHTTPRequestDuration("/tickets", "POST", "202", 3.2)
			}, ShouldNotPanic)
		})

		Convey("When recording errors by component", func() {
			So(func() {
				RecordErrorByComponent("http", "client_error")
				RecordErrorByComponent("worker", "assign_error")
			}, ShouldNotPanic)
		})

		Convey("When updating process health gauges", func() {
			So(func() {
				UpdateSystemMemoryUsage(64 << 20)
				UpdateSystemGoroutineCount(42)
			}, ShouldNotPanic)
		})

		Convey("When gathering the default registry", func() {
			families, err := GetRegistry().Gather()

			Convey("Then recorded families are present", func() {
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}

package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func scrape() string {
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "sentivision")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("web"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.rateLimited.Inc()

			Convey("Then collectors carry the namespace and labels", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_web_http_rate_limited_total")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
			})
		})

		Convey("When empty options are given", func() {
			manager := NewManager(WithNamespace(""), WithHistogramBuckets(nil), WithPrometheusRegistry(prometheus.NewRegistry()))
			So(manager.namespace, ShouldEqual, "sentivision")
			So(len(manager.histogramBuckets), ShouldBeGreaterThan, 0)
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When recording HTTP metrics", func() {
			RecordHTTPRequest("dashboard", "GET", "200")
			RecordHTTPRequestDuration("dashboard", "GET", "200", 12)
			RecordRateLimited()

			Convey("Then they are exposed by the handler", func() {
				body := scrape()
				So(body, ShouldContainSubstring, `sentivision_dashboard_http_requests_total{endpoint="dashboard",method="GET",status_code="200"}`)
				So(body, ShouldContainSubstring, "sentivision_dashboard_http_rate_limited_total")
			})
		})

		Convey("When recording store metrics", func() {
			RecordStoreQuery("list_clients", 3)
			RecordStoreError("list_clients")

			body := scrape()
			So(body, ShouldContainSubstring, `sentivision_dashboard_store_errors_total{op="list_clients"}`)
			So(body, ShouldContainSubstring, "sentivision_dashboard_store_query_latency_milliseconds_bucket")
		})

		Convey("When recording aggregations", func() {
			So(RecordAggregation(ScopeDirect, 4), ShouldBeNil)
			So(RecordAggregation(ScopeCompetitor, 0), ShouldBeNil)

			Convey("Then unknown scopes are rejected", func() {
				err := RecordAggregation("regional", 1)
				So(errors.Is(err, ErrUnknownScope), ShouldBeTrue)
			})

			Convey("Then the scope counters are exposed", func() {
				body := scrape()
				So(body, ShouldContainSubstring, `sentivision_dashboard_aggregations_total{scope="direct"}`)
				So(body, ShouldNotContainSubstring, `scope="regional"`)
			})
		})

		Convey("When recording the remaining gauges and counters", func() {
			So(func() {
				UpdateClientsTotal(3)
				RecordClientsFileWrite(nil)
				RecordClientsFileWrite(errors.New("disk full"))
				RecordErrorByComponent("store", "timeout")
			}, ShouldNotPanic)

			body := scrape()
			So(body, ShouldContainSubstring, "sentivision_dashboard_clients 3")
			So(body, ShouldContainSubstring, `sentivision_dashboard_clients_file_writes_total{result="error"}`)
		})

		Convey("When recording process metrics", func() {
			UpdateSystemMemoryUsage(2048)
			UpdateSystemGoroutineCount(7)
			RecordSystemGCPauseTime(0.2)

			body := scrape()
			So(body, ShouldContainSubstring, "sentivision_dashboard_system_memory_bytes 2048")
			So(body, ShouldContainSubstring, "sentivision_dashboard_system_goroutines 7")
			So(body, ShouldContainSubstring, "sentivision_dashboard_system_gc_pause_milliseconds_count")
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given configured metric naming", t, func() {
		Configure(
			WithNamespace("media"),
			WithSubsystem("web"),
			WithConstLabels(map[string]string{"env": "staging"}),
			WithHistogramBuckets([]float64{5, 50}),
		)
		Reset(func() { Configure() })

		RecordHTTPRequest("dashboard", "GET", "200")
		RecordHTTPRequestDuration("dashboard", "GET", "200", 12)

		Convey("Then the handler exposes the renamed collectors", func() {
			body := scrape()
			So(body, ShouldContainSubstring, `media_web_http_requests_total{endpoint="dashboard",env="staging",method="GET",status_code="200"} 1`)
			So(body, ShouldContainSubstring, `media_web_http_request_duration_milliseconds_bucket{endpoint="dashboard",env="staging",method="GET",status_code="200",le="50"} 1`)
			So(body, ShouldNotContainSubstring, "sentivision_dashboard_http_requests_total")
		})

		Convey("Then configuring without options restores the defaults", func() {
			Configure()
			RecordRateLimited()
			So(scrape(), ShouldContainSubstring, "sentivision_dashboard_http_rate_limited_total 1")
		})
	})
}

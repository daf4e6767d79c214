package metrics

import (
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	MLatencyMs = stats.Float64("http/latency", "The latency in milliseconds per request", "ms")

	MRequests = stats.Int64("http/requests", "Number of requests", "By")

	MJanitorRetries = stats.Int64("janitor/retries", "Orphaned file delete attempts", "By")
)

var (
	LatencyView = &view.View{
		Name:        "http/latency",
		Measure:     MLatencyMs,
		Description: "The distribution of the latencies",

		Aggregation: view.Distribution(0, 5, 10, 25, 50, 75, 100, 200, 400, 600, 800, 1000, 2000, 4000),
		TagKeys:     []tag.Key{KeyMethod, KeyRoute},
	}

	RequestsCountView = &view.View{
		Name:        "http/requests",
		Measure:     MRequests,
		Description: "Number of requests",
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{KeyMethod, KeyRoute, KeyStatus},
	}

	JanitorRetriesView = &view.View{
		Name:        "janitor/retries",
		Measure:     MJanitorRetries,
		Description: "Orphaned file delete attempts by result",
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{KeyResult},
	}
)

var (
	KeyMethod = tag.MustNewKey("method")
	KeyRoute  = tag.MustNewKey("route")
	KeyStatus = tag.MustNewKey("status")
	KeyResult = tag.MustNewKey("result")
)

func RegisterViews() error {
	return view.Register(LatencyView, RequestsCountView, JanitorRetriesView)
}

func SinceInMilliseconds(startTime time.Time) float64 {
	return float64(time.Since(startTime).Nanoseconds()) / 1e6
}

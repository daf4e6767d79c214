package metrics

import (
	"net/http"
	"strconv"

	"contrib.go.opencensus.io/exporter/prometheus"
	"github.com/apex/log"
)

// StartMetricsExporter serves the registered views as a Prometheus
// scrape endpoint on port. It returns the server so callers can stop it.
func StartMetricsExporter(port int) (*http.Server, error) {
	logger := log.WithField("module", "metrics")
	pe, err := prometheus.NewExporter(prometheus.Options{
		Namespace: "studio",
	})
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", pe)
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(port),
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("Failed to run Prometheus scrape endpoint: %v", err)
		}
	}()
	return srv, nil
}

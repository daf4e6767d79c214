package api

import (
	"context"
	"strconv"
	"strings"
	"time"

	"com.aviebrantz.studio-site/pkg/metrics"
	"github.com/gofiber/fiber"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
)

func (as *ApiServer) recordMetrics(c *fiber.Ctx) {
	start := time.Now()
	c.Next()

	// matched route pattern, so ids do not blow up the tag cardinality
	route := "unmatched"
	if r := c.Route(); r != nil {
		route = r.Path
	}
	ctx, err := tag.New(context.Background(),
		tag.Insert(metrics.KeyMethod, c.Method()),
		tag.Insert(metrics.KeyRoute, route),
		tag.Insert(metrics.KeyStatus, strconv.Itoa(c.Fasthttp.Response.StatusCode())),
	)
	if err != nil {
		return
	}
	stats.Record(ctx,
		metrics.MLatencyMs.M(metrics.SinceInMilliseconds(start)),
		metrics.MRequests.M(1),
	)
}

func wantsJSON(c *fiber.Ctx) bool {
	return strings.Contains(c.Get("Accept"), "application/json")
}

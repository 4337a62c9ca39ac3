package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pysugar/code-converter/internal/history"
	"github.com/pysugar/code-converter/internal/logging"
	"github.com/pysugar/code-converter/internal/proxy/response"
)

// ProviderPinger checks the translation provider.
type ProviderPinger interface {
	Ping(ctx context.Context) (time.Duration, error)
}

type dependencyCheck struct {
	Status       string `json:"status"`
	ResponseTime string `json:"responseTime"`
}

type healthReport struct {
	Status   string          `json:"status"`
	Database dependencyCheck `json:"database"`
	Provider dependencyCheck `json:"provider"`
	Uptime   float64         `json:"uptime"`
	Version  string          `json:"version"`
}

// HealthHandler handles GET /api/health. A failing store makes the service
// unavailable (503); an unreachable provider only degrades it.
func HealthHandler(store history.Store, provider ProviderPinger, started time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		dbTime, err := store.Ping(ctx)
		if err != nil {
			logging.Errorf(ctx, "[Health] ❌ Database unreachable: %v", err)
			response.Error(w, http.StatusServiceUnavailable, "Service unavailable")
			return
		}

		report := healthReport{
			Status:   "OK",
			Database: dependencyCheck{Status: "connected", ResponseTime: formatMillis(dbTime)},
			Uptime:   time.Since(started).Seconds(),
			Version:  version,
		}

		providerTime, err := provider.Ping(ctx)
		report.Provider = dependencyCheck{Status: "connected", ResponseTime: formatMillis(providerTime)}
		if err != nil {
			logging.Warnf(ctx, "[Health] ⚠️ Provider unreachable: %v", err)
			report.Status = "DEGRADED"
			report.Provider.Status = "disconnected"
		}

		response.JSON(w, http.StatusOK, report)
	}
}

func formatMillis(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}

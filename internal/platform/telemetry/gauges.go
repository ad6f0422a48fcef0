package telemetry

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Board gauge names exposed on /-/metrics.
const (
	FavoritesGaugeName    = "quotebook_favorites"
	QuotesLoadedGaugeName = "quotebook_quotes_loaded"
)

// GaugeSource reports the current sizes sampled at scrape time.
type GaugeSource struct {
	Favorites    func() int
	QuotesLoaded func() int
}

// RegisterGauges registers the favorites and quotes-loaded gauges with reg.
// A gauge that is already registered is left in place.
func RegisterGauges(reg prometheus.Registerer, src GaugeSource) error {
	if src.Favorites == nil || src.QuotesLoaded == nil {
		return errors.New("telemetry: gauge source functions are required")
	}

	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: FavoritesGaugeName,
			Help: "Number of quotes currently in the favorites set.",
		}, func() float64 { return float64(src.Favorites()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: QuotesLoadedGaugeName,
			Help: "Number of quotes held in the search cache.",
		}, func() float64 { return float64(src.QuotesLoaded()) }),
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}

			return fmt.Errorf("registering gauge: %w", err)
		}
	}

	return nil
}

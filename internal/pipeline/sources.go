package pipeline

import (
	"fmt"

	"github.com/Luc0-0/Samarth/internal/model"
)

// Dataset describes one backing source: a historical analytic table or
// a live portal resource, with the attribution fields its citation
// carries.
type Dataset struct {
	Title      string         `json:"title"`
	Publisher  string         `json:"publisher"`
	Locator    string         `json:"locator"`
	Table      model.TableRef `json:"table,omitempty"`
	ResourceID string         `json:"resource_id,omitempty"`
}

// Live reports whether the dataset is served by the government data
// portal rather than the analytic store.
func (d Dataset) Live() bool { return d.ResourceID != "" }

// Source binds one intent metric to the dataset that serves it.
type Source struct {
	Metric  string
	Dataset Dataset
}

// Citation builds the citation record for this source.
func (s Source) Citation(querySummary, status string) model.Citation {
	return model.Citation{
		DatasetTitle:    s.Dataset.Title,
		ResourceLocator: s.Dataset.Locator,
		Publisher:       s.Dataset.Publisher,
		QuerySummary:    querySummary,
		Status:          status,
	}
}

// Default portal resource identifiers. They are configuration, not
// behavior: stale IDs surface as live-fetch failures handled by the
// historical fallback.
const (
	DefaultMarketResourceID     = "9ef84268-d588-465a-a308-a864a43d0070"
	DefaultProductionResourceID = "3b01bcb8-0b14-4abf-b6f2-c1bfd384ba69"
)

// Catalog is the deterministic metric-to-dataset mapping. It is built
// once at startup and read concurrently by requests.
type Catalog struct {
	historical map[string]Dataset
	live       map[model.Domain]Dataset
}

// NewCatalog builds the catalog. liveResources overrides the default
// portal resource ID per domain; unknown domains in the map are ignored.
func NewCatalog(liveResources map[model.Domain]string) *Catalog {
	marketID := DefaultMarketResourceID
	productionID := DefaultProductionResourceID
	if id, ok := liveResources[model.DomainMarket]; ok && id != "" {
		marketID = id
	}
	if id, ok := liveResources[model.DomainAgriculture]; ok && id != "" {
		productionID = id
	}

	agri := Dataset{
		Title:     "District-wise Crop Production Statistics",
		Publisher: "Ministry of Agriculture & Farmers Welfare",
		Locator:   "https://data.gov.in/catalog/district-wise-season-wise-crop-production-statistics",
	}
	climate := Dataset{
		Title:     "Sub-divisional Monthly Rainfall",
		Publisher: "India Meteorological Department",
		Locator:   "https://data.gov.in/catalog/rainfall-india",
	}

	return &Catalog{
		historical: map[string]Dataset{
			"production": withTable(agri, model.TableRef{Name: "agri_production", ValueColumn: "production_tonnes"}),
			"area":       withTable(agri, model.TableRef{Name: "agri_production", ValueColumn: "area_hectares"}),
			"rainfall":   withTable(climate, model.TableRef{Name: "climate_obs", ValueColumn: "rainfall_mm"}),
		},
		live: map[model.Domain]Dataset{
			model.DomainMarket: {
				Title:      "Current Daily Price of Various Commodities from Various Markets",
				Publisher:  "Ministry of Agriculture & Farmers Welfare",
				Locator:    "https://api.data.gov.in/resource/" + marketID,
				ResourceID: marketID,
			},
			model.DomainAgriculture: {
				Title:      "District-wise Crop Production Statistics (Portal)",
				Publisher:  "Ministry of Agriculture & Farmers Welfare",
				Locator:    "https://api.data.gov.in/resource/" + productionID,
				ResourceID: productionID,
			},
		},
	}
}

func withTable(d Dataset, t model.TableRef) Dataset {
	d.Table = t
	return d
}

// Datasets lists every dataset the catalog knows, historical first.
// The serve layer exposes this as the data inventory.
func (c *Catalog) Datasets() []Dataset {
	seen := map[string]bool{}
	var out []Dataset
	for _, metric := range []string{"production", "area", "rainfall"} {
		d := c.historical[metric]
		if !seen[d.Title] {
			seen[d.Title] = true
			out = append(out, d)
		}
	}
	for _, dom := range []model.Domain{model.DomainMarket, model.DomainAgriculture} {
		if d, ok := c.live[dom]; ok && !seen[d.Title] {
			seen[d.Title] = true
			out = append(out, d)
		}
	}
	return out
}

// Select maps the intent's metrics to concrete sources, one per metric,
// in metric order. A metric with no backing source fails with NoMapping
// so the request produces an error answer, never a silent empty result.
func (c *Catalog) Select(in *model.Intent) ([]Source, error) {
	var out []Source
	for _, metric := range in.Metrics {
		ds, err := c.resolve(metric, in.DataMode)
		if err != nil {
			return nil, err
		}
		out = append(out, Source{Metric: metric, Dataset: ds})
	}
	if len(out) == 0 {
		return nil, model.NoMapping("no metric to map to a source")
	}
	return out, nil
}

// HistoricalFallback returns the historical production source used when
// a live fetch fails.
func (c *Catalog) HistoricalFallback() Source {
	return Source{Metric: "production", Dataset: c.historical["production"]}
}

func (c *Catalog) resolve(metric string, mode model.DataMode) (Dataset, error) {
	if mode == model.ModeLive {
		domain := model.DomainMarket
		if metric == "production" || metric == "area" {
			domain = model.DomainAgriculture
		}
		ds, ok := c.live[domain]
		if !ok {
			return Dataset{}, model.NoMapping(fmt.Sprintf("no live resource for metric %q", metric))
		}
		return ds, nil
	}
	ds, ok := c.historical[metric]
	if !ok {
		return Dataset{}, model.NoMapping(fmt.Sprintf("no historical table for metric %q", metric))
	}
	return ds, nil
}

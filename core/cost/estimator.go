// Package cost - Monthly cost projection for a placed architecture
// Each service instance is priced at cost_per_hour × HoursPerMonth, scaled by
// the adjustment table and the level discount, plus a flat transfer charge per
// billable connection. All arithmetic is decimal; the estimator is pure.
package cost

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cloud-architect-sim/core/catalog"
	"cloud-architect-sim/core/topology"
	"cloud-architect-sim/core/types"
	"cloud-architect-sim/internal/logging"
)

// Factor is one multiplier applied to a line
type Factor struct {
	Multiplier decimal.Decimal `json:"multiplier"`
	Reason     string          `json:"reason"`
}

// Line is the cost of one placed service instance
type Line struct {
	ServiceID string          `json:"service_id"`
	Base      decimal.Decimal `json:"base"`
	Factors   []Factor        `json:"factors,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
}

// Transfer is the data transfer surcharge
type Transfer struct {
	// Billable connections are charged Rate each
	Billable int `json:"billable"`

	// Free connections match a free pair
	Free int `json:"free"`

	// Stale connections reference a service no longer placed
	Stale int `json:"stale"`

	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// Report is an itemised monthly estimate
type Report struct {
	LevelID  int             `json:"level_id,omitempty"`
	Lines    []Line          `json:"lines"`
	Transfer Transfer        `json:"transfer"`
	Total    decimal.Decimal `json:"total"`

	// Skipped lists placed ids the catalog cannot price
	Skipped []string `json:"skipped,omitempty"`
}

// Monthly returns the total as a float for comparisons and display
func (r Report) Monthly() float64 {
	return r.Total.InexactFloat64()
}

// Estimator prices architectures against a catalog
type Estimator struct {
	catalog *catalog.Catalog
}

// NewEstimator creates an estimator
func NewEstimator(c *catalog.Catalog) *Estimator {
	return &Estimator{catalog: c}
}

// Estimate produces an itemised report. levelID may be types.NoLevel.
func (e *Estimator) Estimate(services []string, connections []types.Connection, levelID int) Report {
	facts := topology.NewFacts(services, connections)
	hours := decimal.NewFromInt(HoursPerMonth)
	discount := LevelDiscount(levelID)

	report := Report{
		LevelID: levelID,
		Lines:   make([]Line, 0, len(services)),
		Total:   decimal.Zero,
	}

	for _, id := range services {
		def, ok := e.catalog.Get(id)
		if !ok {
			report.Skipped = append(report.Skipped, id)
			continue
		}

		line := Line{
			ServiceID: id,
			Base:      decimal.NewFromFloat(def.CostPerHour).Mul(hours),
		}
		line.Amount = line.Base

		for _, adj := range adjustments {
			if !adj.applies(id, levelID, facts) {
				continue
			}
			line.Factors = append(line.Factors, Factor{Multiplier: adj.multiplier, Reason: adj.reason})
			line.Amount = line.Amount.Mul(adj.multiplier)
		}
		if !discount.Equal(decimal.NewFromInt(1)) {
			line.Factors = append(line.Factors, Factor{Multiplier: discount, Reason: "level discount"})
			line.Amount = line.Amount.Mul(discount)
		}

		report.Lines = append(report.Lines, line)
		report.Total = report.Total.Add(line.Amount)
	}

	report.Transfer = transfer(facts, connections, levelID)
	report.Total = report.Total.Add(report.Transfer.Amount)

	logging.Debug("cost estimated",
		zap.Int("level", levelID),
		zap.Int("services", len(services)),
		zap.Int("billable_connections", report.Transfer.Billable),
		zap.String("total", report.Total.StringFixed(2)))

	return report
}

func transfer(facts *topology.Facts, connections []types.Connection, levelID int) Transfer {
	t := Transfer{Rate: TransferRate(levelID)}
	for _, c := range connections {
		switch {
		case !facts.Placed(c.Source) || !facts.Placed(c.Target):
			t.Stale++
		case isFree(c.Source, c.Target, levelID):
			t.Free++
		default:
			t.Billable++
		}
	}
	t.Amount = t.Rate.Mul(decimal.NewFromInt(int64(t.Billable)))
	return t
}

// EstimateMonthlyCost returns the projected monthly cost in USD
func (e *Estimator) EstimateMonthlyCost(services []string, connections []types.Connection, levelID int) float64 {
	return e.Estimate(services, connections, levelID).Monthly()
}

// Package reconcile pairs private expenses paid from the business account
// with the reimbursements that settle them.
package reconcile

import (
	"math"
	"strings"
	"time"

	"boekhouden/internal/models"
)

// Weights are the scoring constants. They are a starting calibration and
// can be overridden from settings.
type Weights struct {
	KeywordBonus  float64 `mapstructure:"keyword_bonus"`
	ProximityMax  float64 `mapstructure:"proximity_max"`
	ProximityDays float64 `mapstructure:"proximity_days"`
	VendorBonus   float64 `mapstructure:"vendor_bonus"`
}

// DefaultWeights returns the default scoring constants.
func DefaultWeights() Weights {
	return Weights{
		KeywordBonus:  50,
		ProximityMax:  30,
		ProximityDays: 90,
		VendorBonus:   20,
	}
}

// DefaultKeywords are phrases that mark a reimbursement, matched
// case-insensitively against the reimbursement description.
var DefaultKeywords = []string{
	"terugbetaling",
	"terugstorting",
	"terug betaald",
	"verkeerde rekening",
	"foute rekening",
	"onjuiste rekening",
	"verkeerde kaart",
	"remboursement",
	"mauvais compte",
}

// Scorer computes how plausible it is that R reimburses E.
type Scorer struct {
	weights  Weights
	keywords []string
}

// NewScorer creates a Scorer. A nil keyword list uses DefaultKeywords.
func NewScorer(w Weights, keywords []string) *Scorer {
	if keywords == nil {
		keywords = DefaultKeywords
	}
	lower := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lower = append(lower, k)
		}
	}
	return &Scorer{weights: w, keywords: lower}
}

// Breakdown shows how a score was built.
type Breakdown struct {
	Keyword   float64 `json:"keyword"`
	Proximity float64 `json:"proximity"`
	Vendor    float64 `json:"vendor"`
	Days      int     `json:"days"`
}

// Total is the sum of all bonuses.
func (b Breakdown) Total() float64 {
	return b.Keyword + b.Proximity + b.Vendor
}

// Score returns the compatibility score of expense e and reimbursement r.
func (s *Scorer) Score(e, r *models.Transaction) float64 {
	return s.Explain(e, r).Total()
}

// Explain returns the individual bonuses for the pair.
func (s *Scorer) Explain(e, r *models.Transaction) Breakdown {
	var b Breakdown

	desc := strings.ToLower(models.Deref(r.Description))
	for _, k := range s.keywords {
		if strings.Contains(desc, k) {
			b.Keyword = s.weights.KeywordBonus
			break
		}
	}

	b.Days = daysApart(e.BookingDate, r.BookingDate)
	if s.weights.ProximityDays > 0 {
		frac := 1 - float64(b.Days)/s.weights.ProximityDays
		b.Proximity = math.Round(math.Max(0, s.weights.ProximityMax*frac)*100) / 100
	}

	vendor := strings.ToLower(strings.TrimSpace(models.Deref(e.CounterpartyName)))
	if vendor != "" && strings.Contains(desc, vendor) {
		b.Vendor = s.weights.VendorBonus
	}

	return b
}

func daysApart(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	d := b.Sub(a)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}

package scoring

import (
	"math"

	"github.com/okian/sentivision/internal/domain/model"
)

// Color is a presentation token shared by gauges, tiles and badges.
type Color string

// Color tokens.
const (
	ColorGray   Color = "gray"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorRed    Color = "red"
)

// Qualitative gauge labels.
const (
	LabelNoData   = "No data"
	LabelPositive = "Positive"
	LabelNeutral  = "Neutral"
	LabelNegative = "Negative"
)

// Classification thresholds. Each band includes its lower bound.
const (
	PositiveThreshold = 0.2
	NegativeThreshold = -0.2
)

// Gauge is the semicircular gauge rendering of an aggregate score.
type Gauge struct {
	Percent  float64  `json:"percent"`
	Rotation float64  `json:"rotation_degrees"`
	Color    Color    `json:"color"`
	Label    string   `json:"label"`
	Rounded  *float64 `json:"rounded_score"`
}

// Classify maps a score onto its color and qualitative label. Every
// sentiment coloring decision goes through here.
func Classify(score float64) (Color, string) {
	switch {
	case score >= PositiveThreshold:
		return ColorGreen, LabelPositive
	case score >= NegativeThreshold:
		return ColorYellow, LabelNeutral
	default:
		return ColorRed, LabelNegative
	}
}

// ToGauge converts an optional score in [-1, 1] to gauge values.
func ToGauge(score *float64) Gauge {
	if score == nil {
		return Gauge{Percent: 50, Rotation: 0, Color: ColorGray, Label: LabelNoData}
	}
	s := *score
	color, label := Classify(s)
	rounded := round(s, 2)
	return Gauge{
		Percent:  round(math.Max(0, math.Min(100, (s+1)*50)), 1),
		Rotation: round(s*90, 1),
		Color:    color,
		Label:    label,
		Rounded:  &rounded,
	}
}

// Badge is the per-article sentiment chip.
type Badge struct {
	Color Color    `json:"color"`
	Label string   `json:"label"`
	Score *float64 `json:"score"`
}

// BadgeFor colors an article by its own score. Unscored articles get the
// no-data badge even when the pipeline attached a label.
func BadgeFor(a model.Article) Badge {
	if a.SentimentScore == nil {
		return Badge{Color: ColorGray, Label: LabelNoData}
	}
	color, label := Classify(*a.SentimentScore)
	rounded := round(*a.SentimentScore, 2)
	return Badge{Color: color, Label: label, Score: &rounded}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

package scoring_test

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/okian/sentivision/internal/domain/model"
	scoring "github.com/okian/sentivision/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func score(v float64) *float64 { return &v }

func article(id int64, title string, s *float64, label model.Label, tier model.Tier) model.Article {
	return model.Article{
		ID:             id,
		Title:          title,
		SentimentScore: s,
		SentimentLabel: label,
		MediaTier:      tier,
		FetchedAt:      time.Date(2025, 1, 1, 0, 0, int(id), 0, time.UTC),
	}
}

func TestWeight(t *testing.T) {
	Convey("Given the tier weight policy", t, func() {
		So(scoring.Weight(model.TierMajor), ShouldEqual, 3.0)
		So(scoring.Weight(model.TierBusiness), ShouldEqual, 2.0)
		So(scoring.Weight(model.TierIndustry), ShouldEqual, 1.0)
		So(scoring.Weight(model.TierVendor), ShouldEqual, 0.5)

		Convey("Then unknown tiers weigh 1.0", func() {
			So(scoring.Weight(0), ShouldEqual, 1.0)
			So(scoring.Weight(17), ShouldEqual, 1.0)
		})
	})
}

func TestParseTiers(t *testing.T) {
	Convey("Given tier query values", t, func() {
		Convey("When none are supplied", func() {
			So(scoring.ParseTiers(nil), ShouldEqual, scoring.AllTiers)
		})

		Convey("When only invalid values are supplied", func() {
			So(scoring.ParseTiers([]string{"0", "x", "9"}), ShouldEqual, scoring.AllTiers)
		})

		Convey("When a subset is supplied", func() {
			set := scoring.ParseTiers([]string{"1", "2", "bogus"})
			So(set.Slice(), ShouldResemble, []model.Tier{model.TierMajor, model.TierBusiness})
			So(set.Contains(model.TierIndustry), ShouldBeFalse)
			So(set.All(), ShouldBeFalse)
			So(set.Query().Encode(), ShouldEqual, "tier=1&tier=2")
		})
	})
}

func TestAggregate(t *testing.T) {
	Convey("Given a client named Acme", t, func() {
		acme := model.Client{Name: "Acme", Industries: []string{"rockets"}, Competitors: []string{"Globex"}}
		items := []model.Article{
			article(1, "Acme soars", score(0.5), model.LabelPositive, model.TierMajor),
			article(2, "Acme stumbles", score(-0.3), model.LabelNegative, model.TierIndustry),
			article(3, "Quarterly roundup", nil, model.LabelNone, model.TierBusiness),
		}

		Convey("When aggregating direct mentions over all tiers", func() {
			res := scoring.Aggregate(items, scoring.DirectMention(acme), scoring.AllTiers)

			Convey("Then the mean is tier weighted", func() {
				So(res.Total, ShouldEqual, 2)
				So(res.Scored, ShouldEqual, 2)
				So(*res.WeightedMean, ShouldAlmostEqual, 0.3, 1e-9)
				So(res.Positive, ShouldEqual, 1)
				So(res.Negative, ShouldEqual, 1)
			})
		})

		Convey("When tier 3 is inactive", func() {
			res := scoring.Aggregate(items, scoring.DirectMention(acme), scoring.NewTierSet(model.TierMajor, model.TierBusiness))

			Convey("Then the tier 3 item is excluded from count and mean", func() {
				So(res.Total, ShouldEqual, 1)
				So(res.Scored, ShouldEqual, 1)
				So(*res.WeightedMean, ShouldAlmostEqual, 0.5, 1e-9)
				So(res.Negative, ShouldEqual, 0)
			})
		})

		Convey("When no tier is active", func() {
			res := scoring.Aggregate(items, scoring.DirectMention(acme), scoring.TierSet(0))
			So(res, ShouldResemble, scoring.Result{})
		})

		Convey("When nothing in scope is scored", func() {
			res := scoring.Aggregate(items, scoring.MentionsAny("roundup"), scoring.AllTiers)

			Convey("Then the mean is nil and the gauge shows no data", func() {
				So(res.Total, ShouldEqual, 1)
				So(res.Scored, ShouldEqual, 0)
				So(res.WeightedMean, ShouldBeNil)
				So(scoring.ToGauge(res.WeightedMean).Label, ShouldEqual, scoring.LabelNoData)
				So(scoring.ToGauge(res.WeightedMean).Color, ShouldEqual, scoring.ColorGray)
			})
		})

		Convey("When the input is empty", func() {
			res := scoring.Aggregate(nil, scoring.DirectMention(acme), scoring.AllTiers)
			So(res.WeightedMean, ShouldBeNil)
			So(res.Total, ShouldEqual, 0)
		})

		Convey("When an item carries a label without a score", func() {
			odd := append(items, article(4, "Acme note", nil, model.LabelPositive, model.TierMajor))
			res := scoring.Aggregate(odd, scoring.DirectMention(acme), scoring.AllTiers)

			Convey("Then label counts never exceed the scored count", func() {
				So(res.Total, ShouldEqual, 3)
				So(res.Positive+res.Neutral+res.Negative, ShouldBeLessThanOrEqualTo, res.Scored)
			})
		})

		Convey("When computing the three scopes", func() {
			items = append(items,
				article(5, "rockets are booming", score(0.8), model.LabelPositive, model.TierBusiness),
				article(6, "Globex sued", score(-0.9), model.LabelNegative, model.TierVendor),
			)
			scopes := scoring.AggregateScopes(acme, items, scoring.AllTiers)

			So(scopes.Direct.Total, ShouldEqual, 2)
			So(scopes.Industry.Total, ShouldEqual, 1)
			So(*scopes.Industry.WeightedMean, ShouldAlmostEqual, 0.8, 1e-9)
			So(scopes.Competitor.Total, ShouldEqual, 1)
			So(*scopes.Competitor.WeightedMean, ShouldAlmostEqual, -0.9, 1e-9)
		})
	})
}

func TestMentionsAny(t *testing.T) {
	Convey("Given substring predicates", t, func() {
		a := model.Article{Title: "Acmeville council meets", Body: "Nothing about rockets"}

		Convey("Then matching is case sensitive", func() {
			So(scoring.MentionsAny("acme")(a), ShouldBeFalse)
			So(scoring.MentionsAny("Acme")(a), ShouldBeTrue)
		})

		Convey("And it matches inside longer words", func() {
			So(scoring.MentionsAny("Acme")(a), ShouldBeTrue)
		})

		Convey("And it searches the body", func() {
			So(scoring.MentionsAny("space", "rockets")(a), ShouldBeTrue)
		})

		Convey("And an empty keyword list matches nothing", func() {
			So(scoring.MentionsAny()(a), ShouldBeFalse)
			So(scoring.MentionsAny("")(a), ShouldBeFalse)
		})

		Convey("And Not inverts the match", func() {
			So(scoring.Not(scoring.MentionsAny("Acme"))(a), ShouldBeFalse)
		})
	})
}

func TestWeightedMeanBounds(t *testing.T) {
	Convey("Given random score sequences", t, func() {
		rng := rand.New(rand.NewSource(7))
		tiers := model.AllTiers

		Convey("Then the weighted mean stays within the score range", func() {
			for round := 0; round < 200; round++ {
				n := 1 + rng.Intn(25)
				items := make([]model.Article, n)
				lo, hi := math.Inf(1), math.Inf(-1)
				for i := range items {
					v := rng.Float64()*2 - 1
					lo, hi = math.Min(lo, v), math.Max(hi, v)
					items[i] = article(int64(i), "x", score(v), model.LabelNone, tiers[rng.Intn(len(tiers))])
				}
				res := scoring.Aggregate(items, scoring.MentionsAny("x"), scoring.AllTiers)
				So(*res.WeightedMean, ShouldBeBetweenOrEqual, lo-1e-12, hi+1e-12)
			}
		})
	})
}

func TestToGauge(t *testing.T) {
	Convey("Given gauge mapping", t, func() {
		Convey("When the score is nil", func() {
			g := scoring.ToGauge(nil)
			So(g.Percent, ShouldEqual, 50.0)
			So(g.Rotation, ShouldEqual, 0.0)
			So(g.Label, ShouldEqual, scoring.LabelNoData)
			So(g.Rounded, ShouldBeNil)
		})

		Convey("When the score is at the extremes", func() {
			hi := scoring.ToGauge(score(1.0))
			So(hi.Percent, ShouldEqual, 100.0)
			So(hi.Rotation, ShouldEqual, 90.0)
			lo := scoring.ToGauge(score(-1.0))
			So(lo.Percent, ShouldEqual, 0.0)
			So(lo.Rotation, ShouldEqual, -90.0)
		})

		Convey("When the score sits on a band boundary", func() {
			So(scoring.ToGauge(score(0.2)).Label, ShouldEqual, scoring.LabelPositive)
			So(scoring.ToGauge(score(0.19999)).Label, ShouldEqual, scoring.LabelNeutral)
			So(scoring.ToGauge(score(-0.2)).Label, ShouldEqual, scoring.LabelNeutral)
			So(scoring.ToGauge(score(-0.20001)).Label, ShouldEqual, scoring.LabelNegative)
			So(scoring.ToGauge(score(-0.20001)).Color, ShouldEqual, scoring.ColorRed)
		})

		Convey("When the score needs rounding", func() {
			g := scoring.ToGauge(score(0.4567))
			So(g.Percent, ShouldEqual, 72.8)
			So(g.Rotation, ShouldEqual, 41.1)
			So(*g.Rounded, ShouldEqual, 0.46)
			So(g.Color, ShouldEqual, scoring.ColorGreen)
		})
	})
}

func TestBadgeFor(t *testing.T) {
	Convey("Given articles with and without scores", t, func() {
		Convey("Then unscored articles get the no-data badge", func() {
			b := scoring.BadgeFor(article(1, "x", nil, model.LabelPositive, model.TierMajor))
			So(b.Color, ShouldEqual, scoring.ColorGray)
			So(b.Label, ShouldEqual, scoring.LabelNoData)
			So(b.Score, ShouldBeNil)
		})

		Convey("Then scored articles use the gauge thresholds", func() {
			b := scoring.BadgeFor(article(2, "x", score(-0.2), model.LabelNone, model.TierMajor))
			So(b.Color, ShouldEqual, scoring.ColorYellow)
			So(*b.Score, ShouldEqual, -0.2)

			b = scoring.BadgeFor(article(3, "x", score(0.876), model.LabelNone, model.TierMajor))
			So(b.Label, ShouldEqual, scoring.LabelPositive)
			So(*b.Score, ShouldEqual, 0.88)
		})
	})
}

// Package scoring aggregates upstream sentiment scores into weighted,
// tier-aware results and maps them onto gauge presentation values.
package scoring

import (
	"net/url"
	"strconv"

	"github.com/okian/sentivision/internal/domain/model"
)

// Tier weights. Anything outside the known tiers weighs defaultTierWeight.
const (
	majorTierWeight    = 3.0
	businessTierWeight = 2.0
	industryTierWeight = 1.0
	vendorTierWeight   = 0.5
	defaultTierWeight  = 1.0
)

// Weight returns the multiplicative weight of a media tier.
func Weight(t model.Tier) float64 {
	switch t {
	case model.TierMajor:
		return majorTierWeight
	case model.TierBusiness:
		return businessTierWeight
	case model.TierIndustry:
		return industryTierWeight
	case model.TierVendor:
		return vendorTierWeight
	default:
		return defaultTierWeight
	}
}

// TierSet is a set of active media tiers stored as a bitmask.
type TierSet uint8

// AllTiers is the set containing every known tier.
const AllTiers TierSet = 1<<model.TierMajor | 1<<model.TierBusiness | 1<<model.TierIndustry | 1<<model.TierVendor

// NewTierSet builds a set from tiers. Unknown tiers are ignored.
func NewTierSet(tiers ...model.Tier) TierSet {
	var s TierSet
	for _, t := range tiers {
		if t.Valid() {
			s |= 1 << t
		}
	}
	return s
}

// ParseTiers parses tier selections carried in a URL query. When nothing
// valid is selected the result falls back to all tiers.
func ParseTiers(raw []string) TierSet {
	var s TierSet
	for _, r := range raw {
		n, err := strconv.Atoi(r)
		if err != nil {
			continue
		}
		s |= NewTierSet(model.Tier(n))
	}
	if s == 0 {
		return AllTiers
	}
	return s
}

// Contains reports whether t is active.
func (s TierSet) Contains(t model.Tier) bool {
	return t.Valid() && s&(1<<t) != 0
}

// Empty reports whether no tier is active.
func (s TierSet) Empty() bool { return s&AllTiers == 0 }

// All reports whether every tier is active.
func (s TierSet) All() bool { return s&AllTiers == AllTiers }

// Slice returns the active tiers in ascending order.
func (s TierSet) Slice() []model.Tier {
	out := make([]model.Tier, 0, len(model.AllTiers))
	for _, t := range model.AllTiers {
		if s.Contains(t) {
			out = append(out, t)
		}
	}
	return out
}

// Query encodes the set as repeated tier parameters so that the selection
// can be carried through links.
func (s TierSet) Query() url.Values {
	v := url.Values{}
	for _, t := range s.Slice() {
		v.Add("tier", strconv.Itoa(int(t)))
	}
	return v
}

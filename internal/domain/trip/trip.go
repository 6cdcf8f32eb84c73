// Package trip defines the travel preferences a user submits for one planning run.
package trip

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Strob0t/TripCrew/internal/domain"
)

// TravelType is the kind of trip the user is planning.
type TravelType string

const (
	TravelLeisure   TravelType = "Leisure"
	TravelBusiness  TravelType = "Business"
	TravelAdventure TravelType = "Adventure"
	TravelCultural  TravelType = "Cultural"
)

// TravelTypes lists the selectable travel types in display order.
var TravelTypes = []TravelType{TravelLeisure, TravelBusiness, TravelAdventure, TravelCultural}

// Season is the time of year the trip takes place.
type Season string

const (
	SeasonSummer Season = "Summer"
	SeasonWinter Season = "Winter"
	SeasonSpring Season = "Spring"
	SeasonFall   Season = "Fall"
)

// Seasons lists the selectable seasons in display order.
var Seasons = []Season{SeasonSummer, SeasonWinter, SeasonSpring, SeasonFall}

// Budget is the spending tier for the whole trip.
type Budget string

const (
	BudgetLow     Budget = "$500-$1000"
	BudgetMedium  Budget = "$1000-$2000"
	BudgetHigh    Budget = "$2000-$5000"
	BudgetLuxury  Budget = "Luxury"
	defaultBudget        = BudgetLow
)

// Budgets lists the selectable budget tiers in display order.
var Budgets = []Budget{BudgetLow, BudgetMedium, BudgetHigh, BudgetLuxury}

// Interests lists the selectable interests in display order.
var Interests = []string{"History", "Food", "Nature", "Art", "Shopping", "Nightlife"}

// Duration bounds in days.
const (
	MinDuration     = 1
	MaxDuration     = 14
	DefaultDuration = 7
)

// Preferences is the immutable record submitted for one run.
type Preferences struct {
	TravelType TravelType `json:"travel_type" yaml:"travel_type"`
	Interests  []string   `json:"interests" yaml:"interests"`
	Season     Season     `json:"season" yaml:"season"`
	Duration   int        `json:"duration" yaml:"duration"`
	Budget     Budget     `json:"budget" yaml:"budget"`
}

// Defaults returns the preselected form values.
func Defaults() Preferences {
	return Preferences{
		TravelType: TravelLeisure,
		Interests:  []string{},
		Season:     SeasonSummer,
		Duration:   DefaultDuration,
		Budget:     defaultBudget,
	}
}

// Normalize returns a copy with surrounding whitespace trimmed and duplicate
// interests collapsed (first occurrence wins). The receiver is not modified.
func (p Preferences) Normalize() Preferences {
	out := p
	out.TravelType = TravelType(strings.TrimSpace(string(p.TravelType)))
	out.Season = Season(strings.TrimSpace(string(p.Season)))
	out.Budget = Budget(strings.TrimSpace(string(p.Budget)))

	out.Interests = make([]string, 0, len(p.Interests))
	seen := make(map[string]bool, len(p.Interests))
	for _, in := range p.Interests {
		in = strings.TrimSpace(in)
		if in == "" || seen[in] {
			continue
		}
		seen[in] = true
		out.Interests = append(out.Interests, in)
	}
	return out
}

// Validate checks every field against its allowed values.
func (p *Preferences) Validate() error {
	if !slices.Contains(TravelTypes, p.TravelType) {
		return fmt.Errorf("%w: unknown travel_type %q", domain.ErrValidation, p.TravelType)
	}
	if !slices.Contains(Seasons, p.Season) {
		return fmt.Errorf("%w: unknown season %q", domain.ErrValidation, p.Season)
	}
	if !slices.Contains(Budgets, p.Budget) {
		return fmt.Errorf("%w: unknown budget %q", domain.ErrValidation, p.Budget)
	}
	if p.Duration < MinDuration || p.Duration > MaxDuration {
		return fmt.Errorf("%w: duration must be between %d and %d days", domain.ErrValidation, MinDuration, MaxDuration)
	}
	for _, in := range p.Interests {
		if !slices.Contains(Interests, in) {
			return fmt.Errorf("%w: unknown interest %q", domain.ErrValidation, in)
		}
	}
	return nil
}

// InterestList joins the interests for use in prompts. An empty set reads as
// "no particular interests".
func (p *Preferences) InterestList() string {
	if len(p.Interests) == 0 {
		return "no particular interests"
	}
	return strings.Join(p.Interests, ", ")
}

// HasInterest reports whether the interest was selected.
func (p *Preferences) HasInterest(name string) bool {
	return slices.Contains(p.Interests, name)
}

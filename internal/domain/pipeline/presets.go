package pipeline

import "github.com/Strob0t/TripCrew/internal/domain/agent"

// TripPlanning returns the four-step trip-planning pipeline:
// city selection → city research → itinerary → budget (consumes the itinerary).
func TripPlanning() Template {
	return Template{
		Steps: []Step{
			{
				Kind:  KindCitySelection,
				Agent: agent.KeyCitySelector,
				Instruction: `Analyze the traveler's preferences and select the best cities to visit.
Travel type: {{.TravelType}}
Interests: {{.Interests}}
Season: {{.Season}}
Trip duration: {{.Duration}} days
Budget: {{.Budget}}

Weigh seasonal weather, local events, overall travel costs and how well each city matches the interests.`,
				ExpectedOutput: "A shortlist of three recommended cities, each with a short explanation of why it fits the traveler.",
			},
			{
				Kind:  KindCityResearch,
				Agent: agent.KeyLocalExpert,
				Instruction: `Research {{.Destination}} as a local would present it to a visitor.
Cover the main attractions, neighborhoods worth exploring, local customs, hidden gems and practical tips for getting around.`,
				ExpectedOutput: "A destination guide for {{.Destination}} with attractions, hidden gems and practical tips.",
			},
			{
				Kind:  KindItineraryCreation,
				Agent: agent.KeyTravelPlanner,
				Instruction: `Create a {{.Duration}}-day itinerary for {{.Destination}}.
Travel type: {{.TravelType}}
Interests: {{.Interests}}
Season: {{.Season}}
Budget: {{.Budget}}

Plan morning, afternoon and evening for each day, including meals and transport between stops.`,
				ExpectedOutput: "A day-by-day itinerary for all {{.Duration}} days.",
			},
			{
				Kind:  KindBudgetPlanning,
				Agent: agent.KeyBudgetManager,
				Instruction: `Prepare a budget breakdown for the itinerary of this {{.Duration}}-day {{.TravelType}} trip.
The total must stay within the {{.Budget}} range.
Cover accommodation, food, local transport, activities and a contingency buffer, and suggest savings where the plan runs over.`,
				ExpectedOutput: "An itemized budget with per-category costs, a total, and money-saving suggestions.",
				DependsOn:      []int{2},
			},
		},
	}
}

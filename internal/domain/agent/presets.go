package agent

// Builtin returns the default crew personas.
func Builtin() Definitions {
	return Definitions{
		CitySelector: Spec{
			Key:       KeyCitySelector,
			Role:      "City Selection Expert",
			Goal:      "Identify best cities to visit based on user preferences",
			Backstory: "An expert travel geographer with extensive knowledge about world cities.",
		},
		LocalExpert: Spec{
			Key:       KeyLocalExpert,
			Role:      "Local Destination Expert",
			Goal:      "Provide insights about cities, attractions, and hidden gems.",
			Backstory: "A local guide with first-hand experience of each city.",
		},
		TravelPlanner: Spec{
			Key:       KeyTravelPlanner,
			Role:      "Professional Travel Planner",
			Goal:      "Create detailed day-by-day travel itineraries.",
			Backstory: "An experienced travel coordinator specializing in logistics.",
		},
		BudgetManager: Spec{
			Key:       KeyBudgetManager,
			Role:      "Travel Budget Specialist",
			Goal:      "Optimize travel plans to stay within budget.",
			Backstory: "A financial planner focusing on cost optimization.",
		},
	}
}

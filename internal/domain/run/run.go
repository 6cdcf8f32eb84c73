// Package run defines the outcome of one crew run: the four section texts and
// the record kept for later lookup.
package run

import (
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/TripCrew/internal/domain/trip"
)

// Placeholders used when a section has no output.
const (
	NoCitySelection = "❌ No city selection found."
	NoCityResearch  = "❌ No city research found."
	NoItinerary     = "❌ No itinerary generated."
	NoBudget        = "❌ No budget breakdown available."
)

// TaskOutput is the raw text one task produced.
type TaskOutput struct {
	Raw string `json:"raw"`
}

// Result holds exactly the four sections of a plan.
type Result struct {
	CitySelection string `json:"city_selection"`
	CityResearch  string `json:"city_research"`
	Itinerary     string `json:"itinerary"`
	Budget        string `json:"budget"`
}

// FromOutputs maps task outputs by position onto the four sections.
// Positions with no output get that section's placeholder; extra outputs are ignored.
func FromOutputs(outputs []TaskOutput) Result {
	pick := func(i int, placeholder string) string {
		if i < len(outputs) {
			return outputs[i].Raw
		}
		return placeholder
	}
	return Result{
		CitySelection: pick(0, NoCitySelection),
		CityResearch:  pick(1, NoCityResearch),
		Itinerary:     pick(2, NoItinerary),
		Budget:        pick(3, NoBudget),
	}
}

// Section is a titled block of a rendered plan.
type Section struct {
	Key   string
	Title string
	Body  string
}

// Sections returns the four sections in display order.
func (r *Result) Sections() []Section {
	return []Section{
		{Key: "city_selection", Title: "Recommended Cities", Body: r.CitySelection},
		{Key: "city_research", Title: "Destination Insights", Body: r.CityResearch},
		{Key: "itinerary", Title: "Detailed Itinerary", Body: r.Itinerary},
		{Key: "budget", Title: "Budget Breakdown", Body: r.Budget},
	}
}

// Markdown renders the result as a single markdown document.
func (r *Result) Markdown() string {
	var b strings.Builder
	for i, s := range r.Sections() {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n", s.Title, strings.TrimSpace(s.Body))
	}
	return b.String()
}

// Status is the terminal state of a run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Record is a run as it is cached, stored and returned by the API.
// Failed runs carry no Result.
type Record struct {
	ID          string           `json:"id"`
	Status      Status           `json:"status"`
	Preferences trip.Preferences `json:"preferences"`
	Result      *Result          `json:"result,omitempty"`
	Provider    string           `json:"provider"`
	Destination string           `json:"destination"`
	CreatedAt   time.Time        `json:"created_at"`
	CompletedAt time.Time        `json:"completed_at"`
}

// Duration returns the wall-clock time the run took.
func (r *Record) Duration() time.Duration {
	return r.CompletedAt.Sub(r.CreatedAt)
}

// Document renders a downloadable markdown plan with a short header.
func (r *Record) Document() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Trip plan: %s\n\n", r.Destination)
	p := r.Preferences
	fmt.Fprintf(&b, "- Travel type: %s\n- Interests: %s\n- Season: %s\n- Duration: %d days\n- Budget: %s\n\n",
		p.TravelType, p.InterestList(), p.Season, p.Duration, p.Budget)
	if r.Result == nil {
		b.WriteString("_This run failed and produced no plan._\n")
		return b.String()
	}
	b.WriteString(r.Result.Markdown())
	return b.String()
}

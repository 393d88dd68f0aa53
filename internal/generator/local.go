package generator

import (
	"context"
	"fmt"

	"github.com/Rrens/trip-planner/internal/domain"
)

// LocalProvider suggests a fixed set of activities. It needs no credentials
// and is the fallback for every other provider.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (p *LocalProvider) Name() string {
	return "local"
}

func (p *LocalProvider) IsConfigured() bool {
	return true
}

func (p *LocalProvider) Suggest(ctx context.Context, prefs domain.Preferences) (*Suggestions, error) {
	dest := prefs.Destination
	activities := []string{
		fmt.Sprintf("Visit the main landmark of %s", dest),
		"Explore the local market",
		"Take a scenic walking tour",
		"Enjoy a sunset view",
		fmt.Sprintf("Try a traditional dish of %s", dest),
		"Visit a museum or gallery",
		"Relax in a park",
		"Join a local cooking class",
		"Take a day trip to the surroundings",
		"See a live performance",
		"Browse independent shops",
		"Have dinner at a rooftop restaurant",
	}

	return &Suggestions{
		Activities: activities,
		FoodCulture: FoodCulture{
			CuisineSummary: fmt.Sprintf("%s offers a mix of street food and traditional restaurants worth exploring.", dest),
			CulturalNote:   fmt.Sprintf("Learn a few local greetings before arriving in %s; it is appreciated.", dest),
		},
	}, nil
}

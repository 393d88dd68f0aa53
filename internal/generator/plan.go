package generator

import (
	"hash/fnv"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Rrens/trip-planner/internal/domain"
)

// Plan is the itinerary payload returned by the generate endpoint
type Plan struct {
	Meta        Meta        `json:"meta"`
	Flights     []Flight    `json:"flights"`
	Hotels      []Hotel     `json:"hotels"`
	Activities  []string    `json:"activities"`
	PackingList []string    `json:"packing_list"`
	CO2Kg       float64     `json:"co2_kg"`
	FoodCulture FoodCulture `json:"food_culture"`
	DayPlan     []DayPlan   `json:"day_plan"`
	Weather     []Forecast  `json:"weather_forecast"`
	Provider    string      `json:"provider"`
}

type Meta struct {
	Budget      domain.Budget     `json:"budget"`
	Destination string            `json:"destination"`
	Days        int               `json:"days"`
	TravelWith  domain.TravelWith `json:"travel_with"`
}

type Flight struct {
	Airline     string  `json:"airline"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Departure   *string `json:"departure"`
	Arrival     string  `json:"arrival"`
	Duration    string  `json:"duration"`
	CO2Estimate float64 `json:"co2_estimate"`
}

type Hotel struct {
	Name          string   `json:"name"`
	PricePerNight float64  `json:"price_per_night"`
	Currency      string   `json:"currency"`
	Rating        float64  `json:"rating"`
	Amenities     []string `json:"amenities"`
}

type FoodCulture struct {
	CuisineSummary string `json:"cuisine_summary"`
	CulturalNote   string `json:"cultural_note"`
}

// Forecast is one day of the simplified outlook shown with the plan
type Forecast struct {
	Date    string  `json:"date"`
	TempC   float64 `json:"temp"`
	Summary string  `json:"summary"`
}

type DayPlan struct {
	Day        int      `json:"day"`
	Activities []string `json:"activities"`
}

const (
	maxActivitiesPerDay = 3
	forecastDays        = 3
)

var now = time.Now

var skies = []string{"clear sky", "few clouds", "scattered clouds", "light rain", "overcast clouds"}

var budgetFactor = map[domain.Budget]float64{
	domain.BudgetEconomy:  0.6,
	domain.BudgetStandard: 1.0,
	domain.BudgetLuxury:   2.5,
}

var partySize = map[domain.TravelWith]int{
	domain.TravelSolo:   1,
	domain.TravelCouple: 2,
	domain.TravelGroup:  4,
}

// Assemble completes suggestions into a full plan. Days must be positive.
func Assemble(prefs domain.Preferences, s *Suggestions, provider string) *Plan {
	days := 1
	if prefs.Days != nil && *prefs.Days > 0 {
		days = *prefs.Days
	}
	factor, ok := budgetFactor[prefs.Budget]
	if !ok {
		factor = 1.0
	}
	people, ok := partySize[prefs.TravelWith]
	if !ok {
		people = 1
	}

	flights := []Flight{
		{
			Airline:     "SkyMock",
			Price:       math.Round(150 * factor * float64(people)),
			Currency:    "USD",
			Departure:   prefs.Origin,
			Arrival:     prefs.Destination,
			Duration:    "3h 10m",
			CO2Estimate: 180 * float64(people),
		},
		{
			Airline:     "CloudJet",
			Price:       math.Round(210 * factor * float64(people)),
			Currency:    "USD",
			Departure:   prefs.Origin,
			Arrival:     prefs.Destination,
			Duration:    "2h 45m",
			CO2Estimate: 160 * float64(people),
		},
	}

	hotels := []Hotel{
		{
			Name:          "Grand View " + prefs.Destination,
			PricePerNight: math.Round(200 * factor),
			Currency:      "USD",
			Rating:        4.5,
			Amenities:     []string{"Free Wifi", "Pool"},
		},
		{
			Name:          prefs.Destination + " Central Inn",
			PricePerNight: math.Round(110 * factor),
			Currency:      "USD",
			Rating:        4.0,
			Amenities:     []string{"Free Wifi", "Breakfast"},
		},
	}

	return &Plan{
		Meta: Meta{
			Budget:      prefs.Budget,
			Destination: prefs.Destination,
			Days:        days,
			TravelWith:  prefs.TravelWith,
		},
		Flights:     flights,
		Hotels:      hotels,
		Activities:  s.Activities,
		PackingList: packingList(days),
		CO2Kg:       estimateCO2(flights, prefs.Destination),
		FoodCulture: s.FoodCulture,
		DayPlan:     dayPlan(s.Activities, days),
		Weather:     forecast(prefs.Destination, now().UTC()),
		Provider:    provider,
	}
}

func packingList(days int) []string {
	return []string{
		"Passport/ID",
		"Phone & Charger",
		"Toiletries",
		"Medications",
		strconv.Itoa(days) + "x casual outfit",
		"1x jacket",
		"1x swimwear",
	}
}

// estimateCO2 averages the flight estimates, falling back to a destination guess
func estimateCO2(flights []Flight, destination string) float64 {
	var sum float64
	var n int
	for _, f := range flights {
		if f.CO2Estimate > 0 {
			sum += f.CO2Estimate
			n++
		}
	}
	if n > 0 {
		return math.Round(sum/float64(n)*100) / 100
	}

	dest := strings.ToLower(destination)
	switch {
	case strings.Contains(dest, "tokyo"), strings.Contains(dest, "sydney"):
		return 2500
	case strings.Contains(dest, "paris"), strings.Contains(dest, "london"):
		return 1000
	}
	return 500
}

// dayPlan spreads activities round-robin over the days, at most three a day
func dayPlan(activities []string, days int) []DayPlan {
	plan := make([]DayPlan, 0, days)
	for d := 0; d < days; d++ {
		var acts []string
		for i := d; i < len(activities) && len(acts) < maxActivitiesPerDay; i += days {
			acts = append(acts, activities[i])
		}
		if len(acts) == 0 {
			acts = []string{"Explore the local area"}
		}
		plan = append(plan, DayPlan{Day: d + 1, Activities: acts})
	}
	return plan
}

// forecast returns a stable three-day outlook starting the day after from.
// No weather service is queried; the values only depend on the destination
// and the date so the same request yields the same plan.
func forecast(destination string, from time.Time) []Forecast {
	out := make([]Forecast, 0, forecastDays)
	for d := 1; d <= forecastDays; d++ {
		date := from.AddDate(0, 0, d).Format(time.DateOnly)
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(destination)) + "|" + date))
		sum := h.Sum32()
		out = append(out, Forecast{
			Date:    date,
			TempC:   float64(8 + sum%22),
			Summary: skies[int(sum>>8)%len(skies)],
		})
	}
	return out
}

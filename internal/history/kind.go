package history

// Kind identifies the extraction rule for a category.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindHomeAndWork
	KindDailyTopLocations
	KindLocationsVisited
	KindSixDayTopLocations
)

const (
	CategoryHomeAndWork        = "Home & Work"
	CategoryDailyTopLocations  = "Daily Top Locations"
	CategoryLocationsVisited   = "Locations You Have Visited"
	CategorySixDayTopLocations = "Top Locations Per Six-Day Period"
)

// KindOf maps a category name to its extraction rule.
func KindOf(category string) Kind {
	switch category {
	case CategoryHomeAndWork:
		return KindHomeAndWork
	case CategoryDailyTopLocations:
		return KindDailyTopLocations
	case CategoryLocationsVisited:
		return KindLocationsVisited
	case CategorySixDayTopLocations:
		return KindSixDayTopLocations
	default:
		return KindUnrecognized
	}
}

func (k Kind) String() string {
	switch k {
	case KindHomeAndWork:
		return "home_and_work"
	case KindDailyTopLocations:
		return "daily_top_locations"
	case KindLocationsVisited:
		return "locations_visited"
	case KindSixDayTopLocations:
		return "six_day_top_locations"
	default:
		return "unrecognized"
	}
}

// Renderable reports whether the kind has an extraction rule.
func (k Kind) Renderable() bool {
	return k != KindUnrecognized
}

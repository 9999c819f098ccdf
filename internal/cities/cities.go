package cities

import "strings"

// DefaultLimit caps search results when the caller does not ask for a size.
const DefaultLimit = 10

const minQueryLength = 2

var usCities = []string{
	"New York", "Los Angeles", "Chicago", "Houston", "Phoenix", "Philadelphia",
	"San Antonio", "San Diego", "Dallas", "San Jose", "Austin", "Jacksonville",
	"Fort Worth", "Columbus", "Charlotte", "San Francisco", "Indianapolis",
	"Seattle", "Denver", "Boston", "El Paso", "Nashville", "Detroit", "Oklahoma City",
	"Portland", "Las Vegas", "Memphis", "Louisville", "Baltimore", "Milwaukee",
	"Albuquerque", "Tucson", "Fresno", "Sacramento", "Kansas City", "Long Beach",
	"Mesa", "Atlanta", "Colorado Springs", "Virginia Beach", "Raleigh", "Omaha",
	"Miami", "Oakland", "Minneapolis", "Tulsa", "Wichita", "New Orleans", "Arlington",
	"Cleveland", "Bakersfield", "Tampa", "Aurora", "Anaheim", "Honolulu", "Santa Ana",
	"Riverside", "Corpus Christi", "Lexington", "Stockton", "Henderson", "Saint Paul",
	"Cincinnati", "St. Louis", "Pittsburgh", "Greensboro", "Lincoln", "Anchorage",
	"Plano", "Orlando", "Irvine", "Newark", "Durham", "Chula Vista", "Toledo",
	"Fort Wayne", "St. Petersburg", "Laredo", "Jersey City", "Chandler", "Madison",
	"Lubbock", "Scottsdale", "Reno", "Buffalo", "Gilbert", "Glendale", "North Las Vegas",
	"Winston-Salem", "Chesapeake", "Norfolk", "Fremont", "Garland", "Irving", "Hialeah",
	"Richmond", "Boise", "Spokane", "Baton Rouge",
}

// Directory is a fixed, ordered list of city names.
type Directory struct {
	names []string
	lower []string
}

// New builds a directory over names, preserving their order.
func New(names []string) *Directory {
	d := &Directory{
		names: make([]string, len(names)),
		lower: make([]string, len(names)),
	}
	copy(d.names, names)
	for i, name := range names {
		d.lower[i] = strings.ToLower(name)
	}
	return d
}

// Default returns the directory of large US cities.
func Default() *Directory {
	return New(usCities)
}

// Names returns a copy of the enumeration.
func (d *Directory) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Search returns cities containing query (case-insensitive) in enumeration order.
// Queries shorter than two characters match nothing. Whitespace is part of the query.
func (d *Directory) Search(query string, limit int) []string {
	q := strings.ToLower(query)
	if len([]rune(q)) < minQueryLength {
		return []string{}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	matches := make([]string, 0, limit)
	for i, name := range d.lower {
		if !strings.Contains(name, q) {
			continue
		}
		matches = append(matches, d.names[i])
		if len(matches) == limit {
			break
		}
	}
	return matches
}

// internal/workers/matching/geocode-postcodes/models.go
package geocodepostcodes

import "mentormatch/internal/models"

// Input maps person ids ("student" plus mentor ids) to their postcodes.
type Input struct {
	Postcodes map[string]string `json:"postcodes"`
}

// Output maps the same ids to coordinates. Ids whose postcode could not be
// resolved, even via the regional fallback, are absent; the scorer treats a
// missing coordinate as neutral distance.
type Output struct {
	Coordinates map[string]models.Coordinate `json:"coordinates"`
}

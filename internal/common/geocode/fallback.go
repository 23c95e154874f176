package geocode

import "mentormatch/internal/models"

// fallbackCoordinates holds precomputed regional coordinates for major
// Swedish cities, used when live geocoding fails.
var fallbackCoordinates = map[string]models.Coordinate{
	// Stockholm area (postcodes starting with 1)
	"10000": {Lat: 59.3293, Lng: 18.0686},
	"11000": {Lat: 59.3293, Lng: 18.0686},
	"12000": {Lat: 59.3293, Lng: 18.0686},
	"13000": {Lat: 59.3293, Lng: 18.0686},
	"14000": {Lat: 59.3293, Lng: 18.0686},
	"15000": {Lat: 59.3293, Lng: 18.0686},
	"16000": {Lat: 59.3293, Lng: 18.0686},
	"17000": {Lat: 59.3293, Lng: 18.0686},
	"18000": {Lat: 59.3293, Lng: 18.0686},
	"19000": {Lat: 59.3293, Lng: 18.0686},

	// Gothenburg area (postcodes starting with 4)
	"40000": {Lat: 57.7089, Lng: 11.9746},
	"41000": {Lat: 57.7089, Lng: 11.9746},
	"42000": {Lat: 57.7089, Lng: 11.9746},
	"43000": {Lat: 57.7089, Lng: 11.9746},
	"44000": {Lat: 57.7089, Lng: 11.9746},
	"45000": {Lat: 57.7089, Lng: 11.9746},
	"46000": {Lat: 57.7089, Lng: 11.9746},

	// Malmö area (postcodes starting with 2)
	"20000": {Lat: 55.6050, Lng: 13.0038},
	"21000": {Lat: 55.6050, Lng: 13.0038},
	"22000": {Lat: 55.6050, Lng: 13.0038},
	"23000": {Lat: 55.6050, Lng: 13.0038},
	"24000": {Lat: 55.6050, Lng: 13.0038},
	"25000": {Lat: 55.6050, Lng: 13.0038},

	// Uppsala
	"75000": {Lat: 59.8586, Lng: 17.6389},

	// Linköping
	"58000": {Lat: 58.4108, Lng: 15.6214},

	// Örebro
	"70000": {Lat: 59.2741, Lng: 15.2066},
}

// FallbackCoordinate returns the regional fallback for a postcode: exact
// match, then 2-digit prefix zero-padded, then 1-digit prefix. Returns nil
// when no regional entry covers the postcode.
func FallbackCoordinate(postcode string) *models.Coordinate {
	if !isFiveDigits(postcode) {
		return nil
	}

	if coord, ok := fallbackCoordinates[postcode]; ok {
		return &coord
	}

	if coord, ok := fallbackCoordinates[postcode[:2]+"000"]; ok {
		return &coord
	}

	if coord, ok := fallbackCoordinates[postcode[:1]+"0000"]; ok {
		return &coord
	}

	return nil
}

func isFiveDigits(postcode string) bool {
	if len(postcode) != 5 {
		return false
	}
	for _, r := range postcode {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

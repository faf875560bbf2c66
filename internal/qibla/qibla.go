// Package qibla computes the direction of the Kaaba from an observer.
//
// Bearing returns the raw initial great-circle bearing in (-180, 180]
// degrees, clockwise from true north. Negative values are west of north and
// are intentionally left as they are; use Normalize for a [0, 360) compass
// reading.
package qibla

import (
	"math"

	"github.com/mustafadnc15/ezan-saati-pro/internal/geo"
)

// Kaaba is the fixed target point.
var Kaaba = geo.Coordinate{Latitude: 21.4225, Longitude: 39.8262}

// Bearing returns the rounded initial great-circle bearing from observer to
// the Kaaba:
//
//	atan2(sin(Δλ), cos(φ)·tan(φk) − sin(φ)·cos(Δλ))
//
// Out-of-range input is not rejected; it yields whatever the formula gives.
// At the Kaaba itself both atan2 arguments are exactly zero and the result
// is 0.
func Bearing(observer geo.Coordinate) int {
	phiK := radians(Kaaba.Latitude)
	lambdaK := radians(Kaaba.Longitude)
	phi := radians(observer.Latitude)
	lambda := radians(observer.Longitude)

	dLambda := lambdaK - lambda
	psi := math.Atan2(
		math.Sin(dLambda),
		math.Cos(phi)*math.Tan(phiK)-math.Sin(phi)*math.Cos(dLambda),
	)
	return int(math.Round(degrees(psi)))
}

// Normalize maps any degree value into [0, 360).
func Normalize(deg int) int {
	return ((deg % 360) + 360) % 360
}

var compassPoints = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// CompassPoint converts a bearing in degrees to an 8-point compass direction.
func CompassPoint(deg int) string {
	d := float64(Normalize(deg))
	return compassPoints[int((d+22.5)/45.0)%8]
}

// Heading converts a raw magnetometer field reading to the device heading in
// [0, 360), for a phone held flat in portrait orientation.
func Heading(x, y float64) int {
	angle := degrees(math.Atan2(y, x))
	return Normalize(int(math.Round(angle - 90)))
}

// Needle returns where the Qibla marker sits on screen, measured clockwise
// from the top of the device, when the device faces heading.
func Needle(bearing, heading int) int {
	return Normalize(bearing - heading)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func degrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

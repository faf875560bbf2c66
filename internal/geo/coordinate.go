// Package geo holds geographic value types and the location providers that
// supply them.
package geo

import (
	"errors"
	"fmt"
)

// ErrInvalidCoordinate is returned by Validate for out-of-range values.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate is a point in signed decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate reports whether the latitude is within [-90, 90] and the
// longitude within [-180, 180].
func (c Coordinate) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v must be between -90 and 90", ErrInvalidCoordinate, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v must be between -180 and 180", ErrInvalidCoordinate, c.Longitude)
	}
	return nil
}

// IsZero reports whether both components are zero, which the CLI treats as
// "not set".
func (c Coordinate) IsZero() bool {
	return c.Latitude == 0 && c.Longitude == 0
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f, %.4f", c.Latitude, c.Longitude)
}

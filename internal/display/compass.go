package display

import "fmt"

var arrows = [8]string{"↑", "↗", "→", "↘", "↓", "↙", "←", "↖"}

// Arrow returns the arrow glyph closest to a compass angle in degrees,
// measured clockwise from north. Any integer is accepted.
func Arrow(deg int) string {
	d := ((deg % 360) + 360) % 360
	return arrows[((d*2+45)/90)%8]
}

// Degrees renders an angle as "152°".
func Degrees(deg int) string {
	return fmt.Sprintf("%d°", deg)
}

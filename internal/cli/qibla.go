package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mustafadnc15/ezan-saati-pro/internal/api"
	"github.com/mustafadnc15/ezan-saati-pro/internal/app"
	"github.com/mustafadnc15/ezan-saati-pro/internal/display"
	"github.com/mustafadnc15/ezan-saati-pro/internal/geo"
	"github.com/mustafadnc15/ezan-saati-pro/internal/qibla"
	"github.com/mustafadnc15/ezan-saati-pro/internal/timetable"
)

var (
	flagHeading float64
	flagMagX    float64
	flagMagY    float64
)

func newQiblaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qibla",
		Short: "Show the Qibla direction",
		Long: "Print the initial great-circle bearing from your location to the Kaaba.\n\n" +
			"With --heading (degrees clockwise from north) or a raw magnetometer\n" +
			"reading (--mag-x, --mag-y), also print where the Qibla marker points\n" +
			"relative to the top of the device.",
		Args: cobra.NoArgs,
		RunE: runQibla,
	}

	cmd.Flags().Float64Var(&flagHeading, "heading", 0, "Device heading in degrees clockwise from north")
	cmd.Flags().Float64Var(&flagMagX, "mag-x", 0, "Magnetometer x reading (with --mag-y)")
	cmd.Flags().Float64Var(&flagMagY, "mag-y", 0, "Magnetometer y reading (with --mag-x)")

	return cmd
}

// qiblaView is the result of the qibla command.
type qiblaView struct {
	Location   string  `json:"location"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Bearing    int     `json:"bearing"`
	Normalized int     `json:"normalized"`
	Compass    string  `json:"compass"`
	Heading    *int    `json:"heading,omitempty"`
	Needle     *int    `json:"needle,omitempty"`
}

func runQibla(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	loc, err := observerLocation(cmd, s)
	if err != nil {
		return err
	}

	state := app.New(nil)
	if err := state.SetLocation(loc); err != nil {
		return err
	}
	bearing, _ := state.Bearing()

	v := qiblaView{
		Location:   buildLocationStr(s.loc, api.Meta{Latitude: loc.Latitude, Longitude: loc.Longitude}),
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		Bearing:    bearing,
		Normalized: qibla.Normalize(bearing),
		Compass:    qibla.CompassPoint(bearing),
	}

	heading, ok := deviceHeading(cmd)
	if ok {
		needle := qibla.Needle(bearing, heading)
		v.Heading = &heading
		v.Needle = &needle
	}

	if FlagJSON {
		return writeJSON(cmd.OutOrStdout(), v)
	}
	printQibla(cmd.OutOrStdout(), v)
	return nil
}

// observerLocation returns the observer's coordinates. For a city the API is
// asked to geocode it through a day fetch.
func observerLocation(cmd *cobra.Command, s *session) (geo.Location, error) {
	if s.loc.Mode != timetable.ModeCity {
		return geo.Location{
			Latitude:  s.loc.Latitude,
			Longitude: s.loc.Longitude,
			City:      s.loc.City,
			Country:   s.loc.Country,
			Timezone:  s.loc.Timezone,
		}, nil
	}
	day, _, _, err := s.day(cmd.Context())
	if err != nil {
		return geo.Location{}, fmt.Errorf("failed to locate %s: %w", s.loc.City, err)
	}
	return observer(s.loc, day), nil
}

// deviceHeading reads --heading, or derives it from --mag-x/--mag-y.
func deviceHeading(cmd *cobra.Command) (int, bool) {
	flags := cmd.Flags()
	switch {
	case flags.Changed("heading"):
		return qibla.Normalize(int(flagHeading)), true
	case flags.Changed("mag-x") || flags.Changed("mag-y"):
		return qibla.Heading(flagMagX, flagMagY), true
	}
	return 0, false
}

func printQibla(w io.Writer, v qiblaView) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold("Qibla Direction"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", v.Location)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s  %s %s\n", display.Accent(display.Arrow(v.Bearing)), display.Accent(display.Degrees(v.Normalized)), v.Compass)
	if v.Needle != nil {
		fmt.Fprintf(w, "  %s  %s from the top of the device (heading %s)\n",
			display.Arrow(*v.Needle), display.Degrees(*v.Needle), display.Degrees(*v.Heading))
	}
	fmt.Fprintln(w)
}

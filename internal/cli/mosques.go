package cli

import (
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mustafadnc15/ezan-saati-pro/internal/api"
	"github.com/mustafadnc15/ezan-saati-pro/internal/display"
	"github.com/mustafadnc15/ezan-saati-pro/internal/geo"
	"github.com/mustafadnc15/ezan-saati-pro/internal/prayer"
)

// mapsZoom shows a few streets around the observer.
const mapsZoom = 15

func newMosquesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mosques",
		Short: "Print map links for mosques near you",
		Long: "Print a Google Maps search and a geo: URI for mosques around your location.\n" +
			"The search term follows the language setting (\"camiler\" for tr).",
		Args: cobra.NoArgs,
		RunE: runMosques,
	}
}

type mosquesView struct {
	Location  string  `json:"location"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Query     string  `json:"query"`
	MapsURL   string  `json:"maps_url"`
	GeoURI    string  `json:"geo_uri"`
}

func runMosques(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	loc, err := observerLocation(cmd, s)
	if err != nil {
		return err
	}
	if err := loc.Coordinate().Validate(); err != nil {
		return err
	}

	query := mosqueQuery(s.cfg.Language)
	v := mosquesView{
		Location:  buildLocationStr(s.loc, api.Meta{Latitude: loc.Latitude, Longitude: loc.Longitude}),
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Query:     query,
		MapsURL:   mapsSearchURL(query, loc.Coordinate()),
		GeoURI:    geoURI(query, loc.Coordinate()),
	}

	if FlagJSON {
		return writeJSON(cmd.OutOrStdout(), v)
	}
	printMosques(cmd.OutOrStdout(), v)
	return nil
}

func mosqueQuery(lang string) string {
	if lang == prayer.LangTurkish {
		return "camiler"
	}
	return "mosques"
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}

func mapsSearchURL(query string, c geo.Coordinate) string {
	return fmt.Sprintf("https://www.google.com/maps/search/%s/@%s,%s,%dz",
		url.PathEscape(query), formatCoord(c.Latitude), formatCoord(c.Longitude), mapsZoom)
}

func geoURI(query string, c geo.Coordinate) string {
	return fmt.Sprintf("geo:%s,%s?q=%s", formatCoord(c.Latitude), formatCoord(c.Longitude), url.QueryEscape(query))
}

func printMosques(w io.Writer, v mosquesView) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold("Mosques Nearby"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", v.Location)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Accent(v.MapsURL))
	fmt.Fprintf(w, "  %s\n", v.GeoURI)
	fmt.Fprintln(w)
}

package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mustafadnc15/ezan-saati-pro/internal/display"
	"github.com/mustafadnc15/ezan-saati-pro/internal/prayer"
	"github.com/mustafadnc15/ezan-saati-pro/internal/timetable"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [days]",
		Short: "Show prayer times for multiple days",
		Long:  "Display a grid of prayer times for N days (default: 7).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, args, 7)
		},
	}
}

func newWeekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Show prayer times for the next 7 days",
		Long:  "Alias for 'list 7'. Display a grid of prayer times for 7 days.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, nil, 7)
		},
	}
}

func newMonthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "month",
		Short: "Show prayer times for the next 30 days",
		Long:  "Alias for 'list 30'. Display a grid of prayer times for 30 days.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, nil, 30)
		},
	}
}

// parseDays reads a day count: a positive integer, "week" or "month".
func parseDays(s string) (int, error) {
	switch s {
	case "week":
		return 7, nil
	case "month":
		return 30, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid number of days: %q (must be a positive integer, 'week', or 'month')", s)
	}
	return n, nil
}

// fetchDays loads n days starting today and the timezone they are in.
func fetchDays(cmd *cobra.Command, s *session, n int) ([]timetable.Day, *time.Location, time.Time, error) {
	now := s.now()
	days, err := s.svc.Days(cmd.Context(), now, n, s.loc, s.method, s.school)
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	tz, err := days[0].TimeZone(s.loc.Timezone)
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	return days, tz, now.In(tz), nil
}

// runList is the handler for the list subcommand.
func runList(cmd *cobra.Command, args []string, defaultDays int) error {
	n := defaultDays
	if len(args) > 0 {
		var err error
		if n, err = parseDays(args[0]); err != nil {
			return err
		}
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	days, tz, now, err := fetchDays(cmd, s, n)
	if err != nil {
		return err
	}

	selected := s.cfg.PrayerList(prayer.DefaultPrayerNames)
	layout := s.cfg.GoTimeLayout()
	locationStr := buildLocationStr(s.loc, days[0].Data.Meta)

	if FlagJSON {
		return printListJSON(cmd.OutOrStdout(), days, selected, s.loc, tz, layout)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", display.Bold(fmt.Sprintf("Prayer Times - %d Days", n)))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", locationStr)
	fmt.Fprintln(out)

	headers := []string{"Date"}
	for _, name := range selected {
		headers = append(headers, prayer.DisplayName(prayer.Name(name), s.cfg.Language))
	}
	tbl := display.NewTable(headers...)

	for i, d := range days {
		parsed, err := prayer.ParseTimings(d.Data.Timings, d.Date, tz, selected)
		if err != nil {
			return err
		}

		row := []string{d.Date.Format("Mon 02 Jan")}
		for _, p := range parsed {
			row = append(row, p.Time.Format(layout))
		}
		tbl.Row(row...)

		if sameDate(d.Date, now) {
			tbl.Highlight(i)
		}
	}

	fmt.Fprint(out, tbl)
	fmt.Fprintln(out)
	return nil
}

// listJSON is the JSON output structure for list/week/month.
type listJSON struct {
	Location todayJSONLocation `json:"location"`
	Days     []listJSONDay     `json:"days"`
}

type listJSONDay struct {
	Date    string            `json:"date"`
	Hijri   string            `json:"hijri"`
	Timings map[string]string `json:"timings"`
}

func printListJSON(w io.Writer, days []timetable.Day, selected []string, loc timetable.Location, tz *time.Location, layout string) error {
	out := listJSON{Location: jsonLocation(loc, tz.String(), days[0].Data.Meta)}

	for _, d := range days {
		parsed, err := prayer.ParseTimings(d.Data.Timings, d.Date, tz, selected)
		if err != nil {
			return err
		}

		timings := make(map[string]string, len(parsed))
		for _, p := range parsed {
			timings[strings.ToLower(p.Name)] = p.Time.Format(layout)
		}
		out.Days = append(out.Days, listJSONDay{
			Date:    d.Date.Format("02 Jan 2006"),
			Hijri:   d.Data.Date.Hijri.Format(),
			Timings: timings,
		})
	}

	return writeJSON(w, out)
}

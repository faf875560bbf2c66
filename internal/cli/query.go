package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mustafadnc15/ezan-saati-pro/internal/display"
	"github.com/mustafadnc15/ezan-saati-pro/internal/prayer"
)

var flagQueryDays string

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <prayer>",
		Short: "Query a specific prayer time",
		Long:  "Query a specific prayer time for today, or across multiple days with --days.\n\nValid prayer names: " + strings.Join(prayer.AllPrayerNames, ", "),
		Args:  cobra.ExactArgs(1),
		RunE:  runQuery,
	}

	cmd.Flags().StringVar(&flagQueryDays, "days", "", "Number of days to show (or 'week'/'month')")

	return cmd
}

// canonicalPrayerName matches name case-insensitively against the API names.
func canonicalPrayerName(name string) (string, error) {
	for _, n := range prayer.AllPrayerNames {
		if strings.EqualFold(n, name) {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown prayer %q; valid names: %s", name, strings.Join(prayer.AllPrayerNames, ", "))
}

func runQuery(cmd *cobra.Command, args []string) error {
	name, err := canonicalPrayerName(args[0])
	if err != nil {
		return err
	}

	n := 1
	if flagQueryDays != "" {
		if n, err = parseDays(flagQueryDays); err != nil {
			return fmt.Errorf("invalid --days value: %w", err)
		}
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if n == 1 {
		return runQuerySingleDay(cmd, s, name)
	}
	return runQueryMultiDay(cmd, s, name, n)
}

type queryJSONSingle struct {
	Prayer string `json:"prayer"`
	Name   string `json:"name"`
	Time   string `json:"time"`
	Date   string `json:"date"`
	Hijri  string `json:"hijri"`
}

func runQuerySingleDay(cmd *cobra.Command, s *session, name string) error {
	day, tz, now, err := s.day(cmd.Context())
	if err != nil {
		return err
	}

	parsed, err := prayer.ParseTimings(day.Data.Timings, now, tz, []string{name})
	if err != nil {
		return err
	}
	if len(parsed) == 0 {
		return fmt.Errorf("no timing found for %s", name)
	}

	label := prayer.DisplayName(prayer.Name(name), s.cfg.Language)
	timeStr := parsed[0].Time.Format(s.cfg.GoTimeLayout())

	if FlagJSON {
		return writeJSON(cmd.OutOrStdout(), queryJSONSingle{
			Prayer: strings.ToLower(name),
			Name:   label,
			Time:   timeStr,
			Date:   now.Format("02 Jan 2006"),
			Hijri:  day.Data.Date.Hijri.Format(),
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", label, timeStr)
	return nil
}

type queryJSONMulti struct {
	Location todayJSONLocation `json:"location"`
	Prayer   string            `json:"prayer"`
	Days     []queryJSONDay    `json:"days"`
}

type queryJSONDay struct {
	Date  string `json:"date"`
	Hijri string `json:"hijri"`
	Time  string `json:"time"`
}

func runQueryMultiDay(cmd *cobra.Command, s *session, name string, n int) error {
	days, tz, now, err := fetchDays(cmd, s, n)
	if err != nil {
		return err
	}

	layout := s.cfg.GoTimeLayout()
	label := prayer.DisplayName(prayer.Name(name), s.cfg.Language)
	multi := queryJSONMulti{
		Location: jsonLocation(s.loc, tz.String(), days[0].Data.Meta),
		Prayer:   strings.ToLower(name),
	}
	tbl := display.NewTable("Date", label)

	for i, d := range days {
		parsed, err := prayer.ParseTimings(d.Data.Timings, d.Date, tz, []string{name})
		if err != nil {
			return err
		}
		timeStr := ""
		if len(parsed) > 0 {
			timeStr = parsed[0].Time.Format(layout)
		}

		tbl.Row(d.Date.Format("Mon 02 Jan"), timeStr)
		if sameDate(d.Date, now) {
			tbl.Highlight(i)
		}
		multi.Days = append(multi.Days, queryJSONDay{
			Date:  d.Date.Format("02 Jan 2006"),
			Hijri: d.Data.Date.Hijri.Format(),
			Time:  timeStr,
		})
	}

	if FlagJSON {
		return writeJSON(cmd.OutOrStdout(), multi)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", display.Bold(fmt.Sprintf("%s Times - %d Days", label, n)))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", buildLocationStr(s.loc, days[0].Data.Meta))
	fmt.Fprintln(out)
	fmt.Fprint(out, tbl)
	fmt.Fprintln(out)
	return nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mustafadnc15/ezan-saati-pro/internal/app"
	"github.com/mustafadnc15/ezan-saati-pro/internal/config"
	"github.com/mustafadnc15/ezan-saati-pro/internal/display"
	"github.com/mustafadnc15/ezan-saati-pro/internal/geo"
	"github.com/mustafadnc15/ezan-saati-pro/internal/notify"
	"github.com/mustafadnc15/ezan-saati-pro/internal/prayer"
	"github.com/mustafadnc15/ezan-saati-pro/internal/schedule"
	"github.com/mustafadnc15/ezan-saati-pro/internal/timetable"
)

var (
	flagFormat  string
	flagPrayers string
	flagWatch   bool
)

// retryInterval bounds how often the watch loop retries a failed fetch.
const retryInterval = time.Minute

func newNextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next prayer with countdown",
		Long:  "Display the next upcoming prayer time with an HH:MM:SS countdown.\nWith --watch the countdown is refreshed every second until interrupted.",
		RunE:  runNext,
	}

	cmd.Flags().StringVar(&flagFormat, "format", prayer.FormatFull, "Display format: time-remaining, next-prayer-time, name-and-time, name-and-remaining, short-name-and-time, short-name-and-remaining, full, or a custom Go template")
	cmd.Flags().StringVar(&flagPrayers, "prayers", "", "Comma-separated list of prayers to track (overrides config)")
	cmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "Keep running and refresh the countdown every second")

	return cmd
}

// trackedNames returns the canonical prayers selected by --prayers or the
// config, in canonical order. Names outside the six daily prayers are
// ignored since the countdown only tracks those.
func trackedNames(cmd *cobra.Command, cfg *config.Config) []prayer.Name {
	selected := cfg.PrayerList(nil)
	if cmd.Flags().Changed("prayers") && flagPrayers != "" {
		selected = strings.Split(flagPrayers, ",")
	}
	if len(selected) == 0 {
		return prayer.Canonical
	}

	want := make(map[string]bool, len(selected))
	for _, n := range selected {
		want[strings.ToLower(strings.TrimSpace(n))] = true
	}
	var names []prayer.Name
	for _, n := range prayer.Canonical {
		if want[strings.ToLower(string(n))] {
			names = append(names, n)
		}
	}
	return names
}

// restrict returns a copy of tt holding only names.
func restrict(tt *prayer.Timetable, names []prayer.Name) *prayer.Timetable {
	times := make(map[prayer.Name]string, len(names))
	for _, n := range names {
		if raw, ok := tt.Raw(n); ok {
			times[n] = raw
		}
	}
	return prayer.NewTimetable(tt.Date, tt.Hijri, times)
}

func runNext(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	names := trackedNames(cmd, s.cfg)
	if len(names) == 0 {
		return fmt.Errorf("no trackable prayers selected; choose from %s", strings.Join(prayer.DefaultPrayerNames, ", "))
	}

	if flagWatch {
		return runWatch(cmd, s, names)
	}

	day, tz, _, err := s.day(cmd.Context())
	if err != nil {
		return err
	}

	engine := prayer.NewEngine(func() time.Time { return clock().In(tz) })
	engine.Load(restrict(day.Timetable(), names))

	state, ok := engine.Tick()
	if !ok {
		return fmt.Errorf("could not determine next prayer")
	}

	fmt.Fprint(cmd.OutOrStdout(), prayer.FormatOutput(state, flagFormat, s.cfg.GoTimeLayout(), s.cfg.Language))
	return nil
}

// watcher drives the live countdown. All fields are touched only from the
// task goroutine.
type watcher struct {
	s       *session
	names   []prayer.Name
	state   *app.State
	notify  notify.Scheduler
	out     io.Writer
	inPlace bool

	tz          *time.Location
	lastAttempt time.Time
	lastLine    string
}

func runWatch(cmd *cobra.Command, s *session, names []prayer.Name) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := &watcher{
		s:       s,
		names:   names,
		out:     cmd.OutOrStdout(),
		inPlace: display.Enabled(),
		tz:      time.Local,
	}
	if s.loc.Timezone != "" {
		if tz, err := time.LoadLocation(s.loc.Timezone); err == nil {
			w.tz = tz
		}
	}
	w.state = app.New(prayer.NewEngine(func() time.Time { return clock().In(w.tz) }))

	sched, err := notify.New(notify.Options{Broker: s.cfg.MQTTBroker, Topic: s.cfg.MQTTTopic})
	if err != nil {
		log.Warn().Err(err).Msg("reminders will not be delivered")
	}
	w.notify = sched
	defer func() {
		if err := w.notify.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close notification scheduler")
		}
	}()

	task := schedule.Every(time.Second, w.tick)
	if err := task.Start(ctx); err != nil {
		return err
	}
	task.Wait()
	task.Stop()

	fmt.Fprintln(w.out)
	return nil
}

// tick refreshes the timetable when the engine has none for today, then
// renders the countdown. After a failed fetch, retries wait retryInterval.
func (w *watcher) tick(ctx context.Context) {
	if w.state.Engine().Phase() != prayer.PhaseReady {
		if w.state.Err() == nil || clock().Sub(w.lastAttempt) >= retryInterval {
			w.refresh(ctx)
		}
	}
	w.render(w.state.Snapshot())
}

func (w *watcher) refresh(ctx context.Context) {
	w.lastAttempt = clock()

	day, tz, _, err := w.s.dayAt(ctx, clock().In(w.tz))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Warn().Err(err).Msg("failed to refresh prayer times")
		w.state.SetError(err)
		return
	}
	w.tz = tz

	w.state.Engine().Load(restrict(day.Timetable(), w.names))
	w.state.SetError(nil)
	if err := w.state.SetLocation(observer(w.s.loc, day)); err != nil {
		log.Debug().Err(err).Msg("no coordinates for qibla bearing")
	}

	w.schedule(ctx, day)
}

// schedule replaces the day's reminders. Failures only cost reminders.
func (w *watcher) schedule(ctx context.Context, day *timetable.Day) {
	reminders, err := notify.BuildReminders(day.Timetable(), w.s.cfg.Language, w.s.cfg.NotificationSound)
	if err != nil {
		log.Warn().Err(err).Msg("no reminders to schedule")
		return
	}
	if err := w.notify.Schedule(ctx, reminders); err != nil {
		log.Warn().Err(err).Msg("failed to schedule reminders")
	}
}

func (w *watcher) render(snap app.Snapshot) {
	line := watchLine(snap, flagFormat, w.s.cfg.GoTimeLayout(), w.s.cfg.Language)
	if w.inPlace {
		fmt.Fprintf(w.out, "\r%s\033[K", line)
		return
	}
	if line != w.lastLine {
		fmt.Fprintln(w.out, line)
	}
	w.lastLine = line
}

// watchLine renders one frame of the live countdown. Without a next prayer
// the countdown placeholder is shown.
func watchLine(snap app.Snapshot, mode, layout, lang string) string {
	if !snap.HasNext {
		if snap.Err != nil {
			return display.Red(prayer.UnknownCountdown)
		}
		return prayer.UnknownCountdown
	}
	return prayer.FormatOutput(snap.Next, mode, layout, lang)
}

// observer builds the geo location of a fetched day, taking coordinates
// from the API meta when the user gave a city.
func observer(loc timetable.Location, day *timetable.Day) geo.Location {
	lat, lon := loc.Latitude, loc.Longitude
	if loc.Mode == timetable.ModeCity {
		lat, lon = day.Data.Meta.Latitude, day.Data.Meta.Longitude
	}
	return geo.Location{
		Latitude:  lat,
		Longitude: lon,
		City:      loc.City,
		Country:   loc.Country,
		Timezone:  day.Data.Meta.Timezone,
	}
}

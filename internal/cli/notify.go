package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mustafadnc15/ezan-saati-pro/internal/config"
	"github.com/mustafadnc15/ezan-saati-pro/internal/display"
	"github.com/mustafadnc15/ezan-saati-pro/internal/notify"
	"github.com/mustafadnc15/ezan-saati-pro/internal/prayer"
)

func newNotifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Manage prayer time reminders",
		Long: "Preview today's reminders, or deliver them to the MQTT broker set with\n" +
			"'config set mqtt_broker'. Reminders are retained under <mqtt_topic>/reminders/<prayer>.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotifySchedule(cmd, false)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "schedule",
		Short: "Replace the scheduled reminders with today's",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotifySchedule(cmd, true)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Send a test notification now",
		Args:  cobra.NoArgs,
		RunE:  runNotifyTest,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "cancel",
		Short: "Cancel all scheduled reminders",
		Args:  cobra.NoArgs,
		RunE:  runNotifyCancel,
	})

	return cmd
}

// openScheduler connects to the configured broker. Unlike the watch loop,
// the notify commands fail when delivery is impossible.
func openScheduler(cfg *config.Config) (notify.Scheduler, error) {
	if cfg.MQTTBroker == "" {
		return nil, fmt.Errorf("no MQTT broker configured; run 'ezan-saati config set mqtt_broker tcp://host:1883'")
	}
	return notify.New(notify.Options{Broker: cfg.MQTTBroker, Topic: cfg.MQTTTopic})
}

func runNotifySchedule(cmd *cobra.Command, deliver bool) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	day, _, _, err := s.day(cmd.Context())
	if err != nil {
		return err
	}

	reminders, err := notify.BuildReminders(day.Timetable(), s.cfg.Language, s.cfg.NotificationSound)
	if err != nil {
		return err
	}

	if deliver {
		sched, err := openScheduler(s.cfg)
		if err != nil {
			return err
		}
		defer sched.Close()

		if err := sched.Schedule(cmd.Context(), reminders); err != nil {
			return err
		}
	}

	if FlagJSON {
		return writeJSON(cmd.OutOrStdout(), reminders)
	}
	printReminders(cmd.OutOrStdout(), reminders, s.cfg.Language, deliver)
	return nil
}

func printReminders(w io.Writer, reminders []notify.Reminder, lang string, delivered bool) {
	title := "Reminders (preview)"
	if delivered {
		title = "Reminders scheduled"
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold(title))
	fmt.Fprintln(w)

	tbl := display.NewTable("Prayer", "Time", "Title", "Sound")
	for _, r := range reminders {
		tbl.Row(
			prayer.DisplayName(r.Prayer, lang),
			fmt.Sprintf("%02d:%02d", r.Hour, r.Minute),
			r.Title,
			r.Sound,
		)
	}
	fmt.Fprint(w, tbl)
	fmt.Fprintln(w)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	cfg := effectiveConfig(cmd)
	sched, err := openScheduler(cfg)
	if err != nil {
		return err
	}
	defer sched.Close()

	r := notify.TestReminder(cfg.Language, cfg.NotificationSound)
	if err := sched.Send(cmd.Context(), r); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sent test notification %q\n", r.Title)
	return nil
}

func runNotifyCancel(cmd *cobra.Command, args []string) error {
	cfg := effectiveConfig(cmd)
	sched, err := openScheduler(cfg)
	if err != nil {
		return err
	}
	defer sched.Close()

	if err := sched.Cancel(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "All reminders cancelled.")
	return nil
}

package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Scheduler delivers reminders. Implementations replace every previously
// scheduled reminder on Schedule.
type Scheduler interface {
	Schedule(ctx context.Context, reminders []Reminder) error
	Send(ctx context.Context, r Reminder) error
	Cancel(ctx context.Context) error
	Close() error
}

// Nop is the Scheduler used when no delivery backend is configured. Every
// call succeeds and does nothing.
type Nop struct{}

func (Nop) Schedule(context.Context, []Reminder) error { return nil }
func (Nop) Send(context.Context, Reminder) error { return nil }
func (Nop) Cancel(context.Context) error { return nil }
func (Nop) Close() error { return nil }

// Options selects and configures a Scheduler.
type Options struct {
	// Broker is an MQTT broker URL such as tcp://localhost:1883. Empty
	// selects Nop.
	Broker string
	Topic  string
}

// New returns the scheduler described by opts. When the broker cannot be
// reached the error is returned together with a usable Nop, so callers may
// log and carry on.
func New(opts Options) (Scheduler, error) {
	if opts.Broker == "" {
		log.Debug().Msg("no MQTT broker configured, notifications disabled")
		return Nop{}, nil
	}
	s, err := DialMQTT(opts.Broker, opts.Topic)
	if err != nil {
		return Nop{}, fmt.Errorf("notification scheduler unavailable: %w", err)
	}
	return s, nil
}

var (
	_ Scheduler = Nop{}
	_ Scheduler = (*MQTTScheduler)(nil)
)

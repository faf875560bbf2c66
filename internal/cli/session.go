package cli

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mustafadnc15/ezan-saati-pro/internal/api"
	"github.com/mustafadnc15/ezan-saati-pro/internal/cache"
	"github.com/mustafadnc15/ezan-saati-pro/internal/config"
	"github.com/mustafadnc15/ezan-saati-pro/internal/geo"
	"github.com/mustafadnc15/ezan-saati-pro/internal/timetable"
)

// Constructors for external collaborators. Tests replace them.
var (
	newFetcher = func() timetable.Fetcher { return api.NewClient() }
	newLocator = func() geo.Provider { return geo.NewIPProvider() }
	clock      = time.Now
)

// session bundles everything a command needs to fetch timetables for the
// effective location.
type session struct {
	cfg    *config.Config
	svc    *timetable.Service
	loc    timetable.Location
	method int
	school int

	closeStore func() error
}

// newSession opens the cache for cfg. The location is left unresolved.
func newSession(ctx context.Context, cfg *config.Config) *session {
	store, closeStore := openStore(ctx, cfg)
	return &session{
		cfg:        cfg,
		svc:        timetable.New(newFetcher(), store, newLocator()),
		method:     cfg.MethodOrDefault(config.DefaultMethod),
		school:     cfg.SchoolOrDefault(-1),
		closeStore: closeStore,
	}
}

// openSession merges the config, opens the cache and resolves the location.
// The caller must Close the session.
func openSession(cmd *cobra.Command) (*session, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := effectiveConfig(cmd)
	s := newSession(ctx, cfg)

	loc, err := s.svc.Resolve(ctx, cfg.Latitude, cfg.Longitude, cfg.City, cfg.Country)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.loc = loc
	return s, nil
}

// Close releases the cache connection.
func (s *session) Close() {
	if err := s.closeStore(); err != nil {
		log.Warn().Err(err).Msg("failed to close cache")
	}
}

// now returns the current instant in the location's timezone hint, or in
// the local zone when there is none.
func (s *session) now() time.Time {
	t := clock()
	if s.loc.Timezone == "" {
		return t
	}
	tz, err := time.LoadLocation(s.loc.Timezone)
	if err != nil {
		return t
	}
	return t.In(tz)
}

// day fetches the timetable for the current day.
func (s *session) day(ctx context.Context) (*timetable.Day, *time.Location, time.Time, error) {
	return s.dayAt(ctx, s.now())
}

// dayAt fetches the timetable for the day containing at and returns it with
// its timezone and at re-anchored to that timezone. When the re-anchored
// instant falls on another calendar day, that day is fetched instead.
func (s *session) dayAt(ctx context.Context, at time.Time) (*timetable.Day, *time.Location, time.Time, error) {
	for attempt := 0; ; attempt++ {
		d, err := s.svc.Day(ctx, at, s.loc, s.method, s.school)
		if err != nil {
			return nil, nil, time.Time{}, err
		}
		tz, err := d.TimeZone(s.loc.Timezone)
		if err != nil {
			return nil, nil, time.Time{}, err
		}
		local := at.In(tz)
		if attempt > 0 || sameDate(local, at) {
			return d, tz, local, nil
		}
		at = local
	}
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// openStore returns the Redis cache when redis_addr is set and reachable,
// otherwise the file cache. A nil store disables caching.
func openStore(ctx context.Context, cfg *config.Config) (cache.Store, func() error) {
	noop := func() error { return nil }

	if cfg.RedisAddr != "" {
		r, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err == nil {
			log.Debug().Str("addr", cfg.RedisAddr).Msg("using redis cache")
			return r, r.Close
		}
		log.Warn().Err(err).Msg("redis cache unavailable, falling back to file cache")
	}

	c, err := cache.New(cfg.CacheDir)
	if err != nil {
		log.Warn().Err(err).Msg("cache disabled")
		return nil, noop
	}
	log.Debug().Str("dir", c.Dir()).Msg("using file cache")
	return c, noop
}

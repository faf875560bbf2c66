package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mustafadnc15/ezan-saati-pro/internal/app"
	"github.com/mustafadnc15/ezan-saati-pro/internal/prayer"
	"github.com/mustafadnc15/ezan-saati-pro/internal/schedule"
	"github.com/mustafadnc15/ezan-saati-pro/internal/server"
)

var (
	flagListen  string
	flagOrigins []string
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve prayer times and Qibla direction over HTTP",
		Long: "Start a local HTTP API:\n\n" +
			"  GET /health\n" +
			"  GET /v1/qibla?lat=&lon=[&heading=]\n" +
			"  GET /v1/timetable?lat=&lon=[&date=YYYY-MM-DD]\n" +
			"  GET /v1/next?lat=&lon=\n\n" +
			"Requests without coordinates use the configured or detected location.",
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&flagListen, "addr", "", "Listen address (overrides listen_addr)")
	cmd.Flags().StringSliceVar(&flagOrigins, "cors-origin", nil, "Allowed CORS origins (default: all)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := effectiveConfig(cmd)
	s := newSession(ctx, cfg)
	defer s.Close()
	state := app.New(nil)

	// A default location is optional: requests may always pass their own.
	var refresh *schedule.Task
	if loc, err := s.svc.Resolve(ctx, cfg.Latitude, cfg.Longitude, cfg.City, cfg.Country); err != nil {
		log.Warn().Err(err).Msg("no default location, requests must pass lat and lon")
	} else {
		s.loc = loc
		refresh = schedule.Every(time.Minute, func(ctx context.Context) { refreshState(ctx, s, state) })
		if err := refresh.Start(ctx); err != nil {
			return err
		}
		defer refresh.Stop()
	}

	if !FlagVerbose {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.NewRouter(s.svc, state, server.Options{
		Method:         s.method,
		School:         s.school,
		Lang:           cfg.Language,
		TimeLayout:     cfg.GoTimeLayout(),
		AllowedOrigins: flagOrigins,
		Refresh:        refresh,
	})

	addr := cfg.ListenAddr
	if flagListen != "" {
		addr = flagListen
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("serving HTTP API")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			log.Error().Err(err).Msg("failed to shut down HTTP server")
			return err
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// refreshState keeps the shared state on the default location's current
// day, so /health reports the engine phase and the last upstream failure.
func refreshState(ctx context.Context, s *session, state *app.State) {
	if state.Engine().Phase() == prayer.PhaseReady {
		return
	}
	day, _, _, err := s.day(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to refresh default timetable")
		state.SetError(err)
		return
	}
	state.Engine().Load(day.Timetable())
	state.SetError(nil)
	if err := state.SetLocation(observer(s.loc, day)); err != nil {
		log.Debug().Err(err).Msg("no coordinates for default location")
	}
}

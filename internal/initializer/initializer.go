package initializer

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"golang.org/x/sync/errgroup"

	"github.com/darknebula/questfeed/internal/backend"
	"github.com/darknebula/questfeed/internal/config"
	"github.com/darknebula/questfeed/internal/exchange"
	"github.com/darknebula/questfeed/internal/storage"
)

// Start will initialize various required systems and then execute the app.
func Start(mainCtx context.Context, cfg *config.Config) error {

	// Setting up logger.
	// If the path given in the config for logging ends with .log then create a log file with the same name and
	// write log messages to it. Otherwise, create a new log file with a timestamp attached to it's name in the given path.
	var (
		logFile *os.File
		err     error
	)
	if strings.HasSuffix(cfg.Log.FilePath, ".log") {
		logFile, err = os.OpenFile(cfg.Log.FilePath, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0666)
		if err != nil {
			return fmt.Errorf("not able to open or create log file: %v", cfg.Log.FilePath)
		}
	} else {
		logFile, err = os.Create(cfg.Log.FilePath + "_" + strconv.Itoa(int(time.Now().Unix())) + ".log")
		if err != nil {
			return fmt.Errorf("not able to create log file: %v", cfg.Log.FilePath+"_"+strconv.Itoa(int(time.Now().Unix()))+".log")
		}
	}
	defer logFile.Close()

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	switch cfg.Log.Level {
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	fileLogger := zerolog.New(logFile).With().Timestamp().Logger()
	log.Logger = fileLogger
	log.Info().Msg("logger setup is done")

	// Prepare the sink and probe its control channel. An unreachable
	// control channel is logged but not fatal: the writer task retries
	// at the connection boundary once rows start flowing.
	quest := storage.InitQuest(&cfg.Connection.Quest)
	pingCtx, cancel := context.WithTimeout(mainCtx, 5*time.Second)
	resp, err := pingControl(pingCtx, quest.ControlAddr())
	cancel()
	if err != nil {
		log.Error().Err(err).Str("addr", quest.ControlAddr()).Msg("quest control channel not reachable")
	} else {
		log.Info().Str("addr", quest.ControlAddr()).Int("status", resp).Msg("quest connected")
	}

	be := backend.New(&cfg.Connection.Quest, quest)

	// Start the writer task and each exchange feed. If the writer or any
	// exchange fails after retry, force everything to stop and exit the app.
	appErrGroup, appCtx := errgroup.WithContext(mainCtx)

	appErrGroup.Go(func() error {
		return be.Run(appCtx)
	})

	feedErrGroup, feedCtx := errgroup.WithContext(appCtx)
	for _, exch := range cfg.Exchanges {
		markets := exch.Markets
		retry := exch.Retry
		switch exch.Name {
		case "binance":
			feedErrGroup.Go(func() error {
				return exchange.StartBinance(feedCtx, be, markets, &retry, &cfg.Connection)
			})
		default:
			log.Error().Str("exchange", exch.Name).Msg("unknown exchange in config, skipping")
		}
	}

	appErrGroup.Go(func() error {
		err := feedErrGroup.Wait()

		// Feeds are done, stop intake. Rows already queued are still
		// flushed before the writer returns.
		be.Close()
		return err
	})

	err = appErrGroup.Wait()
	if err != nil {
		log.Error().Msg("exiting the app")
		return err
	}
	return nil
}

func pingControl(ctx context.Context, addr string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	arg "github.com/alexflint/go-arg"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"github.com/windwatts/curtailment-mining-watcher/common/config"
	cerrors "github.com/windwatts/curtailment-mining-watcher/common/errors"
	"github.com/windwatts/curtailment-mining-watcher/common/logging"
	database "github.com/windwatts/curtailment-mining-watcher/database/db"
	"github.com/windwatts/curtailment-mining-watcher/elexon"
	"github.com/windwatts/curtailment-mining-watcher/env"
	"github.com/windwatts/curtailment-mining-watcher/mining"
	"github.com/windwatts/curtailment-mining-watcher/reconcile"
	"github.com/windwatts/curtailment-mining-watcher/refdata"
	"github.com/windwatts/curtailment-mining-watcher/types"
)

type args struct {
	Date            string `arg:"positional" help:"settlement date YYYY-MM-DD, defaults to yesterday"`
	EndDate         string `arg:"--end-date" help:"last settlement date of the range, defaults to Date"`
	FromPeriod      int    `arg:"--from-period" default:"1" help:"first settlement period (1-48)"`
	ToPeriod        int    `arg:"--to-period" default:"48" help:"last settlement period (1-48)"`
	ExpectedPayment string `arg:"--expected-payment" help:"expected total payment for deviation reporting"`
	Daemon          bool   `arg:"--daemon" help:"keep running and reconcile on a daily schedule"`
}

func (args) Description() string {
	return "reconciles wind curtailment settlement stacks and derives bitcoin mining potential"
}

func main() {
	name := "curtailment-watcher"
	logging.Initialize(name)
	defer logging.Finalize()

	logger := logging.NewLoggerTag(name)

	cerrors.Initialize(logger)
	defer cerrors.Catch()

	var a args
	arg.MustParse(&a)

	logger.Info("%s service started.", name)

	database.Initialize()
	defer database.Finalize()
	if env.ResetDatabase() {
		database.Reset(database.GetDB(), types.Watcher, true)
	}

	backgroundCtx, stop := context.WithCancel(context.Background())
	go WaitExitSignal(stop, logger)

	runner, err := buildRunner(logger)
	if err != nil {
		logger.Error("fail to initialize runner: %s", err)
		os.Exit(-3)
	}

	from, to, expected, err := parseArgs(&a)
	if err != nil {
		logger.Error("bad arguments: %s", err)
		os.Exit(-2)
	}

	if a.Daemon {
		runDaemon(backgroundCtx, logger, runner, &a)
		return
	}

	report, err := runner.RunRange(backgroundCtx, from, to, a.FromPeriod, a.ToPeriod, expected)
	if err != nil {
		logger.Critical("run aborted: %s", err)
		os.Exit(-1)
	}
	if report.PeriodsSucceeded.Load() == 0 {
		logger.Error("no period succeeded")
		os.Exit(-1)
	}
}

// buildRunner wires the orchestrator from configuration and reference data.
func buildRunner(logger logging.Logger) (*reconcile.Runner, error) {
	db := database.GetDB()

	registry, err := refdata.LoadRegistry(db)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded %d wind farm units", registry.Len())

	profiles, err := refdata.LoadMinerProfiles(db)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded %d miner profiles", len(profiles))

	limiter := elexon.NewRateLimiter(
		config.GetInt("RATE_LIMIT_REQUESTS", 5),
		config.GetMillisecond("RATE_LIMIT_WINDOW_MS", time.Second),
	)
	fetcher := elexon.NewClient(
		logger,
		config.GetString("ELEXON_API_URL", "https://data.elexon.co.uk/bmrs/api/v1"),
		limiter,
		uint64(config.GetInt("FETCH_MAX_RETRIES", 3)),
	)

	store := database.NewStore(db)
	calculator := mining.NewCalculator(logger, profiles)
	difficulty := func(date time.Time) (decimal.Decimal, error) {
		sample, err := refdata.DifficultyOn(db, date)
		if err != nil {
			return decimal.Zero, err
		}
		return sample.Difficulty, nil
	}

	return reconcile.NewRunner(logger, fetcher, store, registry, calculator, difficulty,
		&reconcile.Config{
			BatchSize:  config.GetInt("RUN_BATCH_SIZE", 4),
			BatchDelay: config.GetMillisecond("RUN_BATCH_DELAY_MS", 0),
		}), nil
}

func parseArgs(a *args) (from, to time.Time, expected decimal.Decimal, err error) {
	from = reconcile.Day(time.Now().UTC().AddDate(0, 0, -1))
	if a.Date != "" {
		if from, err = reconcile.ParseDate(a.Date); err != nil {
			return
		}
	}
	to = from
	if a.EndDate != "" {
		if to, err = reconcile.ParseDate(a.EndDate); err != nil {
			return
		}
	}
	if a.ExpectedPayment != "" {
		if expected, err = decimal.NewFromString(a.ExpectedPayment); err != nil {
			return
		}
	}
	return
}

// runDaemon reconciles the previous settlement day on a cron schedule until
// the context is cancelled. Settlement data for day D firms up during D+1,
// so the default schedule runs in the early morning.
func runDaemon(ctx context.Context, logger logging.Logger, runner *reconcile.Runner, a *args) {
	c := cron.New()
	spec := config.GetString("RUN_DAILY_AT", "0 8 * * *")
	_, err := c.AddFunc(spec, func() {
		date := reconcile.Day(time.Now().UTC().AddDate(0, 0, -1))
		report, err := runner.RunDate(ctx, date, a.FromPeriod, a.ToPeriod, decimal.Zero)
		if err != nil {
			logger.Error("scheduled run failed: %s", err)
			return
		}
		logger.Info("scheduled run done: %s", report.Summary())
	})
	if err != nil {
		logger.Critical("bad cron schedule %s: %s", spec, err)
		os.Exit(-2)
	}
	logger.Info("daemon mode, schedule %s", spec)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
}

func WaitExitSignal(ctxStop context.CancelFunc, logger logging.Logger) {
	var exitSignal = make(chan os.Signal, 1)
	signal.Notify(exitSignal, syscall.SIGTERM)
	signal.Notify(exitSignal, syscall.SIGINT)

	sig := <-exitSignal
	logger.Info("caught sig: %+v, Stopping...\n", sig)
	ctxStop()
}

package app

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"telegram-timesheet/internal/clock"
	"telegram-timesheet/internal/config"
	"telegram-timesheet/internal/handlers"
	"telegram-timesheet/internal/scheduler"
	"telegram-timesheet/internal/storage"
	"telegram-timesheet/internal/timesheet"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// App wires the bot, the store and the background jobs together.
type App struct {
	cfg *config.Config
	log *zap.Logger

	db         *storage.DB
	bot        *tgbotapi.BotAPI
	handler    *handlers.Handler
	reconciler *timesheet.Reconciler
	reminders  *timesheet.ReminderScanner
	sched      *scheduler.Scheduler
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	log.Info("authorized", zap.String("bot", bot.Self.UserName))

	clk := clock.New(clockwork.NewRealClock(), cfg.Location())
	svc := timesheet.NewService(db, clk, timesheet.Options{
		AutoContinue:  cfg.AutoStartNextDay,
		ContinueDelay: cfg.AutoStartDelay,
		PauseReminder: cfg.PauseReminder,
	}, log)
	h := handlers.NewHandler(bot, svc, cfg.PanelCommand, log)

	sched, err := scheduler.New(clk.Base(), clk.Location(), log)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &App{
		cfg:        cfg,
		log:        log,
		db:         db,
		bot:        bot,
		handler:    h,
		reconciler: timesheet.NewReconciler(svc, h, log),
		reminders:  timesheet.NewReminderScanner(svc, h, log),
		sched:      sched,
	}, nil
}

// Run closes days left open while the bot was down, starts the jobs and
// handles updates until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.reconciler.CatchUp(ctx); err != nil {
		a.log.Error("startup catch-up failed", zap.Error(err))
	}

	if err := a.sched.Every("rollover", a.cfg.RolloverInterval, a.reconciler); err != nil {
		return err
	}
	if a.reminders.Enabled() {
		if err := a.sched.Every("pause-reminder", a.cfg.ReminderInterval, a.reminders); err != nil {
			return err
		}
	} else {
		a.log.Info("pause reminders disabled")
	}
	a.sched.Start()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := a.bot.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		a.bot.StopReceivingUpdates()
	}()

	a.log.Info("listening", zap.String("panel", "/"+a.cfg.PanelCommand), zap.String("tz", a.cfg.Timezone))
	a.handler.Listen(ctx, updates)
	return nil
}

func (a *App) Close() error {
	if err := a.sched.Shutdown(); err != nil {
		a.log.Warn("scheduler shutdown", zap.Error(err))
	}
	return a.db.Close()
}

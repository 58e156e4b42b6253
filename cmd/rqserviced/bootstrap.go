package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"rqservice/internal/config"
	"rqservice/internal/controller"
	"rqservice/internal/daemon"
	"rqservice/internal/engine"
	"rqservice/internal/logging"
	"rqservice/internal/service"
	"rqservice/internal/sysutil"
)

func bootstrap(ctx context.Context, args []string, stdout io.Writer) (err error) {
	cfg, settingsPath, settingsFound, err := config.Load("")
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	levelVar := new(slog.LevelVar)
	level := cfg.Logging.Level
	if level == "" {
		level = logging.LevelForVerbosity(0)
	}
	logger, err := logging.New(logging.Options{
		Format:   cfg.Logging.Format,
		Level:    level,
		Outputs:  cfg.Logging.Outputs,
		Color:    cfg.Logging.Color,
		LevelVar: levelVar,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger, _ = logging.WithRunID(logger)

	if cfg.Limits.MaxConns > 0 {
		if err := sysutil.SetMaxConns(cfg.Limits.MaxConns); err != nil {
			return err
		}
	}

	eng := engine.NewStandalone(logger)
	svc, err := service.New(eng,
		service.WithLogger(logger),
		service.WithUsage(stdout),
		service.WithDaemonSettings(cfg.Daemon),
	)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := svc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	if err := svc.SetName(serviceName); err != nil {
		return err
	}

	if err := svc.ProcessArgs(args); err != nil {
		return err
	}
	if cfg.Logging.Level == "" {
		levelVar.Set(logging.ParseLevel(logging.LevelForVerbosity(svc.Verbose())))
	}
	logger.Debug("settings loaded",
		logging.String("path", settingsPath),
		logging.Bool("found", settingsFound),
	)

	if err := svc.InitDaemon(daemon.NewSystem()); err != nil {
		return err
	}

	n, err := svc.Connect(controllerUp(logger), controllerDown(logger), nil)
	switch {
	case errors.Is(err, controller.ErrNotConfigured):
		logger.Info("no controllers configured")
	case err != nil:
		return err
	default:
		logger.Debug("controllers handed to engine", logging.Int("count", n))
	}

	loop := engine.Loop{}
	svc.SetEventBase(loop)
	logger.Info("service running", logging.String(logging.FieldEventType, "service_started"))

	err = loop.Dispatch(ctx)
	svc.Shutdown()
	logger.Info("service stopping", logging.String(logging.FieldEventType, "service_stopped"))
	return err
}

func controllerUp(logger *slog.Logger) service.Handler {
	return func(svc *service.Service, _ any) {
		logger.Info("controller connected", logging.String(logging.FieldService, svc.Name()))
	}
}

func controllerDown(logger *slog.Logger) service.Handler {
	return func(svc *service.Service, _ any) {
		logger.Warn("controller dropped", logging.String(logging.FieldService, svc.Name()))
	}
}

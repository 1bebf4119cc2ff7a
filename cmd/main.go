package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"spreadhunter/api"
	"spreadhunter/config"
	"spreadhunter/internal/arbitrage"
	"spreadhunter/internal/exchange"
	"spreadhunter/internal/ledger"
	"spreadhunter/internal/models"
	"spreadhunter/internal/scanner"
	"spreadhunter/internal/scheduler"
)

func main() {
	// ── 1. Logger setup
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// ── 2. Root context setup
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── 3. Config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	log.Info().Msg("config loaded")

	// ── 4. Exchange adapters
	exchanges := buildExchanges(ctx, cfg)
	log.Info().Int("count", len(exchanges)).Msg("exchange adapters initialized")

	// ── 5. Core components
	led := ledger.New(cfg.Ledger.MaxHistory)
	calc := arbitrage.NewCalculator(exchanges, cfg.Scanner)
	sc := scanner.New(exchanges, calc, cfg.Scanner)

	sched := scheduler.New(sc, cfg.Preset(cfg.Scheduler.Preset), cfg.Scheduler.Interval)
	if cfg.Scheduler.Enabled {
		sched.Start(ctx)
		defer sched.Stop()
	}

	// ── 6. Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "SpreadHunter",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	})

	// ── 7. Routes
	api.SetupRoutes(app, calc, sc, sched, led, cfg)

	// ── 8. Graceful shutdown listener
	go func() {
		<-ctx.Done()
		log.Info().Msg("shutdown signal received")
		if err := app.Shutdown(); err != nil {
			log.Error().Err(err).Msg("error during shutdown")
		}
	}()

	// ── 9. Start server (blocking)
	log.Info().Str("port", cfg.AppPort).Msg("starting server")
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatal().Err(err).Msg("server failed to start")
	}
}

// buildExchanges wires the configured adapters. When the Binance stream is
// enabled, its REST adapter is wrapped so ticker reads come from the live
// websocket cache.
func buildExchanges(ctx context.Context, cfg *config.Config) []exchange.Adapter {
	timeout := cfg.Scanner.RequestTimeout
	binance := exchange.NewBinanceAdapter(fees(cfg, "binance"), timeout)

	var binanceAdapter exchange.Adapter = binance
	if cfg.EnableBinanceStream {
		stream := exchange.NewTickerStream(cfg.Preset("all"))
		go stream.Run(ctx)
		binanceAdapter = exchange.NewStreamingBinanceAdapter(binance, stream)
		log.Info().Msg("binance ticker stream enabled")
	}

	return []exchange.Adapter{
		binanceAdapter,
		exchange.NewBybitAdapter(fees(cfg, "bybit"), timeout),
		exchange.NewMexcAdapter(fees(cfg, "mexc"), timeout),
		exchange.NewKrakenAdapter(fees(cfg, "kraken"), timeout),
	}
}

func fees(cfg *config.Config, id string) models.TradingFees {
	fee := cfg.Fee(id)
	return models.TradingFees{Maker: fee.Maker, Taker: fee.Taker, Percentage: true}
}

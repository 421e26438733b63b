package main

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"quotebot/app/client/telegram"
	"quotebot/app/config"
	"quotebot/app/service/bot"
	"quotebot/app/service/delivery"
	"quotebot/app/service/messages"
	"quotebot/app/service/queue"
	"quotebot/app/service/quotes"
	"quotebot/app/service/viewlog"
	"quotebot/app/util/mylog"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/samber/do"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "quotebot",
		Short: "Telegram bot serving one quote a day",
		Run: func(_ *cobra.Command, _ []string) {
			serve(configPath)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to the YAML config file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the bot",
		Run: func(_ *cobra.Command, _ []string) {
			serve(configPath)
		},
	})
	rootCmd.AddCommand(newImportCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(configPath string) {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.ProvideValue(di, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))

	do.Provide(di, telegram.NewClient)
	do.Provide(di, quotes.New)
	do.Provide(di, viewlog.New)
	do.Provide(di, messages.New)
	do.Provide(di, queue.New)
	do.Provide(di, delivery.New)
	do.Provide(di, bot.New)

	botSvc, err := do.Invoke[*bot.Service](di)
	if err != nil {
		log.Fatalf("bot init failed: %v", err)
	}
	telegramClient := do.MustInvoke[*telegram.Client](di)

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	g, ctx := errgroup.WithContext(appCtx)

	g.Go(func() error {
		defer cancel()
		return telegramClient.Run(ctx)
	})
	g.Go(func() error {
		botSvc.Run(ctx)
		return nil
	})

	slog.Info("Service started")

	if err = g.Wait(); err != nil {
		slog.Error("Service stopped with error", "error", err)
	}
}

func newImportCommand() *cobra.Command {
	var inPath, outPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Convert a raw text file, one quote per line, into the quotes CSV",
		RunE: func(_ *cobra.Command, _ []string) error {
			mylog.Preinit()

			in, err := os.Open(inPath)
			if err != nil {
				return err
			}
			defer in.Close()

			out, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer out.Close()

			count, err := quotes.Import(in, out, uuid.NewString)
			if err != nil {
				return err
			}

			slog.Info("Imported quotes", "from", inPath, "to", outPath, "count", count)

			return out.Close()
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "./raw_quotes.txt", "raw quotes, one per line")
	cmd.Flags().StringVar(&outPath, "out", "./quotes.csv", "quotes CSV to write")

	return cmd
}

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/roomchat-server/internal/app"
	"github.com/vovakirdan/roomchat-server/internal/config"
	"github.com/vovakirdan/roomchat-server/internal/log"
)

func main() {
	var (
		cfgPath  string
		addr     string
		logLevel string
		pretty   bool
	)

	rootCmd := &cobra.Command{
		Use:          "roomchat-server",
		Short:        "Room-based chat server with persistent history",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			bootLogger := log.New("info", pretty)
			cfg, cfgFile, err := config.Load(bootLogger, cfgPath)
			if err != nil {
				return err
			}
			cfg.UpdateFrom(config.Config{Addr: addr, LogLevel: logLevel})

			logger := log.New(cfg.LogLevel, pretty)
			logger.Info().Str("config", cfgFile).Msg("configuration loaded")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			return a.Run(ctx)
		},
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	rootCmd.Flags().StringVar(&addr, "addr", "", "listen address override")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level override")
	rootCmd.Flags().BoolVar(&pretty, "pretty", false, "human-readable console logs")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

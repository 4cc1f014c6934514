package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/calcbert/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve classification, feedback and retraining over HTTP.

Endpoints:
  POST /predict          classify a description
  POST /feedback         record a correction
  GET  /feedback/count   number of stored corrections
  POST /retrain          rebuild the TF-IDF model from corpus + feedback
  GET  /retrain/status   retrain capabilities and last outcome
  GET  /health           liveness and model status`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := server.New(server.Deps{
				Feedback:   a.store,
				Classifier: a.classifier,
				Retrainer:  a.retrainer,
				Models:     a.models,
			}, a.cfg.Server.AllowedOrigins)

			return srv.Run(ctx, a.cfg.Server.Address())
		},
	}

	cmd.Flags().String("host", "", "listen address (default from config)")
	cmd.Flags().Int("port", 0, "listen port (default from config)")
	_ = viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))

	return cmd
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/themepilot/themepilot/internal/web"
	"github.com/themepilot/themepilot/internal/webhook"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the trigger webhook and dashboard server",
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if port > 0 {
			cfg.Server.Port = port
		}

		history := openHistory(cfg)
		if history != nil {
			defer history.Close()
		}

		handler := webhook.NewHandler(cfg.Server.Secret, func(environment string) error {
			// Triggered deploys run detached from the request.
			ctx := context.Background()
			var err error
			if environment == "staging" {
				engine, buildErr := buildStagingEngine(cfg, history, false)
				if buildErr != nil {
					return buildErr
				}
				_, err = engine.DeployStaging(ctx)
			} else {
				engine, buildErr := buildEngine(cfg, history, false, false)
				if buildErr != nil {
					return buildErr
				}
				_, err = engine.DeployProduction(ctx)
			}
			if err != nil {
				log.Printf("[server] triggered %s deployment failed: %v", environment, err)
			}
			return err
		})

		var dashboard http.Handler
		if history != nil {
			dashboard = web.NewHandler(history, cfg)
		}

		server := webhook.NewServer(cfg.Server, handler, dashboard)

		fmt.Printf("Starting themepilot server on port %d...\n", serverPort(cfg.Server.Port))
		return server.ListenAndServe(cmd.Context())
	},
}

func serverPort(port int) int {
	if port == 0 {
		return 8080
	}
	return port
}

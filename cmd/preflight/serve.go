// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"

	preflight "github.com/AleutianAI/preflight/services/preflight"
	"github.com/AleutianAI/preflight/services/preflight/telemetry"
)

var (
	flagPort       int
	flagDebug      bool
	flagConfigPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Preflight HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&flagPort, "port", 8080, "Port to listen on")
	serveCmd.Flags().BoolVar(&flagDebug, "debug", false, "Enable debug mode")
	serveCmd.Flags().StringVar(&flagConfigPath, "config", "preflight.yaml", "Service config file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if flagDebug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdown, err := telemetry.Init(ctx, telemetry.DefaultConfig())
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Error("Telemetry shutdown failed", "error", err)
		}
	}()

	serviceConfig, err := preflight.LoadServiceConfig(flagConfigPath)
	if err != nil {
		return fmt.Errorf("load service config: %w", err)
	}

	svc := preflight.NewService(serviceConfig)
	handlers := preflight.NewHandlers(svc)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("preflight-service"))
	if flagDebug {
		router.Use(gin.Logger())
	}

	v1 := router.Group("/v1")
	preflight.RegisterRoutes(v1, handlers)

	if metricsHandler := telemetry.MetricsHandler(); metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", flagPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		slog.Info("Starting Preflight server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down Preflight server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

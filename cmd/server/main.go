// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main is the entry point for the recipe pipeline server.
//
// The application runs a Gin web server exposing the on-demand pipeline
// operations, while background Pub/Sub listeners react to Firestore
// document changes: a video becoming active starts transcription, and a
// transcript becoming ready starts recipe generation. The server is
// instrumented with OpenTelemetry for logging, tracing, and metrics.
//
// Functions:
//   - main: Sets up logging, telemetry, state, routes, and listeners, and
//     handles graceful shutdown.
//   - PipelineRouter: Registers the transcript and recipe API routes.
//   - DiagnosticsRouter: Registers the provider-key diagnostic route.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/spoonfeed/recipe-pipeline/internal/core/model"
	"github.com/spoonfeed/recipe-pipeline/internal/telemetry"
)

func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	// Root context for the application; canceling it stops the listeners.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	_, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	InitState(ctx)
	slog.Info("Initialized State")

	r := gin.Default()

	// Trace every incoming request.
	r.Use(otelgin.Middleware("recipe-pipeline-server"))

	// Permissive CORS, suitable for development.
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		PipelineRouter(apiV1)
		DiagnosticsRouter(apiV1)
	}

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      r,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready on port 8080")

	// Block until an interrupt arrives, then drain in-flight requests.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}

	log.Println("Server exiting")
}

// PipelineRouter sets up the on-demand pipeline routes.
func PipelineRouter(r *gin.RouterGroup) {
	// Run transcription for a video without waiting for the change trigger.
	r.POST("/transcripts", func(c *gin.Context) {
		var req model.GenerateTranscriptRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "invalid-argument",
				"message": "request body must contain videoId and videoUrl",
			})
			return
		}

		result, err := state.transcription.GenerateOnDemand(c.Request.Context(), req.VideoID, req.VideoURL)
		if err != nil {
			var validationErr *model.ValidationError
			if errors.As(err, &validationErr) {
				c.JSON(http.StatusBadRequest, gin.H{
					"code":    "invalid-argument",
					"message": validationErr.Error(),
				})
				return
			}
			slog.Error("on-demand transcription failed", "videoId", req.VideoID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    "internal",
				"message": "Failed to generate transcript",
				"videoId": req.VideoID,
			})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	// Generate (or regenerate) the recipe for a video that already has a
	// ready transcript. The response is always 200; failure detail rides in
	// the body, matching what the client applications expect.
	r.POST("/videos/:id/recipe", func(c *gin.Context) {
		videoID := c.Param("id")
		recipe, err := state.recipe.GenerateForVideo(c.Request.Context(), videoID)
		if err != nil {
			slog.Error("on-demand recipe generation failed", "videoId", videoID, "error", err)
			c.JSON(http.StatusOK, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"recipe": recipe})
	})
}

// DiagnosticsRouter sets up the provider diagnostics route, which verifies
// the configured OpenAI credentials by listing the available models.
func DiagnosticsRouter(r *gin.RouterGroup) {
	r.GET("/diagnostics/provider-key", func(c *gin.Context) {
		models, err := state.cloud.OpenAIClient.ListModels(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "API key validation failed",
				"error":   err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"message":    "API key is valid",
			"modelCount": len(models.Models),
		})
	})
}

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
	"log"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"google.golang.org/grpc/credentials/insecure"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"

	"github.com/Zee159/coachflux/pkg/logging"
	"github.com/Zee159/coachflux/services/coach/frameworks"
	"github.com/Zee159/coachflux/services/coach/handlers"
	"github.com/Zee159/coachflux/services/coach/observability"
	"github.com/Zee159/coachflux/services/coach/recall"
	"github.com/Zee159/coachflux/services/coach/routes"
	"github.com/Zee159/coachflux/services/coach/safety"
	"github.com/Zee159/coachflux/services/coach/store"
	"github.com/Zee159/coachflux/services/coach/validation"
	"github.com/Zee159/coachflux/services/llm"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "coachflux-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("coach-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

func main() {
	port := os.Getenv("COACH_PORT")
	if port == "" {
		port = "12230"
	}

	logger := logging.Default()
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	classifier, err := safety.NewClassifier()
	if err != nil {
		log.Fatalf("FATAL: Could not initialize the safety classifier: %v", err)
	}

	dbPath := os.Getenv("COACH_DB_PATH")
	if dbPath == "" {
		dbPath = "/var/lib/coachflux/db"
	}
	st, err := store.Open(store.DefaultConfig(dbPath))
	if err != nil {
		log.Fatalf("FATAL: Could not open the session store: %v", err)
	}
	defer st.Close()

	log.Println("Configuring the LLM Client")
	llmClient, err := llm.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	var recaller *recall.Recaller
	weaviateURL := strings.Trim(os.Getenv("WEAVIATE_SERVICE_URL"), "\"' ")
	if weaviateURL != "" && strings.Contains(weaviateURL, "http") {
		parsedURL, err := url.Parse(weaviateURL)
		if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
			slog.Warn("WEAVIATE_SERVICE_URL is invalid. Running without recall.",
				"url", weaviateURL, "error", err)
		} else {
			weaviateClient, err := weaviate.NewClient(weaviate.Config{
				Host:   parsedURL.Host,
				Scheme: parsedURL.Scheme,
			})
			if err != nil {
				slog.Error("Failed to create Weaviate client", "error", err)
			} else {
				recaller = recall.New(weaviateClient)
			}
		}
	} else {
		slog.Info("WEAVIATE_SERVICE_URL not set or empty. Running without recall.")
	}

	var verifier validation.Verifier
	if endpoint := os.Getenv("VERIFIER_SERVICE_URL"); endpoint != "" {
		verifier = validation.NewHTTPVerifier(endpoint)
	} else {
		slog.Warn("VERIFIER_SERVICE_URL not set, conformance gate runs without an external verifier")
	}

	deps := &handlers.Deps{
		Store:      st,
		LLM:        llmClient,
		Classifier: classifier,
		Verifier:   verifier,
		Recaller:   recaller,
		Metrics:    observability.InitMetrics(),
		FrameworkCfg: frameworks.Config{
			LegacyCompass: os.Getenv("COACH_LEGACY_COMPASS") == "true",
		},
	}

	router := gin.Default()
	router.Use(otelgin.Middleware("coach-service"))
	routes.SetupRoutes(router, deps)

	log.Println("Starting the coach server on port ", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"

	"reqsync/config"
	core "reqsync/ingestion/service/core"
	grpchandler "reqsync/ingestion/service/grpc"
	httphandler "reqsync/ingestion/service/http"
	"reqsync/internal/messaging/producer"
	"reqsync/internal/telemetry"
	worker "reqsync/processing"
	remote "reqsync/remote/client"
	"reqsync/storage/store"
)

func main() {
	configFlag := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	logger := log.New(os.Stdout, "[INGEST] ", log.LstdFlags|log.Lshortfile)
	logger.Println("Starting request ingestion service...")

	// 1. Load configuration
	cfgPath := config.ResolvePath(*configFlag)
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatalf("Failed to load configuration from %s: %v", cfgPath, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		logger.Fatalf("Failed to initialize tracing: %v", err)
	}

	// 2. Initialize dependencies
	logger.Printf("Opening %s record store...", cfg.Storage.Backend)
	recordStore, err := store.New(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize record store: %v", err)
	}

	remoteClient, err := remote.NewHTTPClient(cfg.Remote, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize remote client: %v", err)
	}

	eventProducer, err := producer.New(cfg.KafkaProducer, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize event producer: %v", err)
	}

	// 3. Core service, handlers and reconciler
	coreService := core.NewService(recordStore, remoteClient, eventProducer, logger,
		cfg.KafkaProducer.BatchSize, cfg.KafkaProducer.BatchTimeout)
	healthServer := grpchandler.NewServer(logger)
	reconciler := worker.New(cfg.Reconciler, logger, recordStore, remoteClient, remoteClient, eventProducer,
		worker.WithProbeListener(healthServer.SetRemoteReachable))

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		reconciler.Run(ctx)
	}()

	// 4. [Conditional startup] HTTP server
	var httpServer *http.Server
	if cfg.HttpListenAddr != "" {
		gin.SetMode(gin.ReleaseMode)
		router := gin.New()
		router.Use(gin.Recovery())
		httphandler.NewRequestHandler(coreService, recordStore, remoteClient.BaseURL(), logger).Register(router)
		router.NoRoute(func(c *gin.Context) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "route not found"})
		})

		httpServer = &http.Server{
			Addr:           cfg.HttpListenAddr,
			Handler:        router,
			ReadTimeout:    cfg.HttpServer.ReadTimeout,
			WriteTimeout:   cfg.HttpServer.WriteTimeout,
			IdleTimeout:    cfg.HttpServer.IdleTimeout,
			MaxHeaderBytes: cfg.HttpServer.MaxHeaderBytes,
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Printf("HTTP server listening on %s", cfg.HttpListenAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatalf("HTTP server startup failed: %v", err)
			}
			logger.Println("HTTP server stopped listening.")
		}()
	} else {
		logger.Println("http_listen_addr not configured, skipping HTTP server startup.")
	}

	// 5. [Conditional startup] gRPC health server
	var grpcServer *grpc.Server
	if cfg.GrpcListenAddr != "" {
		lis, err := net.Listen("tcp", cfg.GrpcListenAddr)
		if err != nil {
			logger.Fatalf("Unable to listen on gRPC port %s: %v", cfg.GrpcListenAddr, err)
		}
		grpcServer = grpc.NewServer()
		healthServer.Register(grpcServer)
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Printf("gRPC health server listening on %s", cfg.GrpcListenAddr)
			if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				logger.Fatalf("gRPC server startup failed: %v", err)
			}
			logger.Println("gRPC server stopped listening.")
		}()
	} else {
		logger.Println("grpc_listen_addr not configured, skipping gRPC server startup.")
	}

	// 6. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Printf("Received shutdown signal: %s, starting graceful shutdown...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		logger.Println("Shutting down HTTP server...")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("HTTP server shutdown failed: %v", err)
		}
	}
	healthServer.Shutdown()
	if grpcServer != nil {
		logger.Println("Shutting down gRPC server...")
		grpcServer.GracefulStop()
	}

	// Servers and the reconciler must be gone before the store closes.
	wg.Wait()

	coreService.Close()
	if err := eventProducer.Close(); err != nil {
		logger.Printf("Event producer close failed: %v", err)
	}
	if err := recordStore.Close(); err != nil {
		logger.Printf("Record store close failed: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Printf("Tracer shutdown failed: %v", err)
	}
	logger.Println("All components stopped. Ingestion service shutdown.")
}

// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyperint/roomrelay/internal/debug"
)

func init() {
	log.Printf("[roomrelay] REVISION: %s loaded at %s", revision(), time.Now().Format(time.RFC3339))
}

func revision() string {
	if r := os.Getenv("ROOMRELAY_REVISION"); r != "" {
		return r
	}
	return "dev"
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := NewServer()

	memMonitor := debug.NewMemoryMonitor(debug.DefaultConfig(), server.rooms)
	memMonitor.Start()

	httpServer := &http.Server{
		Addr:    ":" + port,
		Handler: server.Handler(),
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	debugDump := make(chan os.Signal, 1)
	signal.Notify(debugDump, syscall.SIGQUIT)
	go func() {
		for range debugDump {
			memMonitor.DumpGoroutineStacks()
		}
	}()

	go func() {
		log.Printf("Starting server on :%s", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	sig := <-shutdown
	log.Printf("Received signal %v, shutting down...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	memMonitor.Stop()
	log.Println("Server stopped")
}

package main

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"

	"github.com/threefoldtech/cloud-console/api/handlers"
	"github.com/threefoldtech/cloud-console/internal/audit"
	"github.com/threefoldtech/cloud-console/internal/console"
	"github.com/threefoldtech/cloud-console/internal/db"
	"github.com/threefoldtech/cloud-console/internal/logger"
	"github.com/threefoldtech/cloud-console/internal/ptydev"
	"github.com/threefoldtech/cloud-console/internal/ws"
)

// fatalGrace is how long to keep serving after the pty fails, so that
// connected clients receive the final buffered output before exit.
const fatalGrace = 5 * time.Second

func main() {
	var (
		ptyPath      = pflag.String("pty", "", "path to the console pty device (required)")
		bindAddr     = pflag.String("addr", "0.0.0.0", "address to bind the HTTP listener to")
		bindPort     = pflag.Int("port", 8080, "port to bind the HTTP listener to")
		logPath      = pflag.String("log", "", "optional file receiving the raw console output")
		recordPath   = pflag.String("record", "", "optional Asciinema v2 recording file")
		auditPath    = pflag.String("audit-db", "", "optional SQLite database recording client connections")
		assetsDir    = pflag.String("assets", "", "optional directory with the web UI to serve")
		historyBytes = pflag.Int("history-bytes", console.DefaultHistorySize, "console history capacity in bytes")
		clientQueue  = pflag.Int("client-queue", console.DefaultQueueSize, "per-client outbound queue capacity in messages")
	)
	pflag.Parse()

	if *ptyPath == "" {
		printUsageAndExit()
	}

	ptyReader, ptyWriter, err := ptydev.Open(*ptyPath)
	if err != nil {
		log.Fatalf("Failed to open pty %s: %v", *ptyPath, err)
	}

	hub := console.NewHub(*historyBytes)

	// A failed pty ends the process: there is no replacement input source.
	// Keep serving briefly so clients can drain the final output.
	fatal := func(err error) {
		log.Printf("Console device failed: %v", err)
		time.Sleep(fatalGrace)
		os.Exit(2)
	}

	input := console.NewWriter(ptyWriter, fatal)
	go input.Run()

	reader := console.NewReader(ptyReader, hub, fatal)
	go reader.Run()

	if *logPath != "" {
		if _, err := console.AttachFileSink(hub, *logPath); err != nil {
			log.Fatalf("Failed to open log file %s: %v", *logPath, err)
		}
	}

	if *recordPath != "" {
		recorder, err := logger.NewCastRecorder(*recordPath, 80, 24)
		if err != nil {
			log.Fatalf("Failed to create recording %s: %v", *recordPath, err)
		}
		console.AttachSink(hub, *recordPath, recorder)
	}

	var connRepo *audit.ConnectionRepository
	if *auditPath != "" {
		database, err := db.InitDB(*auditPath)
		if err != nil {
			log.Fatalf("Failed to initialize audit database: %v", err)
		}
		defer db.CloseDB()
		connRepo = audit.NewConnectionRepository(database)
	}

	wsHandler := ws.NewHandler(hub, input, *clientQueue, connRepo)

	r := gin.Default()
	r.Use(corsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.NewConsoleHandler(wsHandler).RegisterRoutes(r)

	if connRepo != nil {
		api := r.Group("/api")
		handlers.NewConnectionsHandler(connRepo).RegisterRoutes(api)
	}

	if *assetsDir != "" {
		// The browser UI is plain static files; anything not matched by a
		// route above falls through to it.
		r.NoRoute(gin.WrapH(http.FileServer(http.Dir(*assetsDir))))
	}

	addr := net.JoinHostPort(*bindAddr, strconv.Itoa(*bindPort))
	log.Printf("Serving console %s on %s", *ptyPath, addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// printUsageAndExit prints usage instructions to standard error and exits
// with an error code.
func printUsageAndExit() {
	fmt.Fprintf(os.Stderr, `cloud-console - an interactive web based terminal connected to a pty

Usage:
  consoled --pty <path_to_pty> [flags]

Flags:
%s`, pflag.CommandLine.FlagUsages())
	os.Exit(1)
}

// corsMiddleware returns a CORS middleware for development.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept-Encoding, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

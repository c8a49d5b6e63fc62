// Command plotd serves the symplot evaluator over HTTP for a plotting
// front end.
//
// Usage:
//
//	plotd -port 8080 [-config plotd.toml]
//
// Endpoints:
//
//	POST   /tool                 execute a tool call
//	GET    /schema               tool schema
//	GET    /health               health check
//	GET    /animate              websocket stream of animation frames
//	POST   /session              create a plot session
//	GET    /session/{id}         session controls and last plot
//	DELETE /session/{id}         drop a session
//	POST   /session/{id}/plot    plot with the session controls
//	POST   /session/{id}/reset   restore the initial controls
//	POST   /session/{id}/clear   drop the last plot
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/njchilds90/symplot"
)

func main() {
	port := flag.Int("port", 0, "Port to listen on (overrides the config address)")
	configPath := flag.String("config", "", "TOML or YAML configuration file")
	flag.Parse()

	logger := log.New(os.Stderr, "plotd: ", log.LstdFlags)

	cfg := symplot.Default()
	if *configPath != "" {
		var err error
		cfg, err = symplot.LoadConfig(*configPath)
		if err != nil {
			logger.Fatal(err)
		}
	}
	addr := cfg.Server.Addr
	if *port != 0 {
		addr = fmt.Sprintf(":%d", *port)
	}

	logger.Printf("listening on %s", addr)
	logger.Printf("  POST /tool     execute a tool call")
	logger.Printf("  GET  /schema   tool schema")
	logger.Printf("  GET  /animate  animation frames over websocket")
	logger.Printf("  POST /session  create a plot session")

	srv := &http.Server{
		Addr:              addr,
		Handler:           newServer(cfg, logger).routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal(err)
	}
}

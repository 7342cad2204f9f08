// Package main is the entry point for the midikeys API server
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/cpayne/midikeys/pkg/api"
	"github.com/cpayne/midikeys/pkg/session"
	"github.com/cpayne/midikeys/pkg/sink"
)

func main() {
	port := flag.Int("port", 8080, "Server port")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctl := session.New(sink.NewWriter(os.Stdout), session.WithLogger(logger))

	fmt.Printf("Starting midikeys API server on port %d...\n", *port)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", *port)

	if err := api.NewServer(ctl).Start(*port); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

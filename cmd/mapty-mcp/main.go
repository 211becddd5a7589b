package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	maptymcp "github.com/claude/mapty/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("url", "", "mapty server URL (e.g. https://mapty.tail1234.ts.net)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println(Version)
		return
	}
	if *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: mapty-mcp -url https://mapty.example.ts.net\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// stdout carries the MCP protocol, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	s := maptymcp.New(maptymcp.NewHTTPClient(*serverURL), Version, log)
	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}

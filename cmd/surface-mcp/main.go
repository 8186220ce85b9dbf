package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/renderease/surface-tools/internal/pipeline"
	"github.com/renderease/surface-tools/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("surface-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("surface-mcp - MCP server for surface segmentation and retexturing")
			fmt.Println()
			fmt.Println("Usage: surface-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  SURFACE_MCP_LOG_LEVEL=debug      Enable debug logging")
			fmt.Println("  SURFACE_MCP_OUTPUT_DIR=<dir>     Directory for composited results (default: cwd)")
			fmt.Println("  SURFACE_MCP_SAVE_INTERMEDIATES=1 Also save masks and warped textures")
			fmt.Println("  SURFACE_MCP_SEMANTIC_MODEL       Path to a semantic segmentation ONNX model")
			fmt.Println("  SURFACE_MCP_PROMPT_ENCODER       Path to a promptable segmentation encoder model")
			fmt.Println("  SURFACE_MCP_PROMPT_DECODER       Path to a promptable segmentation decoder model")
			fmt.Println("  SURFACE_MCP_ONNX_LIB             Path to the ONNX Runtime shared library")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Logging goes to stderr; stdout carries the MCP protocol.
	level := zerolog.InfoLevel
	if os.Getenv("SURFACE_MCP_LOG_LEVEL") == "debug" {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	log.Debug().Str("version", Version).Str("built", BuildTime).Str("commit", GitCommit).
		Msg("surface-mcp starting")

	orch := pipeline.New(pipeline.Config{
		OutputDir:             os.Getenv("SURFACE_MCP_OUTPUT_DIR"),
		SaveIntermediates:     os.Getenv("SURFACE_MCP_SAVE_INTERMEDIATES") == "1",
		SemanticModelPath:     os.Getenv("SURFACE_MCP_SEMANTIC_MODEL"),
		PromptableEncoderPath: os.Getenv("SURFACE_MCP_PROMPT_ENCODER"),
		PromptableDecoderPath: os.Getenv("SURFACE_MCP_PROMPT_DECODER"),
		OnnxLibraryPath:       os.Getenv("SURFACE_MCP_ONNX_LIB"),
		Logger:                log,
	})
	defer orch.Close()

	srv := server.New("surface-tools-mcp", Version, orch, log)
	if err := srv.Run(os.Stdin, os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

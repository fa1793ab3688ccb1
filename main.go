// namaste-memory-server hosts the Namaste memory game over WebSocket.
//
// Usage:
//
//	namaste-memory [serve]           - Start the game server
//	namaste-memory deck --seed 42    - Print a shuffled deck and check its integrity
//
// Global flags:
//
//	--config <path>  - Config file (.json, .yaml); defaults to ./config.json or ./config.yaml
//	--port <n>       - Listen port
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	flagConfigPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "namaste-memory",
	Short: "Namaste memory game server",
	Long: `Server for the Namaste memory game: twelve cards, six pairs of yoga terms,
three errors allowed.

Available commands:
  serve  - Start the WebSocket and HTTP server
  deck   - Print a shuffled deck

Examples:
  namaste-memory serve --port 8080
  namaste-memory deck --seed 7`,
	SilenceUsage: true,
	// Without a subcommand the server starts.
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Config file path (.json, .yaml)")
	rootCmd.PersistentFlags().IntVar(&flagPort, "port", 0, "Listen port (overrides WS_PORT and the config file)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(deckCmd)
}

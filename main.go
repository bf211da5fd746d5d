package main

import (
	"fmt"
	"os"
	"path/filepath"

	"fjacquet/case-categorizer/cmd/batch"
	"fjacquet/case-categorizer/cmd/categorize"
	"fjacquet/case-categorizer/cmd/root"
	"fjacquet/case-categorizer/cmd/serve"
	"fjacquet/case-categorizer/cmd/taxonomy"

	"github.com/joho/godotenv"
)

func init() {
	// Environment first so API keys and LOG_LEVEL reach the configuration.
	loadEnvSilently()

	root.Init()

	root.Cmd.AddCommand(categorize.Cmd)
	root.Cmd.AddCommand(batch.Cmd)
	root.Cmd.AddCommand(taxonomy.Cmd)
	root.Cmd.AddCommand(serve.Cmd)
}

// loadEnvSilently loads a .env file from the working or parent directory
// without logging anything.
func loadEnvSilently() {
	envFile := ".env"
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		envFile = filepath.Join("..", ".env")
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			return
		}
	}
	_ = godotenv.Load(envFile)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

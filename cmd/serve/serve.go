// Package serve handles the HTTP API command
package serve

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"fjacquet/case-categorizer/cmd/root"
	"fjacquet/case-categorizer/internal/config"
	"fjacquet/case-categorizer/internal/server"
)

var addressFlag string

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the categorization API over HTTP",
	Long: `Start the HTTP API used by the web front end: taxonomy management, case file
upload, categorization and export. The server stops gracefully on interrupt.

Example:
  case-categorizer serve --address :8000`,
	RunE: serveFunc,
}

func init() {
	Cmd.Flags().StringVarP(&addressFlag, "address", "a", "", "Listen address (default from config, :8000)")
}

func serveFunc(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	if c == nil {
		return errors.New("container not initialized")
	}

	ctx, cancel := root.SignalContext(cmd.Context())
	defer cancel()

	return Run(ctx, c.NewServer(), Address(addressFlag, c.GetConfig()))
}

// Address picks the listen address: the flag, then the configuration, then
// the default port.
func Address(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	if cfg != nil && cfg.Server.Address != "" {
		return cfg.Server.Address
	}
	return ":8000"
}

// Run serves until ctx is cancelled.
func Run(ctx context.Context, srv *server.Server, addr string) error {
	root.Log.Info("Case categorizer API listening on " + addr)
	return srv.ListenAndServe(ctx, addr)
}

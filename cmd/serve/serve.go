// Package serve runs the HTTP API.
package serve

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"fjacquet/bankflow/cmd/root"
	"fjacquet/bankflow/internal/api"
	"fjacquet/bankflow/internal/logging"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var (
	address   string
	bodyLimit int
)

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the import and categorization HTTP API",
	Long: `Serve the HTTP API: CSV import, transaction listing, corrections,
recategorization, pattern management and the category tree.`,
	RunE: serveFunc,
}

func init() {
	Cmd.Flags().StringVarP(&address, "address", "a", "", "Listen address (default: server.address)")
	Cmd.Flags().IntVar(&bodyLimit, "body-limit", 32<<20, "Maximum request body size in bytes")
}

func serveFunc(cmd *cobra.Command, args []string) error {
	c, err := root.Container()
	if err != nil {
		return err
	}
	logger := c.GetLogger()

	addr := address
	if addr == "" {
		addr = c.GetConfig().Server.Address
	}

	handler := api.NewHandler(c.GetImporter(), c.GetRecategorizer(), c.GetStore(), logger)
	app := api.NewApp(handler, bodyLimit)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", logging.F("address", addr))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

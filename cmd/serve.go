package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/civita/urbanaccess/internal/export"
	"github.com/civita/urbanaccess/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Compute the city's indicators and serve them over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		comp, err := computeCity(ctx)
		if err != nil {
			return err
		}

		city := cityMeta()
		srv := server.New(server.Results{
			Menu:      export.Menu(city, comp.types),
			Records:   export.ZoneRecords(comp.zoneKPI, city.JoinField, cfg.Export.Precision),
			Surfaces:  comp.surfaces,
			Positions: comp.grid.ActivePositions(),
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		return srv.ListenAndServe(ctx, port)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var gridOut string

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Build the evaluation grid for the configured city",
	RunE: func(cmd *cobra.Command, args []string) error {
		layer, err := loadZones()
		if err != nil {
			return err
		}
		g, err := buildGrid(layer)
		if err != nil {
			return err
		}

		if gridOut == "" {
			return nil
		}

		type gridPoint struct {
			Lat    float64 `json:"lat"`
			Lon    float64 `json:"lon"`
			ZoneID string  `json:"zone_id"`
		}
		active := g.Active()
		out := make([]gridPoint, len(active))
		for i, pt := range active {
			out[i] = gridPoint{Lat: pt.Pos.Lat, Lon: pt.Pos.Lon, ZoneID: pt.ZoneID}
		}

		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return eris.Wrap(err, "encode grid points")
		}
		if err := os.WriteFile(gridOut, data, 0o644); err != nil {
			return eris.Wrapf(err, "write %s", gridOut)
		}
		cmd.Printf("wrote %d active points to %s\n", len(out), gridOut)
		return nil
	},
}

func init() {
	gridCmd.Flags().StringVar(&gridOut, "out", "", "write active grid points as JSON to this path")
	rootCmd.AddCommand(gridCmd)
}

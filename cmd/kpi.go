package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civita/urbanaccess/internal/export"
)

var (
	kpiNoExport bool
	kpiSave     bool
)

var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "Compute zone accessibility indicators for the configured city",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		comp, err := computeCity(ctx)
		if err != nil {
			return err
		}

		if !kpiNoExport {
			city := cityMeta()
			menu := export.Menu(city, comp.types)
			records := export.ZoneRecords(comp.zoneKPI, city.JoinField, cfg.Export.Precision)
			if err := export.WriteAll(cfg.Export.Dir, city, menu, records); err != nil {
				return err
			}
		}

		if kpiSave {
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(ctx); err != nil {
				return err
			}

			run, err := st.CreateRun(ctx, cfg.City.Name)
			if err != nil {
				return err
			}
			if err := st.SaveZoneKPIs(ctx, run.ID, comp.zoneKPI); err != nil {
				if failErr := st.FailRun(ctx, run.ID, err); failErr != nil {
					zap.L().Error("mark run failed", zap.Error(failErr))
				}
				return err
			}
			if err := st.CompleteRun(ctx, run.ID); err != nil {
				return err
			}
			zap.L().Info("run persisted", zap.String("run_id", run.ID))
		}

		cmd.Printf("computed %d services over %d zones\n", len(comp.types), len(comp.layer.Zones()))
		return nil
	},
}

func init() {
	kpiCmd.Flags().BoolVar(&kpiNoExport, "no-export", false, "skip writing the visualization bundle")
	kpiCmd.Flags().BoolVar(&kpiSave, "save", false, "persist the run and its indicators to the store")
	rootCmd.AddCommand(kpiCmd)
}

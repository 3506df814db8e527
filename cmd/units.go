package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/civita/urbanaccess/internal/access"
)

var unitsCmd = &cobra.Command{
	Use:   "units <service>",
	Short: "Load and summarize service units for one service type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := access.ParseServiceType(args[0])
		if err != nil {
			return err
		}
		svc, ok := cfg.City.Services[args[0]]
		if !ok {
			return eris.Errorf("service %s not configured for %s", args[0], cfg.City.Name)
		}

		coll, err := loadCollection(cmd.Context(), st, svc)
		if err != nil {
			return err
		}

		var meanScale float64
		for _, u := range coll.Units() {
			meanScale += u.Scale
		}
		meanScale /= float64(len(coll.Units()))

		cmd.Printf("%s (%s, %s)\n", st.Label(), st.Area(), st.DataSource())
		cmd.Printf("  units:        %d\n", len(coll.Units()))
		cmd.Printf("  profiles:     %d\n", coll.Profiles())
		cmd.Printf("  mean scale:   %.3f km\n", meanScale)
		cmd.Printf("  age groups:   ")
		for i, g := range coll.AgeGroups() {
			if i > 0 {
				cmd.Printf(", ")
			}
			cmd.Printf("%s", g)
		}
		cmd.Printf("\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(unitsCmd)
}

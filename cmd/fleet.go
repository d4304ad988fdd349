package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/omnidispatch/core/geo"
	"github.com/kilianp07/omnidispatch/core/model"
	"github.com/kilianp07/omnidispatch/core/responder"
)

var fleetOpts struct{ lat, lng float64 }

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Print the responder fleet placed around a location",
	Args:  cobra.NoArgs,
	RunE:  runFleet,
}

func init() {
	fleetCmd.Flags().Float64Var(&fleetOpts.lat, "lat", model.DefaultLocation.Lat, "origin latitude")
	fleetCmd.Flags().Float64Var(&fleetOpts.lng, "lng", model.DefaultLocation.Lng, "origin longitude")
	rootCmd.AddCommand(fleetCmd)
}

func runFleet(cmd *cobra.Command, _ []string) error {
	origin := model.Location{Lat: fleetOpts.lat, Lng: fleetOpts.lng}
	units := responder.NewRegistry(nil).InitializeFleet(origin)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tUNIT\tSTATION\tLAT\tLNG\tKM\tETA")
	for _, u := range units {
		d := geo.DistanceKm(origin, u.Position())
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.4f\t%.4f\t%.2f\t%d\n",
			u.ID, u.Category, u.Name, u.Station, u.Lat, u.Lng, geo.Round2(d), geo.ETAMinutes(d, u.Category))
	}
	return w.Flush()
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/omnidispatch/app"
	"github.com/kilianp07/omnidispatch/config"
	"github.com/kilianp07/omnidispatch/core/dispatch"
	"github.com/kilianp07/omnidispatch/core/model"
)

var reportOpts struct {
	lat, lng float64
	session  string
	timeout  time.Duration
}

var reportCmd = &cobra.Command{
	Use:   "report <transcript> [follow-up...]",
	Short: "Submit caller messages to an in-process engine and print the outcomes",
	Long: "Each argument is one caller message of the same call. Transports and metrics " +
		"are disabled; configured AI, places and the decision log are used.",
	Args: cobra.MinimumNArgs(1),
	RunE: runReport,
}

func init() {
	f := reportCmd.Flags()
	f.Float64Var(&reportOpts.lat, "lat", model.DefaultLocation.Lat, "caller latitude")
	f.Float64Var(&reportOpts.lng, "lng", model.DefaultLocation.Lng, "caller longitude")
	f.StringVar(&reportOpts.session, "session", "", "session id (generated when empty)")
	f.DurationVar(&reportOpts.timeout, "timeout", time.Minute, "overall deadline")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.MQTT.Enabled = false
	cfg.Metrics.PrometheusEnabled = false
	cfg.Metrics.InfluxEnabled = false

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), reportOpts.timeout)
	defer cancel()

	session := reportOpts.session
	if session == "" {
		session = svc.Engine.Sessions().NewID()
	}
	loc := model.Location{Lat: reportOpts.lat, Lng: reportOpts.lng}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	for _, text := range args {
		out, err := svc.Engine.Submit(ctx, dispatch.Report{SessionID: session, Transcript: text, Location: &loc})
		if err != nil {
			return err
		}
		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	return nil
}

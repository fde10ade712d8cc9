package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/vlbi-planner/core"
	"github.com/signalsfoundry/vlbi-planner/internal/logging"
)

var validateCmd = &cobra.Command{
	Use:   "validate <observation.json>",
	Short: "Validate an observation definition",
	Long:  "Loads an observation from JSON and checks entity definitions, telescope availability, and scan overlap.",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx, span := otel.Tracer("vlbiplan").Start(cmd.Context(), "validate")
	defer span.End()

	path := args[0]
	span.SetAttributes(attribute.String("observation.path", path))

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read observation: %w", err)
	}

	var obs core.Observation
	if err := json.Unmarshal(raw, &obs); err != nil {
		return fmt.Errorf("decode observation: %w", err)
	}

	log.Info(ctx, "observation loaded",
		logging.String("code", obs.Code()),
		logging.Int("sources", obs.Sources().Len()),
		logging.Int("telescopes", obs.Telescopes().Len()),
		logging.Int("frequencies", obs.Frequencies().Len()),
		logging.Int("scans", obs.Scans().Len()))

	if err := obs.Validate(); err != nil {
		log.Warn(ctx, "observation failed validation", logging.Err(err))
		fmt.Fprintf(cmd.ErrOrStderr(), "INVALID: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "OK: observation %q is valid\n", obs.Code())
	return nil
}

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/inference-sim/cloudsim/sim"
	"github.com/inference-sim/cloudsim/sim/cluster"
	_ "github.com/inference-sim/cloudsim/sim/engine"
	_ "github.com/inference-sim/cloudsim/sim/network"
	"github.com/inference-sim/cloudsim/sim/trace"
)

var (
	scenarioPath string // YAML scenario file
	policyName   string // Allocation policy overriding the scenario's
	exportPath   string // CSV export path, empty to skip export
	logLevel     string // Log verbosity level
	traceLevel   string // Placement decision trace verbosity

	// appFs is the filesystem scenarios are read from and results written to.
	appFs afero.Fs = afero.NewOsFs()
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "cloudsim",
	Short: "Discrete-event simulator for VM placement in datacenters",
}

// runCmd loads a scenario, runs it and prints the results
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation scenario",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if !sim.IsValidAllocationPolicy(policyName) {
			logrus.Fatalf("Unknown allocation policy %q. Valid: simple, best-fit", policyName)
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Unknown trace level %q. Valid: none, decisions", traceLevel)
		}

		sc, err := sim.LoadScenario(appFs, scenarioPath)
		if err != nil {
			logrus.Fatalf("Failed to load scenario: %v", err)
		}
		policy := sc.Policy
		if cmd.Flags().Changed("policy") {
			policy = policyName
		}
		kind, err := sim.ParseAllocationKind(policy)
		if err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}

		opts := []cluster.Option{cluster.WithFs(appFs), cluster.WithTraceLevel(trace.TraceLevel(traceLevel))}
		if exportPath != "" {
			opts = append(opts, cluster.WithExportPath(exportPath))
		}
		o, err := cluster.New(opts...)
		if err != nil {
			logrus.Fatalf("Failed to create orchestrator: %v", err)
		}
		if err := o.LoadScenario(sc); err != nil {
			logrus.Fatalf("Failed to build scenario: %v", err)
		}

		rs, err := o.Run(kind)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}

		out := cmd.OutOrStdout()
		printResults(out, rs)
		printHosts(out, o.Registry().Hosts())
		printPlacements(out, o)

		if exportPath != "" {
			path := o.ExportResults()
			if strings.HasPrefix(path, "Error: ") {
				logrus.Fatalf("Export failed: %s", path)
			}
			fmt.Fprintf(out, "Results written to %s\n", path)
		}
		logrus.Info("Simulation complete.")
	},
}

// validateCmd checks a scenario without running it
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a simulation scenario",
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := sim.LoadScenario(appFs, scenarioPath)
		if err != nil {
			return err
		}
		if err := sc.Validate(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d datacenter(s), %d host group(s), %d vm group(s), %d cloudlet group(s), %d link(s))\n",
			scenarioPath, sc.Datacenters, len(sc.OrphanHosts)+len(sc.Hosts), len(sc.Vms), len(sc.Cloudlets), len(sc.Links))
		return nil
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to YAML scenario file")
	runCmd.Flags().StringVar(&policyName, "policy", "", "Allocation policy (simple, best-fit); overrides the scenario")
	runCmd.Flags().StringVar(&exportPath, "export", "", "Write results as CSV to this path")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Placement trace verbosity (none, decisions)")
	_ = runCmd.MarkFlagRequired("scenario")

	validateCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to YAML scenario file")
	_ = validateCmd.MarkFlagRequired("scenario")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}

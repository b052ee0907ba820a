// Package cli provides the precharge-sequencer command line interface.
//
// Command structure:
//
//	precharge-sequencer
//	├── size       # size a parallel contact array for a target current
//	├── precharge  # design the precharge resistor for the configured bus
//	├── presets    # list the built-in contact types
//	├── plot       # render the precharge envelope to a PNG
//	├── run        # start the sequencing daemon
//	├── replay     # step the sequencer through a recorded trace
//	└── tui        # interactive bench console against the simulator
//
// Every command reads the profile named by --config (defaults apply
// when the flag is empty) and takes its remaining inputs from flags.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sweeney/precharge-sequencer/internal/config"
	"github.com/sweeney/precharge-sequencer/internal/plot"
	"github.com/sweeney/precharge-sequencer/internal/precharge"
	"github.com/sweeney/precharge-sequencer/internal/report"
	"github.com/sweeney/precharge-sequencer/internal/sizing"
	"github.com/sweeney/precharge-sequencer/internal/tui"
)

var configFile string

// BuildCLI assembles the root command.
func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "precharge-sequencer",
		Short: "Contact sizing and precharge sequencing for high-current DC buses",
		Long: `precharge-sequencer sizes parallel contact arrays, designs the
precharge resistor for a capacitive bus, and runs the safety state
machine that closes the main contactor only after the bus capacitor
has charged through the resistor.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "profile file path (YAML)")

	rootCmd.AddCommand(buildSizeCommand())
	rootCmd.AddCommand(buildPrechargeCommand())
	rootCmd.AddCommand(buildPresetsCommand())
	rootCmd.AddCommand(buildPlotCommand())
	rootCmd.AddCommand(buildRunCommand())
	rootCmd.AddCommand(buildReplayCommand())
	rootCmd.AddCommand(buildTUICommand())

	return rootCmd
}

func buildSizeCommand() *cobra.Command {
	var (
		contact     string
		current     float64
		utilization float64
	)

	cmd := &cobra.Command{
		Use:   "size",
		Short: "Size a parallel contact array for a target current",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("contact") {
				p.Contact = config.ContactSpec{Preset: contact}
			}
			if cmd.Flags().Changed("current") {
				p.TargetCurrentA = current
			}
			if cmd.Flags().Changed("utilization") {
				p.Utilization = utilization
			}

			ct, err := p.ContactType()
			if err != nil {
				return err
			}
			if p.TargetCurrentA < 0 {
				return fmt.Errorf("target current %g A must not be negative", p.TargetCurrentA)
			}
			if p.Utilization <= 0 || p.Utilization > 1 {
				return fmt.Errorf("utilization %g must be in (0, 1]", p.Utilization)
			}

			rep := sizing.SizeContactArray(p.TargetCurrentA, ct, p.Utilization)
			fmt.Fprintln(cmd.OutOrStdout(), string(report.FormatSizing(ct, p.TargetCurrentA, p.Utilization, rep)))
			return nil
		},
	}

	cmd.Flags().StringVar(&contact, "contact", "", "contact preset (see 'presets')")
	cmd.Flags().Float64VarP(&current, "current", "I", 0, "target continuous current in A")
	cmd.Flags().Float64Var(&utilization, "utilization", sizing.DefaultUtilization, "derating fraction in (0, 1]")

	return cmd
}

func buildPrechargeCommand() *cobra.Command {
	var (
		busVoltage  float64
		capacitance float64
		inrushLimit float64
	)

	cmd := &cobra.Command{
		Use:   "precharge",
		Short: "Design the precharge resistor for the configured bus",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("bus-voltage") {
				p.Bus.VoltageV = busVoltage
			}
			if cmd.Flags().Changed("capacitance") {
				p.Bus.CapacitanceF = capacitance
			}
			if cmd.Flags().Changed("inrush-limit") {
				p.Bus.InrushLimitA = inrushLimit
			}
			if p.Bus.VoltageV <= 0 || p.Bus.CapacitanceF <= 0 || p.Bus.InrushLimitA <= 0 {
				return fmt.Errorf("bus voltage, capacitance and inrush limit must all be positive")
			}

			rep := precharge.Design(p.Bus.VoltageV, p.Bus.CapacitanceF, p.Bus.InrushLimitA)
			fmt.Fprintln(cmd.OutOrStdout(), string(report.FormatPrecharge(rep)))
			return nil
		},
	}

	cmd.Flags().Float64VarP(&busVoltage, "bus-voltage", "V", 0, "bus voltage in V")
	cmd.Flags().Float64VarP(&capacitance, "capacitance", "C", 0, "bus capacitance in F")
	cmd.Flags().Float64VarP(&inrushLimit, "inrush-limit", "L", 0, "maximum inrush current in A")

	return cmd
}

func buildPresetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the built-in contact types",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-10s %-12s %12s %14s %18s\n",
				"PRESET", "NAME", "RATING (A)", "RESIST (mΩ)", "THERMAL (°C/W)")
			for _, name := range sizing.PresetNames() {
				ct, _ := sizing.Preset(name)
				fmt.Fprintf(w, "%-10s %-12s %12g %14g %18g\n",
					name, ct.Name, ct.MaxContinuousCurrent, ct.ResistanceMilliohm, ct.ThermalRiseCPerW)
			}
			return nil
		},
	}
}

func buildPlotCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render the precharge envelope to a PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.Load(configFile)
			if err != nil {
				return err
			}
			circuit, err := p.PrechargeConfig()
			if err != nil {
				return err
			}
			if err := plot.Render(circuit, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "envelope.png", "output PNG path")

	return cmd
}

func buildTUICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Interactive bench console against the simulated source",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.Load(configFile)
			if err != nil {
				return err
			}
			circuit, err := p.PrechargeConfig()
			if err != nil {
				return err
			}
			return tui.Run(circuit)
		},
	}
}

package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
	"github.com/ogulcanaydogan/SafetyRing/pkg/risk"
	"github.com/spf13/cobra"
)

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Inspect and control the experimental (risky) channel",
}

var riskStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show usage, tier and warnings",
	RunE:  runRiskStatus,
}

var riskEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Accept the disclaimer and enable the risky channel for 24 hours",
	RunE:  runRiskEnable,
}

var riskDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Withdraw consent for the risky channel",
	RunE:  runRiskDisable,
}

var riskResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the usage counter",
	RunE:  runRiskReset,
}

func init() {
	rootCmd.AddCommand(riskCmd)
	riskCmd.AddCommand(riskStatusCmd)
	riskCmd.AddCommand(riskEnableCmd)
	riskCmd.AddCommand(riskDisableCmd)
	riskCmd.AddCommand(riskResetCmd)

	riskStatusCmd.Flags().Bool("warnings", false, "List every recorded warning")
	riskResetCmd.Flags().Bool("all", false, "Also clear consent and warnings")
}

func runRiskStatus(cmd *cobra.Command, _ []string) error {
	showWarnings, _ := cmd.Flags().GetBool("warnings")

	stores, err := openStores(cmd.Context())
	if err != nil {
		return err
	}
	defer stores.Close()

	stats := stores.Risk.Statistics()
	fmt.Printf("=== Risky Channel ===\n")
	fmt.Printf("Consent:    %s\n", colorBool(stats.ConsentGranted, "granted", "not granted"))
	fmt.Printf("Usable now: %s\n", colorBool(stores.Risk.Gate(), "yes", "no"))
	fmt.Printf("Usage:      %d\n", stats.UsageCount)
	if stats.LastUsedAt != nil {
		fmt.Printf("Last used:  %s\n", stats.LastUsedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Printf("Tier:       %s\n", colorTier(stats.Tier))
	fmt.Printf("            %s\n", risk.Description(stats.Tier))

	fmt.Printf("\nRecommendations:\n")
	for _, r := range risk.Recommendations(stats.UsageCount) {
		fmt.Printf("  - %s\n", r)
	}

	fmt.Printf("\nWarnings: %d (high %d, medium %d, low %d)\n", stats.WarningCount,
		stats.WarningsBySeverity[model.SeverityHigh],
		stats.WarningsBySeverity[model.SeverityMedium],
		stats.WarningsBySeverity[model.SeverityLow])

	if showWarnings && stats.WarningCount > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "  SEVERITY\tWHEN\tTEXT\n")
		for _, warn := range stores.Risk.State().Warnings {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", warn.Severity, warn.Timestamp.Local().Format("2006-01-02 15:04"), warn.Text)
		}
		w.Flush()
	}
	return nil
}

func runRiskEnable(cmd *cobra.Command, _ []string) error {
	stores, err := openStores(cmd.Context())
	if err != nil {
		return err
	}
	defer stores.Close()

	fmt.Println(yellow.Sprint("The experimental channel automates a messaging account. Heavy use may get that account suspended."))
	if err := stores.Risk.Enable(cmd.Context()); err != nil {
		return fmt.Errorf("enable risky channel: %w", err)
	}
	fmt.Println("Risky channel enabled for the next 24 hours.")
	return nil
}

func runRiskDisable(cmd *cobra.Command, _ []string) error {
	stores, err := openStores(cmd.Context())
	if err != nil {
		return err
	}
	defer stores.Close()

	if err := stores.Risk.Disable(cmd.Context()); err != nil {
		return fmt.Errorf("disable risky channel: %w", err)
	}
	fmt.Println("Risky channel disabled. Alerts use the primary channel.")
	return nil
}

func runRiskReset(cmd *cobra.Command, _ []string) error {
	all, _ := cmd.Flags().GetBool("all")

	stores, err := openStores(cmd.Context())
	if err != nil {
		return err
	}
	defer stores.Close()

	if all {
		err = stores.Risk.ResetAll(cmd.Context())
	} else {
		err = stores.Risk.ResetUsage(cmd.Context())
	}
	if err != nil {
		return fmt.Errorf("reset risk state: %w", err)
	}
	fmt.Println("Risk state reset.")
	return nil
}

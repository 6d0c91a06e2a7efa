package cli

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/ogulcanaydogan/SafetyRing/internal/server"
	"github.com/spf13/cobra"
)

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Arm an alert countdown on the running daemon",
	RunE:  runTrigger,
}

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel the armed countdown",
	RunE:  runCancel,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the daemon's alert state",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(triggerCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(statusCmd)

	triggerCmd.Flags().StringP("template", "t", "", "Template ID to send instead of the custom message")
}

func runTrigger(cmd *cobra.Command, _ []string) error {
	templateID, _ := cmd.Flags().GetString("template")

	path := "/api/v1/trigger"
	if templateID != "" {
		path += "?template=" + url.QueryEscape(templateID)
	}

	code, err := callAPI(cmd.Context(), http.MethodPost, path, nil)
	if err != nil {
		return err
	}
	if code == http.StatusConflict {
		fmt.Println(yellow.Sprint("An alert is already in progress."))
		return nil
	}
	fmt.Println(red.Sprint("Alert armed.") + " Run 'srg cancel' to stop it.")
	return nil
}

func runCancel(cmd *cobra.Command, _ []string) error {
	code, err := callAPI(cmd.Context(), http.MethodPost, "/api/v1/cancel", nil)
	if err != nil {
		return err
	}
	if code == http.StatusConflict {
		fmt.Println("No countdown to cancel.")
		return nil
	}
	fmt.Println(green.Sprint("Alert cancelled."))
	return nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	var st server.StatusResponse
	if _, err := callAPI(cmd.Context(), http.MethodGet, "/api/v1/status", &st); err != nil {
		return err
	}

	fmt.Printf("State:     %s\n", colorState(st.State))
	if st.RemainingSeconds > 0 {
		fmt.Printf("Remaining: %.0fs\n", st.RemainingSeconds)
	}
	if st.TemplateID != "" {
		fmt.Printf("Template:  %s\n", st.TemplateID)
	}
	fmt.Printf("Network:   %s\n", colorBool(st.Online, "online", "offline"))
	fmt.Printf("Pending:   %d\n", st.Pending)
	return nil
}

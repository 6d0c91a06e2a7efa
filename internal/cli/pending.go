package cli

import (
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Inspect alerts stored while offline",
}

var pendingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending alerts, oldest first",
	RunE:  runPendingList,
}

var pendingDrainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Ask the daemon to retry the oldest pending alert",
	RunE:  runPendingDrain,
}

func init() {
	rootCmd.AddCommand(pendingCmd)
	pendingCmd.AddCommand(pendingListCmd)
	pendingCmd.AddCommand(pendingDrainCmd)
}

func runPendingList(cmd *cobra.Command, _ []string) error {
	stores, err := openStores(cmd.Context())
	if err != nil {
		return err
	}
	defer stores.Close()

	pending := stores.Queue.List()
	if len(pending) == 0 {
		fmt.Println("No pending alerts.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "#\tCREATED\tMESSAGE\n")
	for i, p := range pending {
		fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, p.CreatedAt.Local().Format("2006-01-02 15:04:05"), truncate(p.Body, 70))
	}
	return w.Flush()
}

func runPendingDrain(cmd *cobra.Command, _ []string) error {
	var resp struct {
		Drained bool `json:"drained"`
		Pending int  `json:"pending"`
	}
	if _, err := callAPI(cmd.Context(), http.MethodPost, "/api/v1/pending/drain", &resp); err != nil {
		return err
	}
	if resp.Drained {
		fmt.Printf("%s (%d left)\n", green.Sprint("Retried one pending alert."), resp.Pending)
		return nil
	}
	fmt.Printf("Nothing drained (offline or queue empty, %d pending).\n", resp.Pending)
	return nil
}

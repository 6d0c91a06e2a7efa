package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
	"github.com/spf13/cobra"
)

var recipientsCmd = &cobra.Command{
	Use:   "recipients",
	Short: "Manage alert recipients",
}

var recipientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recipients",
	RunE:  runRecipientsList,
}

var recipientsAddCmd = &cobra.Command{
	Use:   "add <handle>",
	Short: "Add a recipient",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecipientsAdd,
}

var recipientsRemoveCmd = &cobra.Command{
	Use:   "remove <id|handle>",
	Short: "Remove a recipient",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecipientsRemove,
}

var recipientsToggleCmd = &cobra.Command{
	Use:   "toggle <id|handle>",
	Short: "Activate or deactivate a recipient",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecipientsToggle,
}

var recipientsConsentCmd = &cobra.Command{
	Use:   "consent [on|off]",
	Short: "Show or change global consent for sending alerts",
	Long: `Show or change global consent. Granting consent adds the emergency
service numbers (17, 15, 18) as recipients if they are missing.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runRecipientsConsent,
}

func init() {
	rootCmd.AddCommand(recipientsCmd)
	recipientsCmd.AddCommand(recipientsListCmd)
	recipientsCmd.AddCommand(recipientsAddCmd)
	recipientsCmd.AddCommand(recipientsRemoveCmd)
	recipientsCmd.AddCommand(recipientsToggleCmd)
	recipientsCmd.AddCommand(recipientsConsentCmd)

	recipientsAddCmd.Flags().StringP("name", "n", "", "Display name (default: the handle)")
	recipientsAddCmd.Flags().StringSliceP("channel", "c", []string{string(model.ChannelPrimary)}, "Channels in order of preference (primary, risky)")
	recipientsAddCmd.Flags().Bool("emergency", false, "Mark as an emergency contact")
}

func runRecipientsList(cmd *cobra.Command, _ []string) error {
	stores, err := openStores(cmd.Context())
	if err != nil {
		return err
	}
	defer stores.Close()

	all := stores.Recipients.All()
	fmt.Printf("Consent: %s\n\n", colorBool(stores.Recipients.Consent(), "granted", "not granted"))
	if len(all) == 0 {
		fmt.Println("No recipients. Use 'srg recipients add' to create one.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tNAME\tHANDLE\tCHANNELS\tACTIVE\tEMERGENCY\n")
	for _, r := range all {
		chans := make([]string, len(r.Channels))
		for i, c := range r.Channels {
			chans[i] = string(c)
		}
		emergency := ""
		if r.IsEmergencyContact {
			emergency = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.DisplayName, r.Handle, strings.Join(chans, ","), colorBool(r.Active, "yes", "no"), emergency)
	}
	return w.Flush()
}

func runRecipientsAdd(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	chanNames, _ := cmd.Flags().GetStringSlice("channel")
	emergency, _ := cmd.Flags().GetBool("emergency")

	chans := make([]model.Channel, 0, len(chanNames))
	for _, c := range chanNames {
		ch := model.Channel(strings.TrimSpace(c))
		if !ch.Valid() {
			return fmt.Errorf("unknown channel %q (want primary or risky)", c)
		}
		chans = append(chans, ch)
	}

	stores, err := openStores(cmd.Context())
	if err != nil {
		return err
	}
	defer stores.Close()

	r, err := stores.Recipients.Add(cmd.Context(), model.Recipient{
		Handle:             args[0],
		DisplayName:        name,
		Channels:           chans,
		Active:             true,
		IsEmergencyContact: emergency,
	})
	if err != nil {
		return fmt.Errorf("add recipient: %w", err)
	}

	fmt.Printf("Recipient added:\n")
	fmt.Printf("  ID:        %s\n", r.ID)
	fmt.Printf("  Name:      %s\n", r.DisplayName)
	fmt.Printf("  Handle:    %s\n", r.Handle)
	fmt.Printf("  Channel:   %s\n", r.PreferredChannel())
	if !stores.Recipients.Consent() {
		fmt.Println(yellow.Sprint("Consent is not granted yet. Run 'srg recipients consent on'."))
	}
	return nil
}

func runRecipientsRemove(cmd *cobra.Command, args []string) error {
	stores, err := openStores(cmd.Context())
	if err != nil {
		return err
	}
	defer stores.Close()

	r, ok := stores.Recipients.Find(args[0])
	if !ok {
		return fmt.Errorf("recipient %q not found", args[0])
	}
	if err := stores.Recipients.Remove(cmd.Context(), r.ID); err != nil {
		return fmt.Errorf("remove recipient: %w", err)
	}
	fmt.Printf("Recipient %s (%s) removed\n", r.DisplayName, r.Handle)
	return nil
}

func runRecipientsToggle(cmd *cobra.Command, args []string) error {
	stores, err := openStores(cmd.Context())
	if err != nil {
		return err
	}
	defer stores.Close()

	r, ok := stores.Recipients.Find(args[0])
	if !ok {
		return fmt.Errorf("recipient %q not found", args[0])
	}
	r, err = stores.Recipients.Toggle(cmd.Context(), r.ID)
	if err != nil {
		return fmt.Errorf("toggle recipient: %w", err)
	}
	fmt.Printf("Recipient %s is now %s\n", r.DisplayName, colorBool(r.Active, "active", "inactive"))
	return nil
}

func runRecipientsConsent(cmd *cobra.Command, args []string) error {
	stores, err := openStores(cmd.Context())
	if err != nil {
		return err
	}
	defer stores.Close()

	if len(args) == 0 {
		fmt.Printf("Consent: %s\n", colorBool(stores.Recipients.Consent(), "granted", "not granted"))
		return nil
	}

	var granted bool
	switch args[0] {
	case "on":
		granted = true
	case "off":
	default:
		return fmt.Errorf("consent must be on or off, got %q", args[0])
	}

	before := len(stores.Recipients.All())
	if err := stores.Recipients.SetConsent(cmd.Context(), granted); err != nil {
		return fmt.Errorf("set consent: %w", err)
	}
	fmt.Printf("Consent: %s\n", colorBool(granted, "granted", "not granted"))
	if added := len(stores.Recipients.All()) - before; added > 0 {
		fmt.Printf("Added %d emergency service numbers.\n", added)
	}
	return nil
}

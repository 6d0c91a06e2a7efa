package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage message templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates",
	RunE:  runTemplatesList,
}

var templatesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a template",
	Long: `Add a template. The body may use {ADDRESS}, {GPS}, {MAP_LINK} and {TIME},
plus any custom variable given with --var NAME=value.`,
	RunE: runTemplatesAdd,
}

var templatesToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Activate or deactivate a template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplatesToggle,
}

var templatesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplatesDelete,
}

var templatesCustomCmd = &cobra.Command{
	Use:   "custom [message]",
	Short: "Show or set the custom message sent by a plain trigger",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTemplatesCustom,
}

func init() {
	rootCmd.AddCommand(templatesCmd)
	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesAddCmd)
	templatesCmd.AddCommand(templatesToggleCmd)
	templatesCmd.AddCommand(templatesDeleteCmd)
	templatesCmd.AddCommand(templatesCustomCmd)

	templatesAddCmd.Flags().StringP("name", "n", "", "Template name")
	templatesAddCmd.Flags().StringP("body", "b", "", "Message body")
	templatesAddCmd.Flags().StringP("category", "c", string(model.CategoryCustom), "Category")
	templatesAddCmd.Flags().StringToString("var", nil, "Custom variable NAME=value (repeatable)")
	_ = templatesAddCmd.MarkFlagRequired("name")
	_ = templatesAddCmd.MarkFlagRequired("body")

	templatesCustomCmd.Flags().Bool("clear", false, "Clear the custom message")
}

func runTemplatesList(cmd *cobra.Command, _ []string) error {
	stores, err := openStores(cmd.Context())
	if err != nil {
		return err
	}
	defer stores.Close()

	list := stores.Templates.List()
	if len(list) == 0 {
		fmt.Println("No templates. Use 'srg templates add' to create one.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tNAME\tCATEGORY\tACTIVE\n")
	for _, t := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Category, colorBool(t.Active, "yes", "no"))
	}
	return w.Flush()
}

func runTemplatesAdd(cmd *cobra.Command, _ []string) error {
	name, _ := cmd.Flags().GetString("name")
	body, _ := cmd.Flags().GetString("body")
	category, _ := cmd.Flags().GetString("category")
	vars, _ := cmd.Flags().GetStringToString("var")

	stores, err := openStores(cmd.Context())
	if err != nil {
		return err
	}
	defer stores.Close()

	t, err := stores.Templates.Add(cmd.Context(), model.Template{
		Name:            name,
		Body:            body,
		Active:          true,
		Category:        model.Category(category),
		CustomVariables: vars,
	})
	if err != nil {
		return fmt.Errorf("add template: %w", err)
	}

	fmt.Printf("Template added:\n")
	fmt.Printf("  ID:        %s\n", t.ID)
	fmt.Printf("  Name:      %s\n", t.Name)
	fmt.Printf("  Category:  %s\n", t.Category)
	return nil
}

func runTemplatesToggle(cmd *cobra.Command, args []string) error {
	stores, err := openStores(cmd.Context())
	if err != nil {
		return err
	}
	defer stores.Close()

	t, err := stores.Templates.ToggleActive(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("toggle template: %w", err)
	}
	fmt.Printf("Template %s is now %s\n", t.ID, colorBool(t.Active, "active", "inactive"))
	return nil
}

func runTemplatesDelete(cmd *cobra.Command, args []string) error {
	stores, err := openStores(cmd.Context())
	if err != nil {
		return err
	}
	defer stores.Close()

	if err := stores.Templates.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	fmt.Printf("Template %s deleted\n", args[0])
	return nil
}

func runTemplatesCustom(cmd *cobra.Command, args []string) error {
	reset, _ := cmd.Flags().GetBool("clear")

	stores, err := openStores(cmd.Context())
	if err != nil {
		return err
	}
	defer stores.Close()

	switch {
	case reset:
		if err := stores.Templates.SetCustomMessage(cmd.Context(), ""); err != nil {
			return fmt.Errorf("clear custom message: %w", err)
		}
		fmt.Println("Custom message cleared; the default emergency text will be sent.")
	case len(args) == 1:
		if err := stores.Templates.SetCustomMessage(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("set custom message: %w", err)
		}
		fmt.Println("Custom message saved.")
	default:
		msg := stores.Templates.CustomMessage()
		if strings.TrimSpace(msg) == "" {
			fmt.Println(gray.Sprint("(not set, the default emergency text is sent)"))
			return nil
		}
		fmt.Println(msg)
	}
	return nil
}

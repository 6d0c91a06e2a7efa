package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ogulcanaydogan/SafetyRing/pkg/settings"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show and change alert preferences",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	RunE:  runSettingsShow,
}

var settingsCountdownCmd = &cobra.Command{
	Use:   "countdown <seconds>",
	Short: "Set the countdown before an alert is sent (1 to 10 seconds)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsCountdown,
}

var settingsExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the settings as JSON to a file or stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSettingsExport,
}

var settingsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the settings with a JSON export",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsImport,
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the factory settings",
	RunE:  runSettingsReset,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsCountdownCmd)
	settingsCmd.AddCommand(settingsExportCmd)
	settingsCmd.AddCommand(settingsImportCmd)
	settingsCmd.AddCommand(settingsResetCmd)
}

func printSettings(s settings.AlertSettings) error {
	out, err := yaml.Marshal(map[string]any{
		"countdown_seconds":        s.CountdownSeconds,
		"preferred_channel":        string(s.PreferredChannel),
		"enable_vibration":         s.EnableVibration,
		"enable_sound":             s.EnableSound,
		"enable_speech":            s.EnableSpeech,
		"alert_volume":             s.AlertVolume,
		"speech_rate":              s.SpeechRate,
		"speech_volume":            s.SpeechVolume,
		"enable_location_sharing":  s.EnableLocationSharing,
		"enable_emergency_numbers": s.EnableEmergencyNumbers,
	})
	if err != nil {
		return fmt.Errorf("format settings: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	stores, err := openStores(cmd.Context())
	if err != nil {
		return err
	}
	defer stores.Close()

	return printSettings(stores.Settings.Get())
}

func runSettingsCountdown(cmd *cobra.Command, args []string) error {
	secs, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid countdown %q: %w", args[0], err)
	}

	stores, err := openStores(cmd.Context())
	if err != nil {
		return err
	}
	defer stores.Close()

	s, err := stores.Settings.SetCountdown(cmd.Context(), secs)
	if err != nil {
		return err
	}
	if s.CountdownSeconds != secs {
		fmt.Println(yellow.Sprintf("Countdown clamped to %.1fs.", s.CountdownSeconds))
		return nil
	}
	fmt.Printf("Countdown set to %.1fs.\n", s.CountdownSeconds)
	return nil
}

func runSettingsExport(cmd *cobra.Command, args []string) error {
	stores, err := openStores(cmd.Context())
	if err != nil {
		return err
	}
	defer stores.Close()

	data, err := stores.Settings.Export()
	if err != nil {
		return fmt.Errorf("export settings: %w", err)
	}
	if len(args) == 0 {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(args[0], data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", args[0], err)
	}
	fmt.Printf("Settings written to %s\n", args[0])
	return nil
}

func runSettingsImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	stores, err := openStores(cmd.Context())
	if err != nil {
		return err
	}
	defer stores.Close()

	s, err := stores.Settings.Import(cmd.Context(), data)
	if err != nil {
		return err
	}
	fmt.Println("Settings imported:")
	return printSettings(s)
}

func runSettingsReset(cmd *cobra.Command, _ []string) error {
	stores, err := openStores(cmd.Context())
	if err != nil {
		return err
	}
	defer stores.Close()

	if _, err := stores.Settings.Reset(cmd.Context()); err != nil {
		return err
	}
	fmt.Println("Settings restored to defaults.")
	return nil
}

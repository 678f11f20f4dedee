package commands

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gerunddev/blockbridge/internal/styles"
)

const serviceName = "blockbridge"

// serviceFile returns where the service definition for goos lives and what
// it contains. The service runs "watch --plain dir".
func serviceFile(goos, home, execPath, dir string) (string, string, error) {
	switch goos {
	case "darwin":
		plistPath := filepath.Join(home, "Library", "LaunchAgents", "com."+serviceName+".plist")
		return plistPath, fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>com.%s</string>
	<key>ProgramArguments</key>
	<array>
		<string>%s</string>
		<string>watch</string>
		<string>--plain</string>
		<string>%s</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<true/>
	<key>StandardOutPath</key>
	<string>/tmp/%s.out.log</string>
	<key>StandardErrorPath</key>
	<string>/tmp/%s.err.log</string>
</dict>
</plist>
`, serviceName, execPath, dir, serviceName, serviceName), nil

	case "linux":
		servicePath := filepath.Join(home, ".config", "systemd", "user", serviceName+".service")
		return servicePath, fmt.Sprintf(`[Unit]
Description=blockbridge - push notes in %s to Notion
After=network-online.target

[Service]
Type=simple
ExecStart=%q watch --plain %q
Restart=always
RestartSec=10

[Install]
WantedBy=default.target
`, dir, execPath, dir), nil

	default:
		return "", "", fmt.Errorf("unsupported operating system: %s (supported: darwin, linux)", goos)
	}
}

func installCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install <dir>",
		Short: "Install a user service that watches a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			dir, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get home directory: %w", err)
			}
			// Get the full path to the blockbridge binary
			execPath, err := os.Executable()
			if err != nil {
				return fmt.Errorf("failed to get executable path: %w", err)
			}

			path, content, err := serviceFile(runtime.GOOS, home, execPath, dir)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fmt.Errorf("failed to create service directory: %w", err)
			}
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				return fmt.Errorf("failed to write service file: %w", err)
			}

			fmt.Fprintln(out, styles.SuccessStyle.Render("✓ Service file created: "+path))
			fmt.Fprintln(out)
			fmt.Fprintln(out, "To enable the service:")
			for _, line := range enableHints(runtime.GOOS, path) {
				fmt.Fprintln(out, styles.DimStyle.Render("  "+line))
			}
			return nil
		},
	}
}

func enableHints(goos, path string) []string {
	if goos == "darwin" {
		return []string{"launchctl load " + path}
	}
	return []string{
		"systemctl --user daemon-reload",
		"systemctl --user enable --now " + serviceName + ".service",
	}
}

func uninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the watch service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get home directory: %w", err)
			}
			path, _, err := serviceFile(runtime.GOOS, home, "", "")
			if err != nil {
				return err
			}

			if _, err := os.Stat(path); os.IsNotExist(err) {
				fmt.Fprintln(out, styles.WarningStyle.Render("⚠ Service file not found: "+path))
				fmt.Fprintln(out, "Nothing to uninstall.")
				return nil
			}

			// Stop the service first; it may not be loaded
			for _, args := range stopCommands(runtime.GOOS, path) {
				if err := exec.Command(args[0], args[1:]...).Run(); err != nil {
					fmt.Fprintln(out, styles.WarningStyle.Render("⚠ "+args[0]+" failed (service may not be running): "+err.Error()))
				}
			}

			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to remove service file: %w", err)
			}
			fmt.Fprintln(out, styles.SuccessStyle.Render("✓ Service file removed: "+path))
			return nil
		},
	}
}

func stopCommands(goos, path string) [][]string {
	if goos == "darwin" {
		return [][]string{{"launchctl", "unload", path}}
	}
	return [][]string{
		{"systemctl", "--user", "stop", serviceName + ".service"},
		{"systemctl", "--user", "disable", serviceName + ".service"},
	}
}

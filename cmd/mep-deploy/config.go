package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ConfigManager shows and edits the installed service configuration.
type ConfigManager struct {
	Target        string
	SSHUser       string
	SSHKey        string
	IdentityAgent string
}

// Show displays the current configuration.
func (c *ConfigManager) Show() error {
	exec := newExecutor(c.Target, c.SSHUser, c.SSHKey, c.IdentityAgent, false)

	fmt.Println("Current mepd configuration:")
	fmt.Println()

	fmt.Println("=== Service Configuration ===")
	serviceOutput, err := exec.RunSudo(fmt.Sprintf("cat %s", servicePath))
	if err != nil {
		return fmt.Errorf("failed to read service file: %w", err)
	}
	fmt.Println(serviceOutput)

	fmt.Println("\n=== Data Directory ===")
	dataInfo, err := exec.RunSudo(fmt.Sprintf("ls -lh %s/", dataDir))
	if err != nil {
		fmt.Printf("Warning: could not read data directory: %v\n", err)
	} else {
		fmt.Println(dataInfo)
	}

	fmt.Println("\n=== Service Status ===")
	statusOutput, err := exec.RunSudo(fmt.Sprintf("systemctl status %s --no-pager", serviceFile))
	if err != nil {
		fmt.Printf("Warning: could not get service status: %v\n", err)
	} else {
		fmt.Println(statusOutput)
	}

	fmt.Println("\n=== Recent Logs (last 10 lines) ===")
	logsOutput, err := exec.RunSudo(fmt.Sprintf("journalctl -u %s -n 10 --no-pager", serviceFile))
	if err != nil {
		fmt.Printf("Warning: could not read logs: %v\n", err)
	} else {
		fmt.Println(logsOutput)
	}

	return nil
}

// Edit allows editing the service ExecStart line interactively.
func (c *ConfigManager) Edit() error {
	exec := newExecutor(c.Target, c.SSHUser, c.SSHKey, c.IdentityAgent, false)

	fmt.Println("Interactive configuration editing")
	fmt.Println("==================================")
	fmt.Println()

	grepOutput, err := exec.RunSudo(fmt.Sprintf("grep '^ExecStart=' %s", servicePath))
	if err != nil {
		return fmt.Errorf("failed to read service file: %w", err)
	}

	currentExecStart := strings.TrimSpace(grepOutput)
	fmt.Printf("Current ExecStart:\n%s\n\n", currentExecStart)

	fmt.Println("Common configuration options:")
	fmt.Println("  -listen :PORT        Change API port (default: 8080)")
	fmt.Println("  -db PATH             Change item store path")
	fmt.Println("  -rack PATH           Load rack geometry from JSON")
	fmt.Println("  -tuning PATH         Load tuning config from JSON")
	fmt.Println("  -manifest-url URL    Notify a manifest webhook after writes")
	fmt.Println()
	fmt.Println("Example:")
	fmt.Printf("  ExecStart=%s -db %s -listen :8080 -rack %s/rack.json\n", installPath, storePath, dataDir)
	fmt.Println()
	fmt.Print("Enter new ExecStart line (or press Enter to keep current): ")

	reader := bufio.NewReader(os.Stdin)
	newExecStart, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	newExecStart = strings.TrimSpace(newExecStart)

	if newExecStart == "" {
		fmt.Println("No changes made")
		return nil
	}

	if !strings.HasPrefix(newExecStart, "ExecStart=") {
		newExecStart = "ExecStart=" + newExecStart
	}

	if err := validateExecStart(newExecStart); err != nil {
		return err
	}

	fmt.Println("\nUpdating service file...")

	contents, err := exec.RunSudo(fmt.Sprintf("cat %s", servicePath))
	if err != nil {
		return fmt.Errorf("failed to read service file: %w", err)
	}

	newContents, err := replaceExecStart(contents, newExecStart)
	if err != nil {
		return err
	}

	// Write to a temp file and move it into place
	tmpPath := "/tmp/" + serviceFile + ".tmp"
	if err := exec.WriteFile(tmpPath, newContents); err != nil {
		return fmt.Errorf("failed to write temporary service file: %w", err)
	}

	_, err = exec.RunSudo(fmt.Sprintf("mv %s %s", tmpPath, servicePath))
	if err != nil {
		return fmt.Errorf("failed to update service file: %w", err)
	}

	fmt.Println("Reloading systemd...")
	_, err = exec.RunSudo("systemctl daemon-reload")
	if err != nil {
		return fmt.Errorf("failed to reload systemd: %w", err)
	}

	fmt.Print("\nRestart service now to apply changes? [y/N]: ")
	var restart string
	fmt.Scanln(&restart)

	if strings.ToLower(restart) == "y" {
		fmt.Println("Restarting service...")
		_, err = exec.RunSudo(fmt.Sprintf("systemctl restart %s", serviceFile))
		if err != nil {
			return fmt.Errorf("failed to restart service: %w", err)
		}

		exec.Run("sleep 2")

		statusOutput, err := exec.RunSudo(fmt.Sprintf("systemctl is-active %s", serviceFile))
		if err != nil || strings.TrimSpace(statusOutput) != "active" {
			fmt.Println("⚠ Warning: Service may not have started properly")
			fmt.Println("Check status with: mep-deploy status")
			return nil
		}

		fmt.Println("  ✓ Service restarted successfully")
	} else {
		fmt.Println("Changes saved. Restart later with: sudo systemctl restart " + serviceFile)
	}

	return nil
}

// validateExecStart rejects ExecStart lines containing shell metacharacters,
// since the line is written into the unit file verbatim.
func validateExecStart(line string) error {
	if strings.ContainsAny(line, "|;&$`\\\"'") {
		return fmt.Errorf("invalid ExecStart line: contains disallowed characters")
	}
	return nil
}

// replaceExecStart swaps the ExecStart line in a unit file body.
func replaceExecStart(contents, newExecStart string) (string, error) {
	lines := strings.Split(contents, "\n")
	found := false
	for i, line := range lines {
		if strings.HasPrefix(line, "ExecStart=") {
			lines[i] = newExecStart
			found = true
			break
		}
	}
	if !found {
		return "", fmt.Errorf("ExecStart line not found in service file")
	}
	return strings.Join(lines, "\n"), nil
}

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Monitor handles status checking and health monitoring.
type Monitor struct {
	Target        string
	SSHUser       string
	SSHKey        string
	IdentityAgent string
	APIPort       int
}

// HealthStatus represents the health check result.
type HealthStatus struct {
	Healthy bool
	Message string
	Details string
}

// GetStatus returns the current service status.
func (m *Monitor) GetStatus() (string, error) {
	exec := newExecutor(m.Target, m.SSHUser, m.SSHKey, m.IdentityAgent, false)

	output, err := exec.RunSudo(fmt.Sprintf("systemctl status %s --no-pager", serviceFile))
	if err != nil {
		return "", fmt.Errorf("failed to get service status: %w", err)
	}

	return output, nil
}

// CheckHealth performs a comprehensive health check: systemd state, recent
// log errors, the item API, and the store file on disk.
func (m *Monitor) CheckHealth() (*HealthStatus, error) {
	exec := newExecutor(m.Target, m.SSHUser, m.SSHKey, m.IdentityAgent, false)

	health := &HealthStatus{
		Healthy: true,
	}

	var checks []string

	// Check 1: Service is running
	output, err := exec.RunSudo(fmt.Sprintf("systemctl is-active %s", serviceFile))
	if err != nil || strings.TrimSpace(output) != "active" {
		health.Healthy = false
		health.Message = "Service is not running"
		checks = append(checks, "✗ Service: NOT RUNNING")
	} else {
		checks = append(checks, "✓ Service: RUNNING")
	}

	// Check 2: Service has been up for some time (not crash-looping)
	uptimeOutput, err := exec.RunSudo(fmt.Sprintf("systemctl show %s --property=ActiveEnterTimestamp --value", serviceFile))
	if err == nil {
		checks = append(checks, fmt.Sprintf("✓ Started: %s", strings.TrimSpace(uptimeOutput)))
	}

	// Check 3: Check for recent errors in logs
	logsOutput, err := exec.RunSudo(fmt.Sprintf("journalctl -u %s -n 20 --no-pager", serviceFile))
	if err == nil {
		errorCount := strings.Count(strings.ToLower(logsOutput), "error")
		if errorCount > 5 {
			health.Healthy = false
			health.Message = fmt.Sprintf("Too many errors in logs (%d)", errorCount)
			checks = append(checks, fmt.Sprintf("✗ Logs: %d errors found", errorCount))
		} else {
			checks = append(checks, fmt.Sprintf("✓ Logs: %d errors (acceptable)", errorCount))
		}
	}

	// Check 4: Item API is responding
	itemsCheck, itemsOK := m.checkItemAPI()
	checks = append(checks, itemsCheck...)
	if !itemsOK {
		health.Healthy = false
		if health.Message == "" {
			health.Message = "Item API not responding"
		}
	}

	// Check 5: Item store file exists
	storeCheck, err := exec.RunSudo(fmt.Sprintf("test -f %s && echo 'exists' || echo 'missing'", storePath))
	if err == nil && strings.TrimSpace(storeCheck) == "exists" {
		sizeOutput, err := exec.RunSudo(fmt.Sprintf("du -h %s | cut -f1", storePath))
		if err == nil {
			checks = append(checks, fmt.Sprintf("✓ Store: %s", strings.TrimSpace(sizeOutput)))
		} else {
			checks = append(checks, "✓ Store: EXISTS")
		}
	} else {
		health.Healthy = false
		if health.Message == "" {
			health.Message = "Item store file not found"
		}
		checks = append(checks, "✗ Store: MISSING")
	}

	health.Details = strings.Join(checks, "\n")

	if health.Healthy {
		health.Message = "All checks passed"
	}

	return health, nil
}

// checkItemAPI queries /api/mep/items and summarizes the result.
func (m *Monitor) checkItemAPI() ([]string, bool) {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(m.itemsURL())
	if err != nil {
		return []string{"✗ API: NOT RESPONDING"}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return []string{fmt.Sprintf("✗ API: Status %d", resp.StatusCode)}, false
	}

	checks := []string{"✓ API: RESPONDING"}

	var items struct {
		Items    []json.RawMessage `json:"items"`
		Revision int64             `json:"revision"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&items); err == nil {
		checks = append(checks, fmt.Sprintf("  Items: %d (revision %d)", len(items.Items), items.Revision))
	}

	return checks, true
}

// itemsURL builds the item-list URL for the monitor's target host.
func (m *Monitor) itemsURL() string {
	host := m.Target
	if host == "" {
		host = "localhost"
	}
	// Strip a user@ prefix so SSH-style targets work here too
	if parts := strings.Split(host, "@"); len(parts) > 1 {
		host = parts[1]
	}

	port := m.APIPort
	if port == 0 {
		port = 8080
	}

	return fmt.Sprintf("http://%s:%d/api/mep/items", host, port)
}

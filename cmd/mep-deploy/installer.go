package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/abhipalit3/configur-mep/internal/deploy"
)

const (
	serviceName    = "mepd"
	serviceFile    = "mepd.service"
	servicePath    = "/etc/systemd/system/mepd.service"
	installPath    = "/usr/local/bin/mepd"
	dataDir        = "/var/lib/configur-mep"
	storePath      = "/var/lib/configur-mep/mep_items.db"
	backupRoot     = "/var/lib/configur-mep/backups"
	serviceUser    = "mep"
	serviceContent = `[Unit]
Description=Configur MEP layout service
After=network.target

[Service]
User=mep
Group=mep
Type=simple
ExecStart=/usr/local/bin/mepd -db /var/lib/configur-mep/mep_items.db -listen :8080
WorkingDirectory=/var/lib/configur-mep
Restart=on-failure
RestartSec=5
StandardOutput=journal
StandardError=journal
SyslogIdentifier=mepd

[Install]
WantedBy=multi-user.target
`
)

// Installer handles installation of the mepd service.
type Installer struct {
	Target        string
	SSHUser       string
	SSHKey        string
	IdentityAgent string
	BinaryPath    string
	DBPath        string
	DryRun        bool
}

// Install performs the installation.
func (i *Installer) Install() error {
	exec := newExecutor(i.Target, i.SSHUser, i.SSHKey, i.IdentityAgent, i.DryRun)

	fmt.Println("Starting installation of mepd...")

	if err := i.validateBinary(); err != nil {
		return fmt.Errorf("binary validation failed: %w", err)
	}

	if installed, err := i.checkExisting(exec); err != nil {
		return fmt.Errorf("failed to check existing installation: %w", err)
	} else if installed {
		fmt.Println("mepd is already installed. Use 'upgrade' command to update.")
		return nil
	}

	if err := i.createServiceUser(exec); err != nil {
		return fmt.Errorf("failed to create service user: %w", err)
	}

	if err := i.createDataDirectory(exec); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := i.installBinary(exec); err != nil {
		return fmt.Errorf("failed to install binary: %w", err)
	}

	if err := i.installService(exec); err != nil {
		return fmt.Errorf("failed to install service: %w", err)
	}

	if i.DBPath != "" {
		if err := i.migrateStore(exec); err != nil {
			return fmt.Errorf("failed to migrate item store: %w", err)
		}
	}

	if err := i.startService(exec); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}

	fmt.Println("\n✓ Installation completed successfully!")
	fmt.Println("\nUseful commands:")
	fmt.Println("  Check status:  mep-deploy status")
	fmt.Println("  Health check:  mep-deploy health")
	fmt.Println("  View logs:     sudo journalctl -u mepd.service -f")

	return nil
}

func (i *Installer) validateBinary() error {
	fmt.Printf("Validating binary: %s\n", i.BinaryPath)

	info, err := os.Stat(i.BinaryPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("binary not found: %s", i.BinaryPath)
	}
	if err != nil {
		return err
	}

	if info.Mode()&0111 == 0 {
		return fmt.Errorf("binary is not executable: %s", i.BinaryPath)
	}

	fmt.Println("  ✓ Binary validated")
	return nil
}

func (i *Installer) checkExisting(exec *deploy.Executor) (bool, error) {
	fmt.Println("Checking for existing installation...")

	output, err := exec.Run(fmt.Sprintf("test -f %s && echo 'exists' || echo 'not found'", servicePath))
	if err != nil {
		return false, err
	}

	if strings.TrimSpace(output) == "exists" {
		return true, nil
	}

	fmt.Println("  ✓ No existing installation found")
	return false, nil
}

func (i *Installer) createServiceUser(exec *deploy.Executor) error {
	fmt.Printf("Creating service user '%s'...\n", serviceUser)

	output, err := exec.Run(fmt.Sprintf("id %s 2>/dev/null && echo 'exists' || echo 'not found'", serviceUser))
	if err != nil {
		return err
	}

	if strings.Contains(output, "exists") {
		fmt.Printf("  ✓ User '%s' already exists\n", serviceUser)
		return nil
	}

	_, err = exec.RunSudo(fmt.Sprintf("useradd --system --no-create-home --shell /usr/sbin/nologin %s", serviceUser))
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("  ✓ User '%s' created\n", serviceUser)
	return nil
}

func (i *Installer) createDataDirectory(exec *deploy.Executor) error {
	fmt.Printf("Creating data directory: %s\n", dataDir)

	_, err := exec.RunSudo(fmt.Sprintf("mkdir -p %s && chown %s:%s %s", dataDir, serviceUser, serviceUser, dataDir))
	if err != nil {
		return err
	}

	fmt.Println("  ✓ Data directory created")
	return nil
}

func (i *Installer) installBinary(exec *deploy.Executor) error {
	fmt.Printf("Installing binary to %s...\n", installPath)

	if err := exec.CopyFile(i.BinaryPath, installPath); err != nil {
		return fmt.Errorf("failed to copy binary: %w", err)
	}

	_, err := exec.RunSudo(fmt.Sprintf("chown root:root %s && chmod 0755 %s", installPath, installPath))
	if err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	fmt.Println("  ✓ Binary installed")
	return nil
}

func (i *Installer) installService(exec *deploy.Executor) error {
	fmt.Println("Installing systemd service...")

	tempFile := "/tmp/" + serviceFile
	if err := exec.WriteFile(tempFile, serviceContent); err != nil {
		return fmt.Errorf("failed to write service file: %w", err)
	}

	_, err := exec.RunSudo(fmt.Sprintf("mv %s %s", tempFile, servicePath))
	if err != nil {
		return fmt.Errorf("failed to install service file: %w", err)
	}

	_, err = exec.RunSudo("systemctl daemon-reload")
	if err != nil {
		return fmt.Errorf("failed to reload systemd: %w", err)
	}

	_, err = exec.RunSudo(fmt.Sprintf("systemctl enable %s", serviceName))
	if err != nil {
		return fmt.Errorf("failed to enable service: %w", err)
	}

	fmt.Println("  ✓ Service installed and enabled")
	return nil
}

func (i *Installer) migrateStore(exec *deploy.Executor) error {
	fmt.Printf("Migrating item store from: %s\n", i.DBPath)

	if err := exec.CopyFile(i.DBPath, storePath); err != nil {
		return fmt.Errorf("failed to copy item store: %w", err)
	}

	_, err := exec.RunSudo(fmt.Sprintf("chown %s:%s %s", serviceUser, serviceUser, storePath))
	if err != nil {
		return fmt.Errorf("failed to set store ownership: %w", err)
	}

	fmt.Println("  ✓ Item store migrated")
	return nil
}

func (i *Installer) startService(exec *deploy.Executor) error {
	fmt.Printf("Starting %s service...\n", serviceName)

	_, err := exec.RunSudo(fmt.Sprintf("systemctl start %s", serviceName))
	if err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}

	exec.Run("sleep 2")

	output, err := exec.RunSudo(fmt.Sprintf("systemctl is-active %s", serviceName))
	if err != nil || strings.TrimSpace(output) != "active" {
		return fmt.Errorf("service failed to start properly")
	}

	fmt.Println("  ✓ Service started successfully")
	return nil
}

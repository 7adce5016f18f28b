package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abhipalit3/configur-mep/internal/deploy"
)

// Backup copies the installed binary, the item store, and the service
// file from the target into a timestamped local directory.
type Backup struct {
	Target        string
	SSHUser       string
	SSHKey        string
	IdentityAgent string
	OutputDir     string
}

// Execute performs the backup.
func (b *Backup) Execute() error {
	exec := newExecutor(b.Target, b.SSHUser, b.SSHKey, b.IdentityAgent, false)

	fmt.Println("Starting backup of mepd...")

	timestamp := time.Now().Format("20060102-150405")
	backupName := fmt.Sprintf("mepd-backup-%s", timestamp)

	// The backup directory is always local, even for remote targets
	localBackupDir := filepath.Join(b.OutputDir, backupName)
	if err := os.MkdirAll(localBackupDir, 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	fmt.Printf("Backup directory: %s\n", localBackupDir)

	if err := b.backupBinary(exec, localBackupDir); err != nil {
		return fmt.Errorf("failed to backup binary: %w", err)
	}

	if err := b.backupStore(exec, localBackupDir); err != nil {
		fmt.Printf("Warning: could not backup item store: %v\n", err)
	}

	if err := b.backupServiceFile(exec, localBackupDir); err != nil {
		fmt.Printf("Warning: could not backup service file: %v\n", err)
	}

	if err := b.createMetadata(exec, localBackupDir, timestamp); err != nil {
		fmt.Printf("Warning: could not create metadata: %v\n", err)
	}

	fmt.Printf("\n✓ Backup completed successfully!\n")
	fmt.Printf("Backup saved to: %s\n", localBackupDir)

	return nil
}

func (b *Backup) backupBinary(exec *deploy.Executor, backupDir string) error {
	fmt.Println("Backing up binary...")

	binaryDest := filepath.Join(backupDir, "mepd")

	if exec.IsLocal() {
		if _, err := exec.RunSudo(fmt.Sprintf("cp %s %s", installPath, binaryDest)); err != nil {
			return err
		}
		if _, err := exec.RunSudo(fmt.Sprintf("chmod 644 %s", binaryDest)); err != nil {
			return err
		}
	} else {
		// Stage a world-readable copy on the target, then pull it down
		if _, err := exec.RunSudo(fmt.Sprintf("cp %s /tmp/mepd-backup && chmod 644 /tmp/mepd-backup", installPath)); err != nil {
			return err
		}
		if err := b.pullFile(exec, "/tmp/mepd-backup", binaryDest); err != nil {
			return err
		}
		exec.Run("rm /tmp/mepd-backup")
	}

	fmt.Println("  ✓ Binary backed up")
	return nil
}

func (b *Backup) backupStore(exec *deploy.Executor, backupDir string) error {
	fmt.Println("Backing up item store...")

	checkOutput, err := exec.RunSudo(fmt.Sprintf("test -f %s && echo 'exists' || echo 'missing'", storePath))
	if err != nil || strings.TrimSpace(checkOutput) != "exists" {
		fmt.Println("  ⊘ No item store found")
		return nil
	}

	storeDest := filepath.Join(backupDir, "mep_items.db")

	if exec.IsLocal() {
		if _, err := exec.RunSudo(fmt.Sprintf("cp %s %s", storePath, storeDest)); err != nil {
			return err
		}
		if _, err := exec.RunSudo(fmt.Sprintf("chmod 644 %s", storeDest)); err != nil {
			return err
		}
	} else {
		if _, err := exec.RunSudo(fmt.Sprintf("cp %s /tmp/mep_items.db && chmod 644 /tmp/mep_items.db", storePath)); err != nil {
			return err
		}
		if err := b.pullFile(exec, "/tmp/mep_items.db", storeDest); err != nil {
			return err
		}
		exec.Run("rm /tmp/mep_items.db")
	}

	sizeOutput, _ := exec.Run(fmt.Sprintf("du -h %s | cut -f1", storeDest))
	fmt.Printf("  ✓ Item store backed up (%s)\n", strings.TrimSpace(sizeOutput))

	return nil
}

func (b *Backup) backupServiceFile(exec *deploy.Executor, backupDir string) error {
	fmt.Println("Backing up service file...")

	serviceDest := filepath.Join(backupDir, serviceFile)

	if exec.IsLocal() {
		if _, err := exec.RunSudo(fmt.Sprintf("cp %s %s", servicePath, serviceDest)); err != nil {
			return err
		}
		if _, err := exec.RunSudo(fmt.Sprintf("chmod 644 %s", serviceDest)); err != nil {
			return err
		}
	} else {
		tempPath := "/tmp/" + serviceFile
		if _, err := exec.RunSudo(fmt.Sprintf("cp %s %s && chmod 644 %s", servicePath, tempPath, tempPath)); err != nil {
			return err
		}
		if err := b.pullFile(exec, tempPath, serviceDest); err != nil {
			return err
		}
		exec.Run("rm " + tempPath)
	}

	fmt.Println("  ✓ Service file backed up")
	return nil
}

func (b *Backup) createMetadata(exec *deploy.Executor, backupDir, timestamp string) error {
	hostOutput, _ := exec.Run("hostname")
	versionOutput, _ := exec.Run(fmt.Sprintf("%s -version 2>&1 || true", installPath))

	metadata := fmt.Sprintf("Backup created: %s\nTarget: %s\nHostname: %s\nVersion: %s\n",
		timestamp, b.Target, strings.TrimSpace(hostOutput), strings.TrimSpace(versionOutput))

	metadataPath := filepath.Join(backupDir, "metadata.txt")
	return os.WriteFile(metadataPath, []byte(metadata), 0644)
}

// pullFile copies a staged file from the remote target into a local path.
func (b *Backup) pullFile(exec *deploy.Executor, remotePath, localDest string) error {
	scpArgs := []string{}
	if b.SSHKey != "" {
		scpArgs = append(scpArgs, "-i", b.SSHKey)
	}

	target := b.Target
	if b.SSHUser != "" && !strings.Contains(target, "@") {
		target = fmt.Sprintf("%s@%s", b.SSHUser, target)
	}

	local := newExecutor("localhost", "", "", "", false)
	args := append(scpArgs, fmt.Sprintf("%s:%s", target, remotePath), localDest)
	if _, err := local.Run(fmt.Sprintf("scp -o StrictHostKeyChecking=no %s", strings.Join(args, " "))); err != nil {
		return err
	}
	return nil
}

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/abhipalit3/configur-mep/internal/deploy"
	"github.com/abhipalit3/configur-mep/internal/version"
)

// DebugMode enables debug logging on the executors built by newExecutor.
var DebugMode bool

// debugLogger forwards executor debug lines to stderr when -debug is set.
type debugLogger struct{}

func (debugLogger) Debugf(format string, args ...interface{}) {
	if DebugMode {
		fmt.Fprintf(os.Stderr, "[debug] "+format+"\n", args...)
	}
}

func newExecutor(target, sshUser, sshKey, identityAgent string, dryRun bool) *deploy.Executor {
	e := deploy.NewExecutor(target, sshUser, sshKey, identityAgent, dryRun)
	e.SetLogger(debugLogger{})
	return e
}

// resolveTarget resolves SSH connection details for target, consulting
// ~/.ssh/config and falling back to the current user. Exits on error.
func resolveTarget(target, sshUser, sshKey string) (host, user, key, identityAgent string) {
	host, user, key, identityAgent, err := deploy.ResolveSSHTarget(target, sshUser, sshKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to resolve SSH config: %v\n", err)
		os.Exit(1)
	}
	if user == "" {
		user = os.Getenv("USER")
	}
	return host, user, key, identityAgent
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "install":
		handleInstall(args)
	case "upgrade":
		handleUpgrade(args)
	case "status":
		handleStatus(args)
	case "health":
		handleHealth(args)
	case "rollback":
		handleRollback(args)
	case "backup":
		handleBackup(args)
	case "config":
		handleConfig(args)
	case "version":
		fmt.Printf("mep-deploy %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`mep-deploy - Deployment manager for the mep daemon

Usage: mep-deploy <command> [options]

Commands:
  install    Install the mepd service on a host
  upgrade    Upgrade mepd to a newer version
  status     Check service status
  health     Perform health check on the running service
  rollback   Rollback to the previous version
  backup     Backup the item store and configuration
  config     Show or edit the service configuration
  version    Show mep-deploy version
  help       Show this help message

Common Flags:
  --target <host>      Target host (default: localhost)
                       Can be a hostname, IP, or SSH config host alias
  --ssh-user <user>    SSH user for remote deployment
                       Defaults to ~/.ssh/config or current user
  --ssh-key <path>     SSH private key path
                       Defaults to ~/.ssh/config
  --dry-run            Show what would be done without executing
  --debug              Enable debug logging

SSH Config Support:
  mep-deploy automatically reads ~/.ssh/config for host configuration.
  If a host is defined in your SSH config, the tool will use:
    - HostName (IP or domain)
    - User
    - IdentityFile (SSH key)

  Command-line flags override SSH config values.

Examples:
  # Install locally
  mep-deploy install --binary ./mepd-linux-arm64

  # Install using SSH config host alias
  mep-deploy install --target rackpi --binary ./mepd-linux-arm64

  # Check status using SSH config
  mep-deploy status --target rackpi

  # Upgrade local installation
  mep-deploy upgrade --binary ./mepd-linux-arm64

  # Health check on remote host
  mep-deploy health --target rackpi`)
}

func handleInstall(args []string) {
	fs := flag.NewFlagSet("install", flag.ExitOnError)
	target := fs.String("target", "localhost", "Target host for installation")
	sshUser := fs.String("ssh-user", "", "SSH user (defaults to ~/.ssh/config or current user)")
	sshKey := fs.String("ssh-key", "", "SSH private key path (defaults to ~/.ssh/config)")
	binaryPath := fs.String("binary", "", "Path to mepd binary (required)")
	dbPath := fs.String("db-path", "", "Path to an existing item store to migrate")
	dryRun := fs.Bool("dry-run", false, "Show what would be done")
	debug := fs.Bool("debug", false, "Enable debug logging")
	fs.Parse(args)

	DebugMode = *debug

	if *binaryPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --binary flag is required. Specify the path to the mepd binary (e.g., --binary ./mepd-linux-arm64)")
		fs.Usage()
		os.Exit(1)
	}

	host, user, key, agent := resolveTarget(*target, *sshUser, *sshKey)

	installer := &Installer{
		Target:        host,
		SSHUser:       user,
		SSHKey:        key,
		IdentityAgent: agent,
		BinaryPath:    *binaryPath,
		DBPath:        *dbPath,
		DryRun:        *dryRun,
	}

	if err := installer.Install(); err != nil {
		fmt.Fprintf(os.Stderr, "Installation failed: %v\n", err)
		os.Exit(1)
	}
}

func handleUpgrade(args []string) {
	fs := flag.NewFlagSet("upgrade", flag.ExitOnError)
	target := fs.String("target", "localhost", "Target host")
	sshUser := fs.String("ssh-user", "", "SSH user (defaults to ~/.ssh/config or current user)")
	sshKey := fs.String("ssh-key", "", "SSH private key path (defaults to ~/.ssh/config)")
	binaryPath := fs.String("binary", "", "Path to new mepd binary (required)")
	dryRun := fs.Bool("dry-run", false, "Show what would be done")
	noBackup := fs.Bool("no-backup", false, "Skip backup before upgrade")
	debug := fs.Bool("debug", false, "Enable debug logging")
	fs.Parse(args)

	DebugMode = *debug

	if *binaryPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --binary flag is required. Specify the path to the mepd binary (e.g., --binary ./mepd-linux-arm64)")
		fs.Usage()
		os.Exit(1)
	}

	host, user, key, agent := resolveTarget(*target, *sshUser, *sshKey)

	upgrader := &Upgrader{
		Target:        host,
		SSHUser:       user,
		SSHKey:        key,
		IdentityAgent: agent,
		BinaryPath:    *binaryPath,
		DryRun:        *dryRun,
		NoBackup:      *noBackup,
	}

	if err := upgrader.Upgrade(); err != nil {
		fmt.Fprintf(os.Stderr, "Upgrade failed: %v\n", err)
		os.Exit(1)
	}
}

func handleStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	target := fs.String("target", "localhost", "Target host")
	sshUser := fs.String("ssh-user", "", "SSH user (defaults to ~/.ssh/config or current user)")
	sshKey := fs.String("ssh-key", "", "SSH private key path (defaults to ~/.ssh/config)")
	apiPort := fs.Int("api-port", 8080, "API server port")
	debug := fs.Bool("debug", false, "Enable debug logging")
	fs.Parse(args)

	DebugMode = *debug

	host, user, key, agent := resolveTarget(*target, *sshUser, *sshKey)

	monitor := &Monitor{
		Target:        host,
		SSHUser:       user,
		SSHKey:        key,
		IdentityAgent: agent,
		APIPort:       *apiPort,
	}

	status, err := monitor.GetStatus()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get status: %v\n", err)
		os.Exit(1)
	}

	fmt.Print(status)
}

func handleHealth(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	target := fs.String("target", "localhost", "Target host")
	sshUser := fs.String("ssh-user", "", "SSH user (defaults to ~/.ssh/config or current user)")
	sshKey := fs.String("ssh-key", "", "SSH private key path (defaults to ~/.ssh/config)")
	apiPort := fs.Int("api-port", 8080, "API server port")
	debug := fs.Bool("debug", false, "Enable debug logging")
	fs.Parse(args)

	DebugMode = *debug

	host, user, key, agent := resolveTarget(*target, *sshUser, *sshKey)

	monitor := &Monitor{
		Target:        host,
		SSHUser:       user,
		SSHKey:        key,
		IdentityAgent: agent,
		APIPort:       *apiPort,
	}

	health, err := monitor.CheckHealth()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}

	if !health.Healthy {
		fmt.Printf("Service is UNHEALTHY: %s\n%s\n", health.Message, health.Details)
		os.Exit(1)
	}

	fmt.Printf("Service is HEALTHY\n%s\n", health.Details)
}

func handleRollback(args []string) {
	fs := flag.NewFlagSet("rollback", flag.ExitOnError)
	target := fs.String("target", "localhost", "Target host")
	sshUser := fs.String("ssh-user", "", "SSH user (defaults to ~/.ssh/config or current user)")
	sshKey := fs.String("ssh-key", "", "SSH private key path (defaults to ~/.ssh/config)")
	dryRun := fs.Bool("dry-run", false, "Show what would be done")
	debug := fs.Bool("debug", false, "Enable debug logging")
	fs.Parse(args)

	DebugMode = *debug

	host, user, key, agent := resolveTarget(*target, *sshUser, *sshKey)

	rollback := &Rollback{
		Target:        host,
		SSHUser:       user,
		SSHKey:        key,
		IdentityAgent: agent,
		DryRun:        *dryRun,
	}

	if err := rollback.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Rollback failed: %v\n", err)
		os.Exit(1)
	}
}

func handleBackup(args []string) {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	target := fs.String("target", "localhost", "Target host")
	sshUser := fs.String("ssh-user", "", "SSH user (defaults to ~/.ssh/config or current user)")
	sshKey := fs.String("ssh-key", "", "SSH private key path (defaults to ~/.ssh/config)")
	outputDir := fs.String("output", ".", "Output directory for backup")
	debug := fs.Bool("debug", false, "Enable debug logging")
	fs.Parse(args)

	DebugMode = *debug

	host, user, key, agent := resolveTarget(*target, *sshUser, *sshKey)

	backup := &Backup{
		Target:        host,
		SSHUser:       user,
		SSHKey:        key,
		IdentityAgent: agent,
		OutputDir:     *outputDir,
	}

	if err := backup.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Backup failed: %v\n", err)
		os.Exit(1)
	}
}

func handleConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	target := fs.String("target", "localhost", "Target host")
	sshUser := fs.String("ssh-user", "", "SSH user (defaults to ~/.ssh/config or current user)")
	sshKey := fs.String("ssh-key", "", "SSH private key path (defaults to ~/.ssh/config)")
	show := fs.Bool("show", false, "Show current configuration")
	edit := fs.Bool("edit", false, "Edit configuration")
	debug := fs.Bool("debug", false, "Enable debug logging")
	fs.Parse(args)

	DebugMode = *debug

	host, user, key, agent := resolveTarget(*target, *sshUser, *sshKey)

	cfg := &ConfigManager{
		Target:        host,
		SSHUser:       user,
		SSHKey:        key,
		IdentityAgent: agent,
	}

	switch {
	case *show:
		if err := cfg.Show(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to show config: %v\n", err)
			os.Exit(1)
		}
	case *edit:
		if err := cfg.Edit(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to edit config: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "Use --show or --edit flag")
		fs.Usage()
		os.Exit(1)
	}
}

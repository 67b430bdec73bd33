package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"vultrdns"
)

const (
	serviceName = "vultr-dns-updater"
	systemdDir  = "/etc/systemd/system"
)

func cmdService(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: vultr-dns service <install|uninstall|status>")
	}
	switch sub, rest := args[0], args[1:]; sub {
	case "install":
		return serviceInstall(rest)
	case "uninstall":
		return serviceUninstall(rest)
	case "status":
		return serviceStatus(rest)
	default:
		return fmt.Errorf("unknown service command %q (want install, uninstall, or status)", sub)
	}
}

func serviceUnit(username, configPath, executable string) string {
	return fmt.Sprintf(`[Unit]
Description=Vultr DNS Updater
After=network-online.target
Wants=network-online.target

[Service]
Type=oneshot
User=%s
ExecStart=%s update --config %s

[Install]
WantedBy=multi-user.target
`, username, executable, configPath)
}

func timerUnit(interval int) string {
	return fmt.Sprintf(`[Unit]
Description=Run Vultr DNS Updater every %d minutes

[Timer]
OnBootSec=1min
OnUnitActiveSec=%dmin
Persistent=true

[Install]
WantedBy=timers.target
`, interval, interval)
}

func runSudo(args ...string) error {
	cmd := exec.Command("sudo", args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func runSystemctl(useSudo bool, args ...string) error {
	if useSudo {
		return runSudo(append([]string{"systemctl"}, args...)...)
	}
	cmd := exec.Command("systemctl", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func serviceInstall(args []string) error {
	fs := flag.NewFlagSet("service install", flag.ExitOnError)
	cf := &commonFlags{}
	cf.register(fs)
	var interval int
	fs.IntVar(&interval, "interval", 30, "Update interval in minutes")
	fs.IntVar(&interval, "i", 30, "Update interval in minutes (shorthand)")
	fs.Parse(args)

	username := os.Getenv("USER")
	if username == "" || username == "root" {
		return errors.New("cannot determine current user; don't run service install as root")
	}

	configPath := cf.configPath
	if configPath == "" {
		for _, p := range vultrdns.DefaultConfigPaths() {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}
	if configPath == "" {
		return errors.New("configuration required before installing the service; create one with: vultr-dns init-config")
	}
	configPath, err := filepath.Abs(configPath)
	if err != nil {
		return fmt.Errorf("error resolving config path: %w", err)
	}
	cfg, err := vultrdns.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("configuration required before installing the service: %w", err)
	}
	if len(cfg.Targets) == 0 {
		return errors.New("no targets configured; add targets to the config file first")
	}

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("error locating executable: %w", err)
	}

	fmt.Printf("Installing %s service...\n\n", serviceName)
	fmt.Printf("  User:       %s\n", username)
	fmt.Printf("  Config:     %s\n", configPath)
	fmt.Printf("  Executable: %s\n", executable)
	fmt.Printf("  Interval:   %d minutes\n\n", interval)
	fmt.Println("sudo password may be required...")

	tmpDir, err := os.MkdirTemp("", serviceName)
	if err != nil {
		return fmt.Errorf("error creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	tmpService := filepath.Join(tmpDir, serviceName+".service")
	tmpTimer := filepath.Join(tmpDir, serviceName+".timer")
	if err := os.WriteFile(tmpService, []byte(serviceUnit(username, configPath, executable)), 0o644); err != nil {
		return fmt.Errorf("error writing service file: %w", err)
	}
	if err := os.WriteFile(tmpTimer, []byte(timerUnit(interval)), 0o644); err != nil {
		return fmt.Errorf("error writing timer file: %w", err)
	}

	serviceFile := filepath.Join(systemdDir, serviceName+".service")
	timerFile := filepath.Join(systemdDir, serviceName+".timer")
	if err := runSudo("cp", tmpService, serviceFile); err != nil {
		return fmt.Errorf("failed to install service file (is sudo available?): %w", err)
	}
	fmt.Printf("  Created: %s\n", serviceFile)
	if err := runSudo("cp", tmpTimer, timerFile); err != nil {
		return fmt.Errorf("failed to install timer file: %w", err)
	}
	fmt.Printf("  Created: %s\n", timerFile)

	if err := runSystemctl(true, "daemon-reload"); err != nil {
		return fmt.Errorf("failed to reload systemd: %w", err)
	}
	if err := runSystemctl(true, "enable", serviceName+".timer"); err != nil {
		return fmt.Errorf("failed to enable timer: %w", err)
	}
	if err := runSystemctl(true, "start", serviceName+".timer"); err != nil {
		return fmt.Errorf("failed to start timer: %w", err)
	}

	fmt.Printf("\nService installed. DNS will update every %d minutes.\n", interval)
	fmt.Printf("View logs:   journalctl -u %s.service\n", serviceName)
	fmt.Printf("Check timer: systemctl list-timers %s.timer\n", serviceName)
	return nil
}

func serviceUninstall(args []string) error {
	fs := flag.NewFlagSet("service uninstall", flag.ExitOnError)
	fs.Parse(args)

	serviceFile := filepath.Join(systemdDir, serviceName+".service")
	timerFile := filepath.Join(systemdDir, serviceName+".timer")

	_, serviceErr := os.Stat(serviceFile)
	_, timerErr := os.Stat(timerFile)
	if serviceErr != nil && timerErr != nil {
		fmt.Println("No service installed. Nothing to uninstall.")
		return nil
	}

	fmt.Printf("Uninstalling %s service...\n\n", serviceName)
	fmt.Println("sudo password may be required...")

	// stop/disable may fail if the timer never started; that's fine
	_ = runSystemctl(true, "stop", serviceName+".timer")
	_ = runSystemctl(true, "disable", serviceName+".timer")

	if timerErr == nil {
		if err := runSudo("rm", timerFile); err != nil {
			return fmt.Errorf("failed to remove %s: %w", timerFile, err)
		}
		fmt.Printf("  Removed: %s\n", timerFile)
	}
	if serviceErr == nil {
		if err := runSudo("rm", serviceFile); err != nil {
			return fmt.Errorf("failed to remove %s: %w", serviceFile, err)
		}
		fmt.Printf("  Removed: %s\n", serviceFile)
	}

	if err := runSystemctl(true, "daemon-reload"); err != nil {
		return fmt.Errorf("failed to reload systemd: %w", err)
	}
	fmt.Println("\nService uninstalled successfully.")
	return nil
}

func serviceStatus(args []string) error {
	fs := flag.NewFlagSet("service status", flag.ExitOnError)
	fs.Parse(args)

	fmt.Printf("%s timer status:\n\n", serviceName)
	cmd := exec.Command("systemctl", "status", serviceName+".timer")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		// systemctl exits 4 when the unit doesn't exist
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 4 {
			fmt.Println("No service installed. Install with: vultr-dns service install")
			return nil
		}
		// exit 3 just means the unit is inactive; the output above is still useful
	}

	fmt.Println("\nScheduled timers:")
	lt := exec.Command("systemctl", "list-timers", serviceName+".timer")
	lt.Stdout = os.Stdout
	lt.Stderr = os.Stderr
	_ = lt.Run()
	return nil
}

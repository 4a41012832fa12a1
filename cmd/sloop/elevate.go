package sloop

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/sys/unix"
)

// elevate replaces the process with itself run through sudo when not root.
// SLOOP_* variables survive the switch. It returns only when no switch is
// needed or the exec failed.
func elevate() error {
	if !viper.GetBool("elevate") || unix.Geteuid() == 0 {
		return nil
	}

	sudo, err := exec.LookPath("sudo")
	if err != nil {
		return fmt.Errorf("root privileges required and sudo not found: %w", err)
	}
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate sloop executable: %w", err)
	}

	argv := []string{"sudo"}
	if preserved := preservedEnv(os.Environ()); len(preserved) > 0 {
		argv = append(argv, "--preserve-env="+strings.Join(preserved, ","))
	}
	argv = append(argv, self)
	argv = append(argv, os.Args[1:]...)

	logger.Debugf("re-running as root: %s", strings.Join(argv, " "))
	if err := unix.Exec(sudo, argv, os.Environ()); err != nil {
		return fmt.Errorf("failed to re-run through sudo: %w", err)
	}
	return nil
}

// preservedEnv returns the names of the SLOOP_ variables in environ.
func preservedEnv(environ []string) []string {
	var names []string
	for _, kv := range environ {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "SLOOP_") {
			names = append(names, name)
		}
	}
	return names
}

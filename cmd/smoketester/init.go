package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"smoketester/internal/config"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a harness configuration and an example DUT definition",
		Long: `Create smoketester.toml and duts/example.toml in dir (default: the working
directory). The directory is created when it does not exist. An existing
smoketester.toml is never overwritten.`,
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{annotationNoEnv: "true"},
		RunE:        runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}
	target, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	configPath := filepath.Join(target, config.FileName)
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("harness already initialized: %s exists", configPath)
	}
	dutsDir := filepath.Join(target, "duts")
	if err := os.MkdirAll(dutsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", dutsDir, err)
	}
	if err := os.WriteFile(configPath, []byte(defaultConfigTOML), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", config.FileName, err)
	}

	examplePath := filepath.Join(dutsDir, "example.toml")
	createdExample := false
	if _, err := os.Stat(examplePath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(examplePath, []byte(exampleDefinitionTOML), 0o600); err != nil {
			return fmt.Errorf("failed to write example definition: %w", err)
		}
		createdExample = true
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized smoke-test harness in %s\n", target)
	fmt.Fprintf(out, "  - %s\n", config.FileName)
	if createdExample {
		fmt.Fprintln(out, "  - duts/example.toml")
	} else {
		fmt.Fprintln(out, "  - duts/example.toml (existing)")
	}
	return nil
}

const defaultConfigTOML = `# smoketester harness configuration
[definitions]
dir = "duts"
jobs = 1

[chipdb]
# path = "targets"

[probe]
sysfs = "/sys"
devfs = "/dev/bus/usb"

[log]
level = "info"
format = "text"
`

const exampleDefinitionTOML = `# One device under test.
# chip must match exactly one entry of "smoketester chips <query>".
chip = "nRF52840_xxAA"
probe_selector = "1366:1015"
# flash_test_binary = "../firmware/blinky.elf"
`

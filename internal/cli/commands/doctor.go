package commands

import (
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/convergelabs/schemasync/internal/cli/config"
	"github.com/convergelabs/schemasync/internal/loader"
	"github.com/convergelabs/schemasync/pkg/adapter"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	var promptPassword bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the project and target database connectivity",
		Long: `Verify that the project is usable: the config file resolves, the schema
definitions parse, the target type has a registered adapter, and the
database accepts connections.`,
		Example: `  # Check the default environment
  schemasync doctor

  # Check production, prompting for the password
  schemasync doctor --env production --prompt-password`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, promptPassword)
		},
	}

	cmd.Flags().BoolVar(&promptPassword, "prompt-password", false, "Prompt for the database password instead of reading config")
	return cmd
}

func runDoctor(cmd *cobra.Command, promptPassword bool) error {
	cfg, err := getConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	failures := 0

	check := func(name string, err error) {
		if err != nil {
			failures++
			fmt.Fprintf(out, "  [FAIL] %s: %v\n", name, err)
			return
		}
		fmt.Fprintf(out, "  [ ok ] %s\n", name)
	}

	fmt.Fprintln(out, "Project:")
	if file := config.GetConfigFileUsed(); file != "" {
		fmt.Fprintf(out, "  [ ok ] config file: %s\n", file)
	} else {
		fmt.Fprintln(out, "  [warn] no config file found, using defaults")
	}
	check("schemas directory", cfg.ValidateDirectories())

	tables, err := loader.LoadDir(cfg.SchemasDir)
	if err != nil {
		check("schema definitions", err)
	} else {
		check(fmt.Sprintf("schema definitions (%d table(s))", len(tables)), nil)
	}

	fmt.Fprintln(out, "Target:")
	check("target configuration", cfg.Validate())
	if cfg.Target == nil || !adapter.IsRegistered(cfg.Target.Type) {
		fmt.Fprintf(out, "\n%d check(s) failed\n", failures)
		return fmt.Errorf("doctor found problems")
	}

	conn := cfg.Target.ConnConfig()
	if promptPassword {
		pw, err := readPassword(cmd)
		if err != nil {
			return err
		}
		conn.Password = pw
	}

	var errs []string
	if adapter.TestConnect(cmd.Context(), conn, &errs) {
		check("database connection", nil)
	} else {
		failures++
		fmt.Fprintln(out, "  [FAIL] database connection:")
		for _, e := range errs {
			fmt.Fprintf(out, "     %s\n", e)
		}
	}

	if failures > 0 {
		fmt.Fprintf(out, "\n%d check(s) failed\n", failures)
		return fmt.Errorf("doctor found problems")
	}
	fmt.Fprintln(out, "\nAll checks passed.")
	return nil
}

// readPassword reads the database password from the terminal without echo.
func readPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	defer fmt.Fprintln(cmd.ErrOrStderr())

	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("--prompt-password requires an interactive terminal")
	}
	b, err := term.ReadPassword(fd)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}

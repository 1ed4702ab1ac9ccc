package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const initConfigYAML = `# schemasync project configuration
schemas_dir: schemas
state_path: .schemasync/history.db

target:
  type: sqlite
  path: app.db

# environments:
#   production:
#     target:
#       type: postgres
#       host: db.internal
#       database: tienda
#       user: app
#       password: ${DB_PASSWORD}
`

const initExampleSchema = `name: clientes
columns:
  - name: id
    type: serial
  - name: nombre
    type: character varying(100)
  - name: email
    type: character varying(100)
    nullable: true
constraints:
  - name: clientes_pkey
    kind: primary
    columns: [id]
  - name: uq_clientes_email
    kind: unique
    columns: [email]
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new schemasync project",
		Long: `Initialize a new schemasync project with default directory structure
and configuration.

This creates:
  - schemasync.yaml configuration file
  - schemas/ directory with an example table definition`,
		Example: `  # Initialize in current directory
  schemasync init

  # Initialize in a new directory
  schemasync init my-project

  # Force overwrite existing config
  schemasync init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, "schemasync.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("schemasync.yaml already exists. Use --force to overwrite")
	}
	if err := os.WriteFile(configPath, []byte(initConfigYAML), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	schemasDir := filepath.Join(dir, "schemas")
	if err := os.MkdirAll(schemasDir, 0o750); err != nil {
		return fmt.Errorf("failed to create schemas directory: %w", err)
	}
	examplePath := filepath.Join(schemasDir, "clientes.yaml")
	if _, err := os.Stat(examplePath); os.IsNotExist(err) || force {
		if err := os.WriteFile(examplePath, []byte(initExampleSchema), 0o644); err != nil {
			return fmt.Errorf("failed to write example schema: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Created:")
	fmt.Fprintf(out, "  %s\n", configPath)
	fmt.Fprintf(out, "  %s\n", examplePath)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "schemasync project initialized!")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Point the target at your database in schemasync.yaml")
	fmt.Fprintln(out, "  2. Declare your tables in schemas/")
	fmt.Fprintln(out, "  3. Run 'schemasync plan' to preview the DDL")
	fmt.Fprintln(out, "  4. Run 'schemasync apply' to converge the database")
	return nil
}

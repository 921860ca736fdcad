package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sorokinportal/internal/service"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or import the database as JSON",
	}
	cmd.AddCommand(newBackupExportCmd(), newBackupImportCmd())
	return cmd
}

func newBackupExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the database to a JSON file",
		Example: `  portalctl backup export
  portalctl backup export --output backups/portal.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
			}
			if dir := filepath.Dir(output); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}

			db, logger, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()
			defer logger.Sync()

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create backup file: %w", err)
			}
			defer f.Close()

			backup, err := service.NewBackupService(db, logger).Export(f)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			info, err := f.Stat()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d users to %s (%.2f MB)\n",
				len(backup.Users), output, float64(info.Size())/1024/1024)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path (default backup_YYYYMMDD_HHMMSS.json)")
	return cmd
}

func newBackupImportCmd() *cobra.Command {
	var (
		input     string
		clearData bool
		yes       bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a JSON backup into the database",
		Example: `  # Merge with existing data
  portalctl backup import --input backup.json

  # Replace all data
  portalctl backup import --input backup.json --clear`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("failed to open backup file: %w", err)
			}
			defer f.Close()

			if clearData && !yes {
				ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
					"WARNING: This will delete all existing data. Type 'yes' to confirm: ")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Import cancelled")
					return nil
				}
			}

			db, logger, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()
			defer logger.Sync()

			backups := service.NewBackupService(db, logger)
			if clearData {
				if err := backups.Clear(); err != nil {
					return fmt.Errorf("failed to clear database: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Cleared existing data")
			}

			backup, err := backups.Import(f)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d users from backup taken %s\n",
				len(backup.Users), backup.ExportedAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "backup file to import (required)")
	cmd.Flags().BoolVar(&clearData, "clear", false, "delete existing data before importing")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt for --clear")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// confirm asks a yes/no question and only accepts a literal "yes"
func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return strings.TrimSpace(line) == "yes", nil
}

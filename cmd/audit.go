package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/envfold/envfold/internal/audit"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "View and verify the operation log",
	Long: `View the audit log and verify chain integrity.

The audit log records run, clean, export and MCP operations. Each entry
links to the previous entry's hash, forming a tamper-evident chain.`,
}

var auditShowCmd = &cobra.Command{
	Use:   "show [--last=N]",
	Short: "Show recent audit entries",
	RunE:  runAuditShow,
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify audit log chain integrity",
	RunE:  runAuditVerify,
}

var (
	auditLastN   int
	auditWorkdir string
)

func init() {
	auditShowCmd.Flags().IntVarP(&auditLastN, "last", "n", 10, "Number of entries to show")
	auditShowCmd.Flags().StringVarP(&auditWorkdir, "workdir", "w", "", "Working directory (default: current)")
	auditVerifyCmd.Flags().StringVarP(&auditWorkdir, "workdir", "w", "", "Working directory (default: current)")

	auditCmd.AddCommand(auditShowCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	rootCmd.AddCommand(auditCmd)
}

func runAuditShow(cmd *cobra.Command, args []string) error {
	entries, err := audit.Show(auditWorkdir, auditLastN)
	if err != nil {
		if errors.Is(err, audit.ErrNoAuditLog) {
			fmt.Println("No audit log found. Operations are logged when you run, clean or export.")
			return nil
		}
		return fmt.Errorf("read audit log: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No entries in audit log.")
		return nil
	}

	b, _ := json.MarshalIndent(entries, "", "  ")
	fmt.Println(string(b))
	return nil
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	n, err := audit.Verify(auditWorkdir)
	if err != nil {
		if errors.Is(err, audit.ErrNoAuditLog) {
			fmt.Println("No audit log found.")
			return nil
		}
		return fmt.Errorf("verify audit log: %w", err)
	}

	fmt.Printf("Audit log verified: %d entries\n", n)
	fmt.Println("Chain integrity: OK")
	return nil
}

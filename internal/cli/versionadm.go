package cli

import "github.com/spf13/cobra"

var versionAdmCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Displays version, commit, and build date information for caseqadm.`,
	RunE:  runVersion,
}

func init() {
	rootAdmCmd.AddCommand(versionAdmCmd)
	versionAdmCmd.Flags().BoolVar(&versionJSON, "json", false, "Output as JSON")
}

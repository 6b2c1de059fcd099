package cmd

import (
	"os"

	"github.com/docveil/docveil/internal"
	"github.com/sirupsen/logrus"

	"github.com/spf13/cobra"
)

var (
	log *logrus.Logger

	cfgFile     string
	showVersion bool
	generateKey bool
	fieldsFile  string
)

var cmd = &cobra.Command{
	Use:   "docveil",
	Short: "docveil de-identifies scanned documents by replacing sensitive entities with consistent synthetic values and masking them in place",
	Run:   func(cmd *cobra.Command, args []string) { run() },
}

var batchCmd = &cobra.Command{
	Use:     "batch <folder>",
	Short:   "Process every PDF in a folder unattended and write masked copies alongside",
	Example: "docveil batch ./inbox --fields fields.json",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runBatch(args[0])
	},
}

func init() {
	cmd.AddCommand(batchCmd)

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default config.yaml)")
	cmd.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "print version number")
	cmd.PersistentFlags().
		BoolVarP(&generateKey, "generate-token", "g", false, "generate a new JWT token")

	batchCmd.Flags().
		StringVarP(&fieldsFile, "fields", "f", "fields.json", "JSON file with field definitions to de-identify")
}

// Execute executes the root cobra command.
func Execute() {
	log = internal.GetLogger()
	log.SetLevel(logrus.InfoLevel)

	err := cmd.Execute()

	if err != nil {
		os.Exit(1)
	}
}

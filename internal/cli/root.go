package cli

import (
	"github.com/spf13/cobra"

	"github.com/okanehara/rubi/internal/config"
	"github.com/okanehara/rubi/internal/logging"
)

var (
	verbose    bool
	configPath string
	logger     *logging.Logger
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "rubi",
	Short: "Narration video project generator with ruby captions",
	Long: `Rubi turns narrated clip sequences into editable video projects.

It builds a gapless timeline from per-line narration audio, lays out
wrapped Japanese captions with positioned ruby annotations, and writes
a CapCut-compatible draft project. Companion commands generate the
captions and narration audio themselves.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)
		config.LoadEnv()

		var err error
		cfg, err = config.Load(configPath)
		return err
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "config.yaml", "Config file path")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output path")
}

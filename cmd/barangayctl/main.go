// Command barangayctl runs schema migrations and bootstraps accounts.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const programName = "barangayctl"

var globalFlags = struct {
	dbAddr string
	debug  bool
}{}

func newLogger() *zap.SugaredLogger {
	lvl := zapcore.InfoLevel
	if globalFlags.debug {
		lvl = zapcore.DebugLevel
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(os.Stderr), lvl)
	return zap.New(core).Sugar().With("component", programName)
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Operate the barangay portal database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if globalFlags.dbAddr == "" {
				return fmt.Errorf("database address required: set --db or DB_ADDR")
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&globalFlags.dbAddr, "db", os.Getenv("DB_ADDR"), "postgres connection string")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")

	rootCmd.AddCommand(migrateCommand())
	rootCmd.AddCommand(superAdminCommand())
	return rootCmd
}

func main() {
	// .env is optional here; flags and the environment win.
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"complexity-analyzer-go/cache"
	"complexity-analyzer-go/config"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	dbPath     string
	backupPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	conf := config.Get()
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "companion",
		Short:         "Analyze accepted LeetCode submissions and manage the local result cache",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
			log.SetOutput(cmd.ErrOrStderr())
			if flags.verbose {
				log.SetLevel(log.DebugLevel)
			} else {
				log.SetLevel(log.WarnLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.dbPath, "db", conf.Client.CacheDBPath, "analysis cache database")
	rootCmd.PersistentFlags().StringVar(&flags.backupPath, "backups", conf.Client.CacheBackupPath, "directory for cache backups")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log pipeline progress")

	rootCmd.AddCommand(newAnalyzeCmd(conf, flags))
	rootCmd.AddCommand(newCacheCmd(conf, flags))
	return rootCmd
}

func openCache(conf config.Config, flags *globalFlags) (*cache.PersistentCache, error) {
	return cache.NewPersistentCache(flags.dbPath, flags.backupPath, conf.FeatureFlags.CacheCompression)
}

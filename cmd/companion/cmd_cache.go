package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"

	"complexity-analyzer-go/cache"
	"complexity-analyzer-go/config"
	"complexity-analyzer-go/fingerprint"
	"complexity-analyzer-go/utils"

	"github.com/spf13/cobra"
)

func newCacheCmd(conf config.Config, flags *globalFlags) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the local analysis cache",
	}

	// withCache opens the cache around fn.
	withCache := func(fn func(cmd *cobra.Command, args []string, pc *cache.PersistentCache) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			pc, err := openCache(conf, flags)
			if err != nil {
				return err
			}
			defer pc.Close()
			return fn(cmd, args, pc)
		}
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the number of cached analyses and their size",
		RunE: withCache(func(cmd *cobra.Command, args []string, pc *cache.PersistentCache) error {
			keys, sizeKB := pc.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "entries: %d\nsize: %d KB\n", keys, sizeKB)
			return nil
		}),
	}

	var lookupCode, lookupLanguage string
	lookupCmd := &cobra.Command{
		Use:   "lookup",
		Short: "Print the cached analysis for a solution, if any",
		RunE: withCache(func(cmd *cobra.Command, args []string, pc *cache.PersistentCache) error {
			code, err := readCode(lookupCode, cmd.InOrStdin())
			if err != nil {
				return err
			}
			key := cache.Key{Language: lookupLanguage, Fingerprint: fingerprint.Of(code)}
			result, ok := cache.NewAnalysisStore(pc).Get(context.Background(), key)
			if !ok {
				return fmt.Errorf("no cached analysis for %s", key)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}),
	}
	lookupCmd.Flags().StringVar(&lookupCode, "code", "-", "file holding the solution, - for stdin")
	lookupCmd.Flags().StringVar(&lookupLanguage, "language", conf.Client.FallbackLanguage, "language the editor reported")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List cached keys with their stored size",
		RunE: withCache(func(cmd *cobra.Command, args []string, pc *cache.PersistentCache) error {
			var keys []string
			sizes := map[string]int{}
			compressed := map[string]bool{}
			pc.Range(func(key string, entry cache.CacheEntry) bool {
				keys = append(keys, key)
				sizes[key] = len(entry.Value)
				compressed[key] = utils.IsCompressed(entry.Value)
				return true
			})
			sort.Strings(keys)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tBYTES\tCOMPRESSED")
			for _, k := range keys {
				fmt.Fprintf(tw, "%s\t%d\t%t\n", k, sizes[k], compressed[k])
			}
			return tw.Flush()
		}),
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <key>",
		Short: "Remove one cached analysis by key",
		Args:  cobra.ExactArgs(1),
		RunE: withCache(func(cmd *cobra.Command, args []string, pc *cache.PersistentCache) error {
			if _, ok := pc.Get(args[0]); !ok {
				return fmt.Errorf("no cached entry %s", args[0])
			}
			if err := pc.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		}),
	}

	backupsCmd := &cobra.Command{
		Use:   "backups",
		Short: "List cache backups",
		RunE: withCache(func(cmd *cobra.Command, args []string, pc *cache.PersistentCache) error {
			backups, err := pc.ListBackups()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FILE\tSIZE\tCREATED")
			for _, b := range backups {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", b.FileName, b.Size, b.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		}),
	}

	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a snapshot of the cache to the backup directory",
		RunE: withCache(func(cmd *cobra.Command, args []string, pc *cache.PersistentCache) error {
			path, err := pc.Backup()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		}),
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Back up the cache, then empty it",
		RunE: withCache(func(cmd *cobra.Command, args []string, pc *cache.PersistentCache) error {
			path, err := pc.BackupAndClear()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared, backup at %s\n", path)
			return nil
		}),
	}

	restoreCmd := &cobra.Command{
		Use:   "restore <backup-file>",
		Short: "Replace the cache with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: withCache(func(cmd *cobra.Command, args []string, pc *cache.PersistentCache) error {
			if err := pc.RestoreFromBackup(args[0]); err != nil {
				return err
			}
			keys, _ := pc.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s (%d entries)\n", args[0], keys)
			return nil
		}),
	}

	deleteBackupCmd := &cobra.Command{
		Use:   "delete-backup <backup-file>",
		Short: "Remove a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: withCache(func(cmd *cobra.Command, args []string, pc *cache.PersistentCache) error {
			return pc.DeleteBackup(args[0])
		}),
	}

	cacheCmd.AddCommand(statsCmd, lookupCmd, listCmd, deleteCmd, backupsCmd, backupCmd, clearCmd, restoreCmd, deleteBackupCmd)
	return cacheCmd
}

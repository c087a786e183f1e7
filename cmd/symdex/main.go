package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/termfx/symdex/core"
	"github.com/termfx/symdex/db"
	"github.com/termfx/symdex/models"
)

var (
	dbPath   string
	verbose  bool
	parallel bool
	workers  int
)

func main() {
	// Local overrides (database path, worker count) may live in a .env file.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "symdex",
		Short:         "Multi-language source-code symbol indexer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
	}

	root.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath(), "path to the index database")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(indexCmd(), watchCmd(), symbolsCmd(), filesCmd(), statsCmd(), optimizeCmd(), planCmd())

	if err := root.Execute(); err != nil {
		log.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func defaultDBPath() string {
	if env := os.Getenv("SYMDEX_DB"); env != "" {
		return env
	}
	return ".symdex/index.db"
}

func resolveWorkers() int {
	if workers > 0 {
		return workers
	}
	if env := os.Getenv("SYMDEX_WORKERS"); env != "" {
		if n, err := strconv.Atoi(env); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func openStore() (*db.Store, error) {
	return db.Open(dbPath, verbose)
}

func indexCmd() *cobra.Command {
	var excludes []string
	var extensions []string

	cmd := &cobra.Command{
		Use:   "index [root]",
		Short: "Discover and index a project tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rootDir := "."
			if len(args) == 1 {
				rootDir = args[0]
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			config := core.DefaultConfig(rootDir)
			if len(excludes) > 0 {
				config.ExcludeDirs = excludes
			}
			config.Extensions = extensions

			indexer := core.NewIndexer(store)
			indexer.SetWorkers(resolveWorkers())

			progress := func(done, total int) {
				log.Debug("indexing", "done", done, "total", total)
			}
			files, err := indexer.IndexProject(config, parallel, progress)
			if err != nil {
				return err
			}

			log.Info("index complete", "files", len(files), "db", dbPath)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&parallel, "parallel", "p", true, "index files across a worker pool")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "number of workers, 0 means SYMDEX_WORKERS or else all available CPUs")
	cmd.Flags().StringSliceVar(&excludes, "exclude", nil, "directory names to skip")
	cmd.Flags().StringSliceVar(&extensions, "ext", nil, "extension allow-list (without dots)")
	return cmd
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [root]",
		Short: "Watch a tree and re-index files as they change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rootDir := "."
			if len(args) == 1 {
				rootDir = args[0]
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			indexer := core.NewIndexer(store)
			config := core.DefaultConfig(rootDir)

			watcher, err := core.NewFileWatcher()
			if err != nil {
				return err
			}
			defer watcher.Close()

			if err := watcher.Watch(rootDir); err != nil {
				return err
			}
			log.Info("watching", "root", rootDir)

			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sigs
				watcher.Close()
			}()

			for {
				event := watcher.NextEvent()
				if event == nil {
					return nil
				}
				if !event.IsRelevantFile() {
					continue
				}
				for _, path := range event.Paths {
					if event.Kind == core.ChangeDelete {
						file, err := store.GetFileByPath(path)
						if err != nil {
							continue
						}
						if err := store.DeleteFile(file.ID); err != nil {
							log.Warn("failed to drop deleted file", "path", path, "err", err)
						}
						continue
					}
					meta, err := core.HandleFileChange(path, config)
					if err != nil || meta == nil {
						continue
					}
					if err := indexer.PersistIndex([]models.File{*meta}); err != nil {
						log.Warn("failed to re-index", "path", path, "err", err)
						continue
					}
					log.Info("re-indexed", "path", path, "kind", event.Kind)
				}
			}
		},
	}
}

func symbolsCmd() *cobra.Command {
	var kind string
	var filePath string

	cmd := &cobra.Command{
		Use:   "symbols [name]",
		Short: "Look up symbols by name, kind, or file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var symbols []models.Symbol
			switch {
			case filePath != "" && kind != "":
				file, err := store.GetFileByPath(filePath)
				if err != nil {
					return err
				}
				symbols, err = store.FindSymbolsByFileAndKind(file.ID, models.ParseSymbolKind(kind))
				if err != nil {
					return err
				}
			case filePath != "":
				symbols, err = store.FindSymbolsByFilePath(filePath)
			case len(args) == 1 && kind != "":
				symbols, err = store.FindSymbolsByNameAndKind(args[0], models.ParseSymbolKind(kind))
			case len(args) == 1:
				symbols, err = store.FindSymbolsByName(args[0])
			case kind != "":
				symbols, err = store.FindSymbolsByKind(models.ParseSymbolKind(kind))
			default:
				return fmt.Errorf("provide a name, --kind, or --file")
			}
			if err != nil {
				return err
			}

			for _, sym := range symbols {
				scope := ""
				if sym.Scope != nil {
					scope = " scope=" + *sym.Scope
				}
				fmt.Printf("%s\t%s\t%d-%d%s\n", sym.Name, sym.Kind, sym.LineStart, sym.LineEnd, scope)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "restrict to a symbol kind")
	cmd.Flags().StringVarP(&filePath, "file", "f", "", "restrict to a file path")
	return cmd
}

func filesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List indexed files",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			files, err := store.ListFiles()
			if err != nil {
				return err
			}
			for _, file := range files {
				fmt.Printf("%d\t%s\t%s\t%d\n", file.ID, file.Path, file.Language, file.Size)
			}
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Per-language file counts and sizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.LanguageStats()
			if err != nil {
				return err
			}
			for _, stat := range stats {
				fmt.Printf("%s\t%d files\t%d bytes\n", stat.Language, stat.FileCount, stat.TotalSize)
			}
			return nil
		},
	}
}

func optimizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "optimize",
		Short: "Run VACUUM and ANALYZE on the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Optimize(); err != nil {
				return err
			}
			log.Info("database optimized", "db", dbPath)
			return nil
		},
	}
}

func planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <sql>",
		Short: "Show the engine's query plan for a SQL statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			plan, err := store.AnalyzeQueryPlan(args[0])
			if err != nil {
				return err
			}
			fmt.Print(strings.TrimRight(plan, "\n") + "\n")
			return nil
		},
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/absfs/searchset"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	verbose    bool
	cfgFile    string
	dirFlags   []string
	zipFlags   []string
	depth      int
	flat       bool
	ignoreCase bool
	noDefaults bool

	logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "searchctl"})

	rootCmd = &cobra.Command{
		Use:   "searchctl",
		Short: "Inspect prioritized resource search sets",
		Long: `searchctl builds the process-wide search registry (platform data
directories and the working directory), adds the directories and ZIP
archives given on the command line or in the config file, and answers
questions about it.

Examples:
  searchctl archives                       List archives in lookup order
  searchctl ls '*.bmp'                     List matching members
  searchctl which title.bmp                Show which archive serves a name
  searchctl --dir patch=./patch:10 cat a.txt`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(*cobra.Command, []string) { searchset.ShutdownRegistry() },
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	pf.StringArrayVar(&dirFlags, "dir", nil, "add a directory as name=path[:priority] (repeatable)")
	pf.StringArrayVar(&zipFlags, "zip", nil, "add a ZIP file as path[:priority] (repeatable)")
	pf.IntVar(&depth, "depth", 1, "directory levels to index for --dir")
	pf.BoolVar(&flat, "flat", false, "name --dir members by basename only")
	pf.BoolVar(&ignoreCase, "ignore-case", false, "match names without regard to case")
	pf.BoolVar(&noDefaults, "no-defaults", false, "do not register the platform default locations")

	rootCmd.AddCommand(lsCmd, catCmd, hasCmd, whichCmd, archivesCmd)
}

// setup loads the configuration and populates the registry
func setup(cmd *cobra.Command, _ []string) error {
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	v := viper.New()
	for key, flagName := range map[string]string{
		"ignore_case": "ignore-case",
		"depth":       "depth",
		"flat":        "flat",
		"no_defaults": "no-defaults",
	} {
		if err := v.BindPFlag(key, cmd.Root().PersistentFlags().Lookup(flagName)); err != nil {
			return err
		}
	}

	cfg, err := loadConfig(v, cfgFile)
	if err != nil {
		return err
	}
	searchset.AppName = cfg.AppName

	defaults := func() []searchset.Location { return nil }
	if !cfg.NoDefaults {
		defaults = func() []searchset.Location { return searchset.DefaultLocations(cfg.AppName) }
	}
	searchset.ConfigureRegistry(defaults,
		searchset.WithLogger(logger),
		searchset.WithIgnoreCase(cfg.IgnoreCase),
	)
	reg := searchset.Registry()

	locs := cfg.Locations
	for _, s := range dirFlags {
		loc, err := parseDirFlag(s, cfg.Depth, cfg.Flat)
		if err != nil {
			return err
		}
		locs = append(locs, loc)
	}
	for _, loc := range locs {
		path, err := searchset.ExpandPath(loc.Path)
		if err != nil {
			return fmt.Errorf("location %s: %w", loc.Name, err)
		}
		if loc.Depth < 1 {
			loc.Depth = cfg.Depth
		}
		if err := reg.AddDirectory(loc.Name, path, loc.Priority, loc.Depth, loc.Flat); err != nil {
			return err
		}
	}

	archives := cfg.Archives
	for _, s := range zipFlags {
		a, err := parseZipFlag(s)
		if err != nil {
			return err
		}
		archives = append(archives, a)
	}
	for _, a := range archives {
		path, err := searchset.ExpandPath(a.Path)
		if err != nil {
			return fmt.Errorf("archive %s: %w", a.Name, err)
		}
		arc, err := searchset.OpenZipArchive(path,
			searchset.WithZipIgnoreCase(cfg.IgnoreCase),
			searchset.WithZipLogger(logger),
		)
		if err != nil {
			return err
		}
		name := a.Name
		if name == "" {
			name = path
		}
		if err := reg.Add(name, arc, a.Priority, searchset.Owned); err != nil {
			return err
		}
	}

	logger.Debug("registry ready", "archives", reg.Len())
	return nil
}

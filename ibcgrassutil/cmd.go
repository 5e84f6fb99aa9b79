/*
Copyright © 2024 the IBC-grass authors.
This file is part of IBC-grass.

IBC-grass is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

IBC-grass is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with IBC-grass.  If not, see <http://www.gnu.org/licenses/>.
*/

package ibcgrassutil

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/ibcgrass"
	"github.com/spatialmodel/ibcgrass/output"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to IBC-grass.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "simfile",
			usage: `
              simfile is the path to the simulation file. Files ending in .toml
              are read as TOML. It can also be given as the first argument
              to run.`,
			defaultVal: "data/in/SimFile.txt",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "outprefix",
			usage: `
              outprefix is prepended to the names of all output files. It can
              also be given as the second argument to run.`,
			defaultVal: "default",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "outdir",
			usage: `
              outdir is the directory output files are written to. It must exist.`,
			defaultVal: "data/out",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "datadir",
			usage: `
              datadir is the directory that trait file names in the
              simulation file are relative to.`,
			defaultVal: "data/in",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "line",
			usage: `
              line specifies the 1-based line of the simulation file to run.
              The default of -1 runs all lines.`,
			shorthand:  "n",
			defaultVal: -1,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "procs",
			usage: `
              procs is the number of runs that are performed concurrently.`,
			shorthand:  "p",
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "seed",
			usage: `
              seed is the random seed of the first run. Every further run
              uses the next seed. If seed is negative, it is derived from the clock.`,
			shorthand:  "s",
			defaultVal: -1,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "GridSize",
			usage: `
              GridSize is the side length of the square grid in 1 cm² cells.`,
			defaultVal: 173,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "TmaxMonoculture",
			usage: `
              TmaxMonoculture is the number of years the resident grows alone
              in invasion experiments before the invader is introduced.`,
			defaultVal: 10,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "CompetitionMode.Above",
			usage: `
              CompetitionMode.Above is the size symmetry of above-ground
              competition: sym, asympart or asymtot. Only asympart is supported.`,
			defaultVal: "asympart",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "CompetitionMode.Below",
			usage: `
              CompetitionMode.Below is the size symmetry of below-ground
              competition: sym, asympart or asymtot. Only sym is supported.`,
			defaultVal: "sym",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "CutHeight",
			usage: `
              CutHeight is the height in cm that plants are mown to.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "NCut",
			usage: `
              NCut is the number of mowing events per year, between 0 and 3.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Aampl",
			usage: `
              Aampl is the amplitude of the seasonal variation of the
              above-ground resource.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Bampl",
			usage: `
              Bampl is the amplitude of the seasonal variation of the
              below-ground resource.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "CatastrophicDistYear",
			usage: `
              CatastrophicDistYear is the year of the catastrophic disturbance.
              The Bray-Curtis dissimilarity is computed against the mean community
              of the ten years before it.`,
			defaultVal: 100,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputFormats",
			usage: `
              OutputFormats lists the formats results are written in: csv,
              sqlite and xlsx. xlsx only holds the param, trait and srv streams.`,
			defaultVal: []string{"csv"},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to the desired logfile location. It can include
              environment variables. If LogFile is left blank, log messages are
              only written to standard output.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum level of logged messages: debug, info,
              warning or error. At debug level the progress of every year is logged.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("IBCGRASS")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("ibcgrass: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "ibcgrass",
	Short: "An individual-based grassland community model.",
	Long: `IBC-grass simulates the dynamics of grassland plant communities on a
spatially explicit grid of 1 cm² cells. Plants of different plant functional
types compete for above- and below-ground resources, reproduce by seeds and
clonal spacers, and are subject to grazing, mowing and catastrophic disturbance.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'IBCGRASS_var' where 'var' is the
name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of IBC-grass.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("IBC-grass v%s\n", ibcgrass.Version)
	},
	DisableAutoGenTag: true,
}

// runCmd runs all scenarios of a simulation file.
var runCmd = &cobra.Command{
	Use:   "run [simfile [outprefix]]",
	Short: "Run the scenarios of a simulation file.",
	Long: `run performs every line of the simulation file NRep times and writes
the results to the output directory. Runs are independent of each other;
up to --procs of them are performed at once.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		simFile := os.ExpandEnv(Cfg.GetString("simfile"))
		prefix := Cfg.GetString("outprefix")
		if len(args) > 0 {
			simFile = args[0]
		}
		if len(args) > 1 {
			prefix = args[1]
		}

		log, closeLog, err := newLogger(Cfg.GetString("LogFile"), Cfg.GetString("LogLevel"))
		if err != nil {
			return err
		}
		defer closeLog()

		base, err := BaseParameters(Cfg)
		if err != nil {
			return err
		}
		seed, err := cast.ToInt64E(Cfg.Get("seed"))
		if err != nil {
			return fmt.Errorf("ibcgrass: reading 'seed': %v", err)
		}
		sf, err := ReadSimFile(simFile)
		if err != nil {
			return err
		}
		runs, err := Expand(sf, base, Cfg.GetString("datadir"), Cfg.GetInt("line"), seed)
		if err != nil {
			return err
		}
		outDir, err := checkOutputDir(Cfg.GetString("outdir"))
		if err != nil {
			return err
		}
		rec, err := output.Open(Cfg.GetStringSlice("OutputFormats"), outDir, prefix)
		if err != nil {
			return err
		}

		log.WithFields(logrus.Fields{"simfile": simFile, "runs": len(runs)}).Info("starting simulations")
		runErr := RunReplicates(runs, Cfg.GetInt("procs"), rec, log, func(r RunResult) {
			if r.Err == nil {
				cmd.Printf("%s: finished in year %d after %v\n", r.SimID, r.Year, r.Duration)
			}
		})
		if err := rec.Close(); err != nil && runErr == nil {
			runErr = err
		}
		return runErr
	},
	DisableAutoGenTag: true,
}

// newLogger returns a logger writing to standard output and, if logFile
// is not empty, to logFile. The returned function closes the log file.
func newLogger(logFile, level string) (*logrus.Logger, func() error, error) {
	log := logrus.New()
	log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("ibcgrass: invalid LogLevel: %v", err)
	}
	log.Level = lvl
	log.Out = os.Stdout
	if logFile == "" {
		return log, func() error { return nil }, nil
	}
	f, err := os.Create(os.ExpandEnv(logFile))
	if err != nil {
		return nil, nil, fmt.Errorf("ibcgrass: problem creating log file: %v", err)
	}
	log.Out = io.MultiWriter(os.Stdout, f)
	return log, f.Close, nil
}

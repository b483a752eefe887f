// Command lsyncgod watches a source directory tree and mirrors changes into
// a target via an external sync tool, per spec.md. Its flag layout follows
// the teacher's package-level configuration-struct-plus-init() convention
// (cmd/mutagen/main.go).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lsyncgo/lsyncgo/pkg/bootstrap"
	"github.com/lsyncgo/lsyncgo/pkg/config"
	"github.com/lsyncgo/lsyncgo/pkg/daemonize"
	"github.com/lsyncgo/lsyncgo/pkg/dispatch"
	"github.com/lsyncgo/lsyncgo/pkg/excludes"
	"github.com/lsyncgo/lsyncgo/pkg/kernelwatch"
	"github.com/lsyncgo/lsyncgo/pkg/logging"
	"github.com/lsyncgo/lsyncgo/pkg/lsyncgo"
	"github.com/lsyncgo/lsyncgo/pkg/pidfile"
	"github.com/lsyncgo/lsyncgo/pkg/syncinvoker"
)

var rootConfiguration struct {
	debug       bool
	scarce      bool
	dryRun      bool
	noDaemon    bool
	logFile     string
	excludeFrom string
	rsyncBinary string
	pidFile     string
	version     bool
}

var rootCommand = &cobra.Command{
	Use:   "lsyncgod SOURCE TARGET",
	Short: "lsyncgod watches a directory tree and mirrors changes via rsync.",
	Args:  cobra.MaximumNArgs(2),
	RunE:  rootMain,
}

func init() {
	var flags *pflag.FlagSet = rootCommand.Flags()
	flags.BoolVar(&rootConfiguration.debug, "debug", false, "log every sync invocation's arguments")
	flags.BoolVar(&rootConfiguration.scarce, "scarce", false, "log errors only")
	flags.BoolVar(&rootConfiguration.dryRun, "dryrun", false, "watch and log, but never invoke the sync tool")
	flags.BoolVar(&rootConfiguration.noDaemon, "no-daemon", false, "stay attached to the controlling terminal")
	flags.StringVar(&rootConfiguration.logFile, "logfile", "", "log file path (default "+config.DefaultLogFile+")")
	flags.StringVar(&rootConfiguration.excludeFrom, "exclude-from", "", "path to a file of excluded directories/patterns")
	flags.StringVar(&rootConfiguration.rsyncBinary, "rsync-binary", "", "absolute path to the sync tool binary (default "+config.DefaultRsyncBinary+")")
	flags.StringVar(&rootConfiguration.pidFile, "pidfile", "", "write the daemon's PID to this file")
	flags.BoolVarP(&rootConfiguration.version, "version", "V", false, "show version information")

	cobra.MousetrapHelpText = ""
}

func rootMain(command *cobra.Command, arguments []string) error {
	if rootConfiguration.version {
		fmt.Println(lsyncgo.Version)
		return nil
	}

	if len(arguments) != 2 {
		command.Help()
		os.Exit(int(config.ExitMissingArguments))
	}

	level := logging.LevelNormal
	switch {
	case rootConfiguration.scarce:
		level = logging.LevelError
	case rootConfiguration.debug:
		level = logging.LevelDebug
	}

	cfg := &config.Config{
		SourceDir:   arguments[0],
		TargetSpec:  arguments[1],
		RsyncBinary: rootConfiguration.rsyncBinary,
		ExcludeFrom: rootConfiguration.excludeFrom,
		PidFile:     rootConfiguration.pidFile,
		LogFile:     rootConfiguration.logFile,
		DryRun:      rootConfiguration.dryRun,
		NoDaemon:    rootConfiguration.noDaemon,
		Level:       level,
	}

	if verr := cfg.Validate(); verr != nil {
		fmt.Fprintln(os.Stderr, verr.Error())
		os.Exit(int(verr.Code))
	}

	filter := excludes.Empty
	if cfg.ExcludeFrom != "" {
		loaded, err := excludes.Load(cfg.ExcludeFrom)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			if errors.Is(err, excludes.ErrTooManyExcludes) {
				os.Exit(int(config.ExitTooManyExcludes))
			}
			os.Exit(int(config.ExitFileNotFound))
		}
		if loaded != nil {
			filter = loaded
		}
	}

	if !cfg.NoDaemon {
		if err := daemonize.Detach(cfg.LogFile); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(int(config.ExitOutOfMemory))
		}
	}

	// colorable.NewColorableStdout wraps os.Stdout so ANSI severity colors
	// render correctly on Windows consoles; on other platforms it is os.Stdout
	// itself, so isatty detection inside logging.New still applies.
	logger := logging.New(colorable.NewColorableStdout(), cfg.Level)

	logger.Normalf("lsyncgod version %s starting", lsyncgo.Version)
	logger.Debugf("argv: %v", os.Args)

	if cfg.PidFile != "" {
		if err := pidfile.Write(cfg.PidFile); err != nil {
			logger.Error(err)
			os.Exit(int(config.ExitFileNotFound))
		}
	}

	watcher, err := kernelwatch.NewWatcher()
	if err != nil {
		logger.Error(err)
		os.Exit(int(config.ExitOutOfMemory))
	}
	defer watcher.Close()

	// Detach (above) has already redirected os.Stdout to cfg.LogFile when
	// daemonized, so the sync child's output lands in the right place either
	// way: the log file when daemonized, the terminal under --no-daemon.
	invoker := &syncinvoker.Invoker{
		Binary:      cfg.RsyncBinary,
		ExcludeFrom: cfg.ExcludeFrom,
		DryRun:      cfg.DryRun,
		LogFile:     os.Stdout,
		Logger:      logger,
	}

	var terminating int32
	isTerminating := func() bool { return atomic.LoadInt32(&terminating) != 0 }

	result, err := bootstrap.Run(cfg, filter, watcher, invoker, logger, isTerminating)
	if err != nil {
		logger.Error(err)
		os.Exit(int(config.ExitSyncFailure))
	}

	disp := dispatch.NewDispatcher(result.Registry, filter, watcher, invoker, logger, result.RootPrefix, cfg.TargetSpec)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-signals
		atomic.StoreInt32(&terminating, 1)
		disp.Terminate()
	}()

	if err := disp.Run(context.Background()); err != nil {
		logger.Error(err)
		os.Exit(int(config.ExitSyncFailure))
	}

	logger.Normalf("lsyncgod closing")
	return nil
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		os.Exit(int(config.ExitChildInternal))
	}
}

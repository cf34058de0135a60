// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/ironcore-dev/rwe-utils/internal/config"
	"github.com/ironcore-dev/rwe-utils/pciutils/pci"
	"github.com/ironcore-dev/rwe-utils/rweutils/journal"
	"github.com/ironcore-dev/rwe-utils/rweutils/rwe"
	"github.com/spf13/cobra"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

const Name string = "rwectl"

type options struct {
	configFile     string
	agentPath      string
	scratchFile    string
	commandTimeout time.Duration
	trace          bool
	zap            zap.Options

	// executor replaces the agent process, nil runs the real one.
	executor rwe.Executor
	// hostReader replaces the sysfs enumeration used for cross checks.
	hostReader pci.Reader
}

// env is what a subcommand runs against.
type env struct {
	log    logr.Logger
	config *config.Config
	client *rwe.Client
	out    io.Writer
}

func NewCommand() *cobra.Command {
	return newCommand(&options{})
}

func newCommand(o *options) *cobra.Command {
	root := &cobra.Command{
		Use:          Name,
		Short:        "CLI client for the RW-Everything agent",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&o.configFile, "config", "", "Path to the rwectl configuration file.")
	flags.StringVar(&o.agentPath, "agent-path", "", "Path to the agent executable, overrides the configuration file.")
	flags.StringVar(&o.scratchFile, "scratch-file", "", "File used to exchange data with the agent.")
	flags.DurationVar(&o.commandTimeout, "command-timeout", 0, "Timeout of a single agent invocation.")
	flags.BoolVar(&o.trace, "trace", false, "Print the executed agent commands to stderr.")

	goFlags := flag.NewFlagSet(Name, flag.ContinueOnError)
	o.zap.BindFlags(goFlags)
	flags.AddGoFlagSet(goFlags)

	root.AddCommand(
		newProbeCommand(o),
		newTreeCommand(o),
		newMemCommand(o),
		newPCICommand(o),
		newNVMeCommand(o),
	)
	return root
}

// run sets up the agent client for cmd and calls fn with it.
func (o *options) run(cmd *cobra.Command, fn func(ctx context.Context, e *env) error) error {
	ctx := cmd.Context()
	log := zap.New(zap.UseFlagOptions(&o.zap), zap.WriteTo(cmd.ErrOrStderr()))

	cfg, err := config.Load(o.configFile)
	if err != nil {
		return err
	}
	if o.agentPath != "" {
		cfg.Agent.Path = o.agentPath
	}
	if o.scratchFile != "" {
		cfg.Agent.ScratchFile = o.scratchFile
	}
	if o.commandTimeout != 0 {
		cfg.Agent.CommandTimeout = o.commandTimeout
	}

	commands := cfg.NewJournal(log.WithName("journal"))
	journalCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go commands.Start(journalCtx)

	client, err := rwe.NewClient(log.WithName("rwe"), cfg.ClientOptions(o.executor, commands))
	if err != nil {
		return err
	}

	err = fn(ctx, &env{log: log, config: cfg, client: client, out: cmd.OutOrStdout()})
	if o.trace {
		printJournal(cmd.ErrOrStderr(), commands)
	}
	return err
}

func (o *options) newHostReader(log logr.Logger) (pci.Reader, error) {
	if o.hostReader != nil {
		return o.hostReader, nil
	}
	return pci.NewSysfsReader(log, pci.SysfsOptions{Class: pci.ClassNVMe})
}

func printJournal(w io.Writer, lister journal.Lister) {
	for _, entry := range lister.List() {
		fmt.Fprintf(w, "%s exit=%d duration=%s %s\n",
			entry.Time.Format(time.RFC3339), entry.ExitCode, entry.Duration, entry.Command)
		for _, line := range strings.Split(strings.TrimRight(entry.Output, "\r\n"), "\n") {
			fmt.Fprintf(w, "    %s\n", strings.TrimRight(line, "\r"))
		}
	}
}

func parseUint(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return v, nil
}

// Copyright 2024 The solcd Authors
// This file is part of solcd.
//
// solcd is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// solcd is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with solcd. If not, see <http://www.gnu.org/licenses/>.

// solcd is an HTTP compile service for Solidity sources with remote imports.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/sunyihoo/solcd/compiler"
	"github.com/sunyihoo/solcd/internal/flags"
	"github.com/sunyihoo/solcd/log"
	"github.com/sunyihoo/solcd/server"
	"github.com/urfave/cli/v2"
)

var (
	serverFlags = []cli.Flag{
		&cli.StringFlag{
			Name:     "http.addr",
			Usage:    "HTTP server listening interface",
			Value:    server.DefaultConfig.Host,
			Category: flags.ServerCategory,
		},
		&cli.IntFlag{
			Name:     "http.port",
			Usage:    "HTTP server listening port",
			Value:    server.DefaultConfig.Port,
			Category: flags.ServerCategory,
		},
		&cli.StringSliceFlag{
			Name:     "http.corsdomain",
			Usage:    "Comma separated list of origins to accept cross-origin requests from",
			Category: flags.ServerCategory,
		},
		&cli.Float64Flag{
			Name:     "http.ratelimit",
			Usage:    "Requests admitted per second (0 = unlimited)",
			Value:    server.DefaultConfig.RateLimit,
			Category: flags.ServerCategory,
		},
		&cli.IntFlag{
			Name:     "http.rateburst",
			Usage:    "Burst allowance of the request rate limiter",
			Value:    server.DefaultConfig.RateBurst,
			Category: flags.ServerCategory,
		},
		&cli.Int64Flag{
			Name:     "http.bodylimit",
			Usage:    "Maximum request body size in bytes",
			Value:    server.DefaultConfig.BodyLimit,
			Category: flags.ServerCategory,
		},
		&cli.DurationFlag{
			Name:     "http.timeout",
			Usage:    "Deadline for one compile request, including remote fetches",
			Value:    server.DefaultConfig.RequestTimeout,
			Category: flags.ServerCategory,
		},
	}
	resolverFlags = []cli.Flag{
		&cli.StringSliceFlag{
			Name:     "resolver.allowhosts",
			Usage:    "Comma separated list of hosts remote imports may be fetched from",
			Category: flags.ResolverCategory,
		},
		&cli.StringFlag{
			Name:     "resolver.cdn",
			Usage:    "Base URL package imports are served from",
			Value:    resolverDefaults.CDNBase,
			Category: flags.ResolverCategory,
		},
		&cli.IntFlag{
			Name:     "resolver.maxsources",
			Usage:    "Maximum number of source files in one import graph",
			Value:    resolverDefaults.MaxSources,
			Category: flags.ResolverCategory,
		},
		&cli.Int64Flag{
			Name:     "resolver.maxbytes",
			Usage:    "Maximum cumulative source bytes in one import graph",
			Value:    resolverDefaults.MaxBytes,
			Category: flags.ResolverCategory,
		},
		&cli.IntFlag{
			Name:     "resolver.concurrency",
			Usage:    "Maximum concurrent remote fetches per request",
			Value:    resolverDefaults.FetchConcurrency,
			Category: flags.ResolverCategory,
		},
	}
	compilerFlags = []cli.Flag{
		&cli.StringFlag{
			Name:     "solc",
			Usage:    "Path of the default solc executable (used when no version is requested)",
			Category: flags.CompilerCategory,
		},
		&flags.DirectoryFlag{
			Name:     "compiler.cachedir",
			Usage:    "Directory downloaded compiler builds are cached in",
			Category: flags.CompilerCategory,
		},
		&cli.StringFlag{
			Name:     "compiler.listurl",
			Usage:    "Base URL of the compiler release index",
			Value:    compiler.DefaultConfig.ListURL,
			Category: flags.CompilerCategory,
		},
		&cli.DurationFlag{
			Name:     "compiler.indexttl",
			Usage:    "How long a fetched release index stays fresh",
			Value:    compiler.DefaultConfig.IndexTTL,
			Category: flags.CompilerCategory,
		},
	}
	loggingFlags = []cli.Flag{
		&cli.IntFlag{
			Name:     "verbosity",
			Usage:    "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
			Value:    3,
			Category: flags.LoggingCategory,
		},
		&cli.StringFlag{
			Name:     "log.format",
			Usage:    "Log format to use (json|logfmt|terminal)",
			Value:    "terminal",
			Category: flags.LoggingCategory,
		},
	}
)

var app = flags.NewApp("the Solidity compile service command line interface")

func init() {
	app.Name = "solcd"
	app.Action = solcd
	app.Commands = []*cli.Command{
		dumpConfigCommand,
		versionCommand,
	}
	app.Flags = flags.Merge(
		[]cli.Flag{configFileFlag},
		serverFlags,
		resolverFlags,
		compilerFlags,
		loggingFlags,
	)
	app.Before = func(ctx *cli.Context) error {
		return setupLogging(ctx)
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(ctx *cli.Context) error {
	var (
		level   = log.FromLegacyLevel(ctx.Int("verbosity"))
		output  = io.Writer(os.Stderr)
		handler slog.Handler
	)
	switch format := ctx.String("log.format"); format {
	case "json":
		handler = log.JSONHandlerWithLevel(output, level)
	case "logfmt":
		handler = log.LogfmtHandlerWithLevel(output, level)
	case "", "terminal":
		useColor := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
		handler = log.NewTerminalHandlerWithLevel(output, level, useColor)
	default:
		return fmt.Errorf("unknown log format: %v", format)
	}
	log.SetDefault(log.NewLogger(handler))
	return nil
}

// solcd starts the HTTP service and blocks until interrupted.
func solcd(ctx *cli.Context) error {
	if args := ctx.Args().Slice(); len(args) > 0 {
		return fmt.Errorf("invalid command: %q", args[0])
	}
	cfg := loadBaseConfig(ctx)

	registry := compiler.NewRegistry(cfg.Compiler, nil, log.Root())
	srv := server.New(cfg.Server, cfg.Resolver, registry, log.Root())
	if err := srv.Start(); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Stop(shutdownCtx)
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)
	<-sigc
	log.Info("Got interrupt, shutting down...")
	return nil
}

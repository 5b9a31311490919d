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

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"runtime"
	"unicode"

	"github.com/naoina/toml"
	"github.com/sunyihoo/solcd/compiler"
	"github.com/sunyihoo/solcd/internal/flags"
	"github.com/sunyihoo/solcd/server"
	"github.com/sunyihoo/solcd/solidity/resolver"
	"github.com/sunyihoo/solcd/version"
	"github.com/urfave/cli/v2"
)

var (
	configFileFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "TOML configuration file",
		Category: flags.MiscCategory,
	}

	dumpConfigCommand = &cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Export configuration values in a TOML format",
		ArgsUsage:   "",
		Flags:       flags.Merge(serverFlags, resolverFlags, compilerFlags),
		Description: `Export configuration values in TOML format (to stdout).`,
	}

	versionCommand = &cli.Command{
		Action:    printVersion,
		Name:      "version",
		Usage:     "Print version numbers",
		ArgsUsage: "",
	}
)

var resolverDefaults = resolver.DefaultConfig

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

type solcdConfig struct {
	Server   server.Config
	Resolver resolver.Config
	Compiler compiler.Config
}

func loadConfig(file string, cfg *solcdConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// loadBaseConfig assembles the configuration: package defaults first, then the
// config file, then command line flags.
func loadBaseConfig(ctx *cli.Context) solcdConfig {
	cfg := solcdConfig{
		Server:   server.DefaultConfig,
		Resolver: resolver.DefaultConfig,
		Compiler: compiler.DefaultConfig,
	}
	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	applyFlags(ctx, &cfg)
	return cfg
}

// applyFlags overrides config values with explicitly set command line flags.
func applyFlags(ctx *cli.Context, cfg *solcdConfig) {
	if ctx.IsSet("http.addr") {
		cfg.Server.Host = ctx.String("http.addr")
	}
	if ctx.IsSet("http.port") {
		cfg.Server.Port = ctx.Int("http.port")
	}
	if ctx.IsSet("http.corsdomain") {
		cfg.Server.CORSAllowedOrigins = ctx.StringSlice("http.corsdomain")
	}
	if ctx.IsSet("http.ratelimit") {
		cfg.Server.RateLimit = ctx.Float64("http.ratelimit")
	}
	if ctx.IsSet("http.rateburst") {
		cfg.Server.RateBurst = ctx.Int("http.rateburst")
	}
	if ctx.IsSet("http.bodylimit") {
		cfg.Server.BodyLimit = ctx.Int64("http.bodylimit")
	}
	if ctx.IsSet("http.timeout") {
		cfg.Server.RequestTimeout = ctx.Duration("http.timeout")
	}
	if ctx.IsSet("resolver.allowhosts") {
		cfg.Resolver.AllowedHosts = ctx.StringSlice("resolver.allowhosts")
	}
	if ctx.IsSet("resolver.cdn") {
		cfg.Resolver.CDNBase = ctx.String("resolver.cdn")
	}
	if ctx.IsSet("resolver.maxsources") {
		cfg.Resolver.MaxSources = ctx.Int("resolver.maxsources")
	}
	if ctx.IsSet("resolver.maxbytes") {
		cfg.Resolver.MaxBytes = ctx.Int64("resolver.maxbytes")
	}
	if ctx.IsSet("resolver.concurrency") {
		cfg.Resolver.FetchConcurrency = ctx.Int("resolver.concurrency")
	}
	if ctx.IsSet("solc") {
		cfg.Compiler.SolcPath = ctx.String("solc")
	}
	if ctx.IsSet("compiler.cachedir") {
		cfg.Compiler.CacheDir = ctx.String("compiler.cachedir")
	}
	if ctx.IsSet("compiler.listurl") {
		cfg.Compiler.ListURL = ctx.String("compiler.listurl")
	}
	if ctx.IsSet("compiler.indexttl") {
		cfg.Compiler.IndexTTL = ctx.Duration("compiler.indexttl")
	}
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg := loadBaseConfig(ctx)
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

func printVersion(ctx *cli.Context) error {
	fmt.Println("solcd version", version.WithMeta)
	fmt.Println("Architecture:", runtime.GOARCH)
	fmt.Println("Go Version:", runtime.Version())
	fmt.Println("Operating System:", runtime.GOOS)
	return nil
}

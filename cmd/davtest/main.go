// Copyright 2026 The davtest Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command davtest runs protocol conformance test files against a
// calendaring or WebDAV server.
//
//	davtest --serverinfo serverinfo.xml tests/options.xml tests/propfind.xml
//
// The exit code is the number of test files that did not pass.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/davtools/davtest"
	"github.com/davtools/davtest/loader"
	"github.com/davtools/davtest/suite"

	_ "github.com/davtools/davtest/generators"
	_ "github.com/davtools/davtest/verifiers"
)

// envPrefix marks environment variables that override substitutions:
// DAVTEST_SUB_principal1 overrides $principal1:.
const envPrefix = "DAVTEST_SUB_"

var (
	serverInfoPath string
	dataDir        string
	envFile        string
	verbose        bool
	quiet          bool
	timeout        time.Duration
)

func main() {
	root := &cobra.Command{
		Use:           "davtest [flags] testfile.xml...",
		Short:         "run conformance test files against a calendaring server",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	root.Flags().StringVarP(&serverInfoPath, "serverinfo", "s", "", "server information XML file (required)")
	root.Flags().StringVarP(&dataDir, "data", "d", "", "directory resolved against relative body file paths")
	root.Flags().StringVar(&envFile, "env", "", "load environment variables from this file first")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every request at debug level")
	root.Flags().BoolVarP(&quiet, "quiet", "q", false, "log errors only")
	root.Flags().DurationVar(&timeout, "timeout", 0, "per-request timeout, 0 means the default")
	root.MarkFlagRequired("serverinfo")

	if err := root.Execute(); err != nil {
		if code, ok := err.(exitCode); ok {
			os.Exit(int(code))
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// exitCode carries the number of failed files through cobra's error
// return.
type exitCode int

func (c exitCode) Error() string { return fmt.Sprintf("%d test file(s) failed", int(c)) }

func run(cmd *cobra.Command, args []string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	sf, err := loader.LoadServerInfo(serverInfoPath, envOverrides(os.Environ()))
	if err != nil {
		return err
	}
	if dataDir != "" {
		sf.Info.DataDir = dataDir
	}

	s := sf.NewSession()
	s.Timeout = timeout
	s.Log = newLogger()

	stats := &suite.Stats{}
	failed := 0
	for _, path := range args {
		f, err := loader.LoadTestFile(path, s.Info)
		if err != nil {
			return err
		}
		f.Run(s)
		suite.PrintReport(os.Stdout, f)
		stats.Account(f)
		if f.Status > davtest.Pass {
			failed++
		}
	}
	stats.PrintSummary(os.Stdout)

	if failed > 0 {
		return exitCode(failed)
	}
	return nil
}

// envOverrides extracts substitution overrides from the environment.
func envOverrides(environ []string) map[string]string {
	overrides := map[string]string{}
	for _, kv := range environ {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		rest := strings.TrimPrefix(kv, envPrefix)
		if name, value, ok := strings.Cut(rest, "="); ok && name != "" {
			overrides[name] = value
		}
	}
	return overrides
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	switch {
	case verbose:
		log.SetLevel(logrus.DebugLevel)
	case quiet:
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}

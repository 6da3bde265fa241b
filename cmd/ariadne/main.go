// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:                   "ariadne [command]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "Ariadne is a taint-rule workbench.",
	Long: `Ariadne inspects taint-tracking rules and runs rule-test scenarios against the
taint core: sources, sinks, label preconditions and call-trace provenance.`,
}

func init() {
	rootCmd.AddCommand(newRulesCmd())
	rootCmd.AddCommand(newTestCmd())
}

func main() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

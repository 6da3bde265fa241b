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

package taint

import (
	"sync"

	"github.com/ariadne-tools/ariadne/analysis/config"
)

// The core's functions are total: diagnostics are a side channel, never part of the
// return contract. Operations that take no logger argument (value-level operations like
// pick) report through this package-level group.
var (
	pkgLogger   *config.LogGroup
	pkgLoggerMu sync.RWMutex
)

// SetLogger installs the log group used by operations that cannot thread one.
func SetLogger(l *config.LogGroup) {
	pkgLoggerMu.Lock()
	defer pkgLoggerMu.Unlock()
	pkgLogger = l
}

func logger() *config.LogGroup {
	pkgLoggerMu.RLock()
	l := pkgLogger
	pkgLoggerMu.RUnlock()
	if l == nil {
		pkgLoggerMu.Lock()
		defer pkgLoggerMu.Unlock()
		if pkgLogger == nil {
			pkgLogger = config.NewLogGroup(config.NewDefault())
		}
		l = pkgLogger
	}
	return l
}

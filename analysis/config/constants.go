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

package config

const (
	// DefaultSourceLabel is the label given to taint sources that do not declare one.
	DefaultSourceLabel = "__SOURCE__"

	// DefaultMaxTraceDepth is the default bound on call-trace depth kept for provenance.
	// -1 means that the depth limit is ignored.
	DefaultMaxTraceDepth = -1
)

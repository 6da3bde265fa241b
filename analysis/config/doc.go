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

/*
Package config implements the rule and scan configuration for the analyses.

A config file is a yaml file with a list of rules and scan options, e.g.:

	log-level: 3
	rules:
	  - id: command-injection
	    message: user input reaches exec
	    sources:
	      - label: USER_INPUT
	      - label: SANITIZED
	        requires: USER_INPUT && !CLEAN
	    sinks:
	      - id: exec

Each source may carry a boolean "requires" clause over labels. The clause is parsed once
at load time with go/parser; the taint core turns the parsed expression into a
precondition formula. A clause that does not parse is kept as an error on the source and
surfaces as a never-satisfied precondition, not as a load failure.
*/
package config

// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package workflow_test

import (
	"os"
	"testing"

	"go.opentelemetry.io/contrib/bridges/otelslog"
)

// Suite-wide telemetry. The workflow tests run against in-memory fakes, so
// no cloud clients are initialized here; the logger routes through the
// global OpenTelemetry provider, which is a no-op unless a test run wires
// up an exporter.
const tName = "github.com/spoonfeed/recipe-pipeline/tests/workflow"

var logger = otelslog.NewLogger(tName)

func TestMain(m *testing.M) {
	logger.Info("starting workflow test suite")
	exitCode := m.Run()
	logger.Info("workflow test suite complete")
	os.Exit(exitCode)
}

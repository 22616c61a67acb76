// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTrackerReports(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "Importing", 100, 25)

	tracker.Increment(10)
	assert.Empty(t, buf.String(), "no output before Start")

	tracker.Start()
	tracker.Increment(25)
	tracker.Increment(25)
	tracker.Update(150)

	assert.Equal(t, 100, tracker.Current())
	assert.Contains(t, buf.String(), "Importing: 100/100 (100.0%)")
	assert.Greater(t, tracker.Elapsed(), time.Duration(0))
}

func TestProgressTrackerFinish(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "", 0, 0)
	tracker.Start()
	tracker.Finish()

	out := buf.String()
	assert.Contains(t, out, "Progress: 0/0 (0.0%)")
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.Zero(t, tracker.Elapsed(), "finished tracker is stopped")
}

func TestProgressTrackerNilWriter(t *testing.T) {
	tracker := NewProgressTracker(nil, "x", 3, 1)
	tracker.Start()
	tracker.Increment(3)
	tracker.Finish()
}

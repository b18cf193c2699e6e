/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package faults

import (
	"fmt"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("episode", "ep-1")))
	assert.Equal(t, KindPreconditionFailed, KindOf(PreconditionFailed("no triage")))
	assert.Equal(t, KindInvalidInput, KindOf(InvalidInput("bad supervisor id")))
	assert.Equal(t, KindConflict, KindOf(Conflict("stale version")))
	assert.Equal(t, KindDependency, KindOf(Dependency("publish failed", fmt.Errorf("broker down"))))
	assert.Equal(t, Kind(""), KindOf(fmt.Errorf("plain error")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestClassificationSurvivesWrapping(t *testing.T) {
	err := pkgerrors.Wrap(NotFound("episode", "ep-2"), "loading episode")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsInvalidInput(err))

	err = pkgerrors.Wrap(pkgerrors.Wrap(Conflict("version 3 != 4"), "updating"), "recording decision")
	assert.True(t, IsConflict(err))
}

func TestDependencyExposesCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Dependency("bus publish", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "bus publish")
	assert.Contains(t, err.Error(), "connection refused")
}

// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package osruntime

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarto-go/qcore/pkg/hostruntime"
)

func TestFileRoundTrip(t *testing.T) {
	rt := New()
	dir := t.TempDir()
	p := filepath.Join(dir, "note.txt")

	require.NoError(t, rt.File().WriteFileString(p, "hello"))

	got, err := rt.File().ReadFileString(p)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	exists, err := rt.File().Exists(p, hostruntime.KindFile)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = rt.File().Exists(p, hostruntime.KindDir)
	require.NoError(t, err)
	assert.False(t, exists)

	meta, err := rt.File().Metadata(p)
	require.NoError(t, err)
	assert.Equal(t, int64(5), meta.Size)

	require.NoError(t, rt.File().Remove(p))
	exists, err = rt.File().Exists(p, hostruntime.KindAny)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDirectoryListing(t *testing.T) {
	rt := New()
	dir := t.TempDir()
	sub := filepath.Join(dir, "a", "b")

	require.NoError(t, rt.Dir().Create(sub, true))
	require.NoError(t, rt.File().WriteFileString(filepath.Join(dir, "x.txt"), "x"))

	entries, err := rt.Dir().List(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestTempDirCleansUp(t *testing.T) {
	rt := New()
	td, err := rt.Dir().TempDir("qcore-test")
	require.NoError(t, err)

	exists, err := rt.File().Exists(td.Path(), hostruntime.KindDir)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, td.Close())
	exists, err = rt.File().Exists(td.Path(), hostruntime.KindDir)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestExecPipeFailsOnNonZeroExit(t *testing.T) {
	rt := New()
	_, err := rt.Process().ExecPipe("false", nil, nil)
	var pe *hostruntime.ProcessError
	require.True(t, errors.As(err, &pe))
	assert.NotZero(t, pe.Code)
}

func TestExecCommandCapturesStdout(t *testing.T) {
	rt := New()
	result, err := rt.Process().ExecCommand("echo", []string{"hi"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "hi\n", string(result.Stdout))
}

func TestCPUTimeNotSupported(t *testing.T) {
	rt := New()
	_, err := rt.Info().CPUTime()
	assert.ErrorIs(t, err, hostruntime.ErrNotSupported)
}

func TestOutputRedirect(t *testing.T) {
	var stdout, stderr bytes.Buffer
	rt := New(WithStdio(&stdout, &stderr))
	require.NoError(t, rt.Output().StdoutWrite([]byte("out")))
	require.NoError(t, rt.Output().StderrWrite([]byte("err")))
	assert.Equal(t, "out", stdout.String())
	assert.Equal(t, "err", stderr.String())
}

func TestXDGHonorsOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	rt := New()
	dir, err := rt.XDG().Dir(hostruntime.XDGConfig, "qcore")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/custom/config", "qcore"), dir)
}

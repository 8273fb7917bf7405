// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package hostruntime defines the capability interface the AST core
// exposes to filters (spec.md section 4.11). The core never touches the
// os package directly for filter-visible operations; it goes through a
// Runtime so hosts can sandbox, broker, or fake every capability. The
// default unsandboxed implementation lives in hostruntime/osruntime; a
// hand-written in-memory fake for filter tests lives in
// hostruntime/hostruntimefakes.
package hostruntime

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate -header ../../license_prefix.txt

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
)

// ErrNotSupported is reported by capabilities a host chooses not to
// provide (network fetch, cpu-time info, ...).
var ErrNotSupported = errors.New("hostruntime: operation not supported")

// ProcessError reports a command that ran and exited non-zero.
type ProcessError struct {
	Code   int
	Stderr []byte
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("hostruntime: process failed with exit code %d", e.Code)
}

// EntryKind filters Exists checks.
type EntryKind int

// Recognized entry kinds; KindAny matches anything.
const (
	KindAny EntryKind = iota
	KindFile
	KindDir
	KindSymlink
)

// Metadata is the subset of file metadata the contract guarantees.
type Metadata struct {
	Size    int64
	Mode    fs.FileMode
	ModTime time.Time
	IsDir   bool
}

// ExecResult is the outcome of Process.ExecCommand.
type ExecResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// DirEntry is one listing entry.
type DirEntry struct {
	Path  string
	IsDir bool
}

// TempDir is an auto-cleaning temporary directory handle: Close removes
// the directory and everything under it.
type TempDir interface {
	Path() string
	Close() error
}

// FileSystem is the file capability.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	ReadFileString(path string) (string, error)
	WriteFile(path string, data []byte) error
	WriteFileString(path, data string) error
	// Exists reports whether path exists as the given kind (KindAny for
	// any entry type).
	Exists(path string, kind EntryKind) (bool, error)
	Metadata(path string) (Metadata, error)
	Copy(src, dst string) error
	Rename(src, dst string) error
	Remove(path string) error
}

// Directories is the directory capability. Cwd reads process-global
// state; hosts that sandbox should virtualize it.
type Directories interface {
	Create(path string, recursive bool) error
	Remove(path string, recursive bool) error
	List(path string) ([]DirEntry, error)
	Cwd() (string, error)
	// TempDir creates a fresh directory whose name embeds template.
	TempDir(template string) (TempDir, error)
}

// Process is the subprocess capability. Both operations block until the
// child exits.
type Process interface {
	ExecCommand(cmd string, args []string, stdin []byte) (ExecResult, error)
	// ExecPipe returns stdout and fails with *ProcessError on non-zero
	// exit.
	ExecPipe(cmd string, args []string, stdin []byte) ([]byte, error)
}

// Env is the environment capability; reads process-global state.
type Env interface {
	Get(name string) (string, bool)
	All() map[string]string
}

// XDGDir selects an XDG base directory.
type XDGDir int

// Recognized XDG base directories.
const (
	XDGConfig XDGDir = iota
	XDGData
	XDGCache
	XDGState
)

// XDG resolves base directories, honoring $XDG_* overrides.
type XDG interface {
	// Dir returns base for the given kind, joined with subpath when
	// non-empty.
	Dir(kind XDGDir, subpath string) (string, error)
}

// Net is the network capability; hosts may report ErrNotSupported.
type Net interface {
	// Fetch retrieves url, returning the body and its MIME type.
	Fetch(url string) (body []byte, mime string, err error)
}

// Info exposes host facts; CPUTime may report ErrNotSupported.
type Info interface {
	OSName() string
	Arch() string
	CPUTime() (time.Duration, error)
}

// Output is the stdio capability.
type Output interface {
	StdoutWrite(data []byte) error
	StderrWrite(data []byte) error
}

// Runtime aggregates every capability handed to a filter.
//
//counterfeiter:generate . Runtime
type Runtime interface {
	File() FileSystem
	Dir() Directories
	Process() Process
	Env() Env
	XDG() XDG
	Net() Net
	Info() Info
	Output() Output
}

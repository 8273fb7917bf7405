// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package hostruntimefakes provides a hand-written in-memory
// hostruntime.Runtime for filter tests, mirroring the shape of the
// teacher-style generated fakes without requiring go generate: every
// capability records its calls and serves from maps the test seeds.
package hostruntimefakes

import (
	"bytes"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/quarto-go/qcore/pkg/hostruntime"
)

// FakeRuntime is an in-memory hostruntime.Runtime. The zero value is
// not usable; construct with New.
type FakeRuntime struct {
	Files       map[string][]byte
	Dirs        map[string]bool
	EnvVars     map[string]string
	FetchBody   []byte
	FetchMime   string
	FetchErr    error
	ExecResults map[string]hostruntime.ExecResult
	Stdout      bytes.Buffer
	Stderr      bytes.Buffer

	WorkDir string
	XDGBase string

	// Call records, newest last.
	ExecCalls  []string
	FetchCalls []string
}

// New constructs an empty fake with a root working directory.
func New() *FakeRuntime {
	return &FakeRuntime{
		Files:       make(map[string][]byte),
		Dirs:        map[string]bool{"/": true},
		EnvVars:     make(map[string]string),
		ExecResults: make(map[string]hostruntime.ExecResult),
		WorkDir:     "/",
		XDGBase:     "/xdg",
	}
}

// File implements hostruntime.Runtime.
func (f *FakeRuntime) File() hostruntime.FileSystem { return &fakeFS{rt: f} }

// Dir implements hostruntime.Runtime.
func (f *FakeRuntime) Dir() hostruntime.Directories { return fakeDirs{f} }

// Process implements hostruntime.Runtime.
func (f *FakeRuntime) Process() hostruntime.Process { return fakeProcess{f} }

// Env implements hostruntime.Runtime.
func (f *FakeRuntime) Env() hostruntime.Env { return fakeEnv{f} }

// XDG implements hostruntime.Runtime.
func (f *FakeRuntime) XDG() hostruntime.XDG { return fakeXDG{f} }

// Net implements hostruntime.Runtime.
func (f *FakeRuntime) Net() hostruntime.Net { return fakeNet{f} }

// Info implements hostruntime.Runtime.
func (f *FakeRuntime) Info() hostruntime.Info { return fakeInfo{} }

// Output implements hostruntime.Runtime.
func (f *FakeRuntime) Output() hostruntime.Output { return fakeOutput{f} }

type fakeFS struct{ rt *FakeRuntime }

func (fs *fakeFS) ReadFile(p string) ([]byte, error) {
	data, ok := fs.rt.Files[p]
	if !ok {
		return nil, fmt.Errorf("fake: file %s does not exist", p)
	}
	return data, nil
}

func (fs *fakeFS) ReadFileString(p string) (string, error) {
	data, err := fs.ReadFile(p)
	return string(data), err
}

func (fs *fakeFS) WriteFile(p string, data []byte) error {
	fs.rt.Files[p] = append([]byte(nil), data...)
	return nil
}

func (fs *fakeFS) WriteFileString(p, data string) error {
	return fs.WriteFile(p, []byte(data))
}

func (fs *fakeFS) Exists(p string, kind hostruntime.EntryKind) (bool, error) {
	if _, ok := fs.rt.Files[p]; ok {
		return kind == hostruntime.KindAny || kind == hostruntime.KindFile, nil
	}
	if fs.rt.Dirs[p] {
		return kind == hostruntime.KindAny || kind == hostruntime.KindDir, nil
	}
	return false, nil
}

func (fs *fakeFS) Metadata(p string) (hostruntime.Metadata, error) {
	if data, ok := fs.rt.Files[p]; ok {
		return hostruntime.Metadata{Size: int64(len(data)), ModTime: time.Time{}}, nil
	}
	if fs.rt.Dirs[p] {
		return hostruntime.Metadata{IsDir: true}, nil
	}
	return hostruntime.Metadata{}, fmt.Errorf("fake: %s does not exist", p)
}

func (fs *fakeFS) Copy(src, dst string) error {
	data, err := fs.ReadFile(src)
	if err != nil {
		return err
	}
	return fs.WriteFile(dst, data)
}

func (fs *fakeFS) Rename(src, dst string) error {
	if err := fs.Copy(src, dst); err != nil {
		return err
	}
	delete(fs.rt.Files, src)
	return nil
}

func (fs *fakeFS) Remove(p string) error {
	if _, ok := fs.rt.Files[p]; !ok {
		return fmt.Errorf("fake: %s does not exist", p)
	}
	delete(fs.rt.Files, p)
	return nil
}

type fakeDirs struct{ rt *FakeRuntime }

func (d fakeDirs) Create(p string, recursive bool) error {
	if recursive {
		for cur := p; cur != "/" && cur != "."; cur = path.Dir(cur) {
			d.rt.Dirs[cur] = true
		}
		return nil
	}
	d.rt.Dirs[p] = true
	return nil
}

func (d fakeDirs) Remove(p string, recursive bool) error {
	delete(d.rt.Dirs, p)
	if recursive {
		prefix := strings.TrimSuffix(p, "/") + "/"
		for f := range d.rt.Files {
			if strings.HasPrefix(f, prefix) {
				delete(d.rt.Files, f)
			}
		}
		for dir := range d.rt.Dirs {
			if strings.HasPrefix(dir, prefix) {
				delete(d.rt.Dirs, dir)
			}
		}
	}
	return nil
}

func (d fakeDirs) List(p string) ([]hostruntime.DirEntry, error) {
	prefix := strings.TrimSuffix(p, "/") + "/"
	var out []hostruntime.DirEntry
	for f := range d.rt.Files {
		if strings.HasPrefix(f, prefix) && !strings.Contains(f[len(prefix):], "/") {
			out = append(out, hostruntime.DirEntry{Path: f})
		}
	}
	for dir := range d.rt.Dirs {
		if strings.HasPrefix(dir, prefix) && !strings.Contains(dir[len(prefix):], "/") {
			out = append(out, hostruntime.DirEntry{Path: dir, IsDir: true})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (d fakeDirs) Cwd() (string, error) { return d.rt.WorkDir, nil }

type fakeTempDir struct {
	rt   *FakeRuntime
	path string
}

func (t *fakeTempDir) Path() string { return t.path }

func (t *fakeTempDir) Close() error {
	return fakeDirs{t.rt}.Remove(t.path, true)
}

func (d fakeDirs) TempDir(template string) (hostruntime.TempDir, error) {
	p := fmt.Sprintf("/tmp/%s-%d", template, len(d.rt.Dirs))
	d.rt.Dirs[p] = true
	return &fakeTempDir{rt: d.rt, path: p}, nil
}

type fakeProcess struct{ rt *FakeRuntime }

func (p fakeProcess) ExecCommand(cmd string, args []string, stdin []byte) (hostruntime.ExecResult, error) {
	key := strings.Join(append([]string{cmd}, args...), " ")
	p.rt.ExecCalls = append(p.rt.ExecCalls, key)
	if result, ok := p.rt.ExecResults[key]; ok {
		return result, nil
	}
	return hostruntime.ExecResult{}, nil
}

func (p fakeProcess) ExecPipe(cmd string, args []string, stdin []byte) ([]byte, error) {
	result, err := p.ExecCommand(cmd, args, stdin)
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 {
		return nil, &hostruntime.ProcessError{Code: result.ExitCode, Stderr: result.Stderr}
	}
	return result.Stdout, nil
}

type fakeEnv struct{ rt *FakeRuntime }

func (e fakeEnv) Get(name string) (string, bool) {
	v, ok := e.rt.EnvVars[name]
	return v, ok
}

func (e fakeEnv) All() map[string]string {
	out := make(map[string]string, len(e.rt.EnvVars))
	for k, v := range e.rt.EnvVars {
		out[k] = v
	}
	return out
}

type fakeXDG struct{ rt *FakeRuntime }

func (x fakeXDG) Dir(kind hostruntime.XDGDir, subpath string) (string, error) {
	var name string
	switch kind {
	case hostruntime.XDGConfig:
		name = "config"
	case hostruntime.XDGData:
		name = "data"
	case hostruntime.XDGCache:
		name = "cache"
	case hostruntime.XDGState:
		name = "state"
	}
	out := path.Join(x.rt.XDGBase, name)
	if subpath != "" {
		out = path.Join(out, subpath)
	}
	return out, nil
}

type fakeNet struct{ rt *FakeRuntime }

func (n fakeNet) Fetch(url string) ([]byte, string, error) {
	n.rt.FetchCalls = append(n.rt.FetchCalls, url)
	if n.rt.FetchErr != nil {
		return nil, "", n.rt.FetchErr
	}
	if n.rt.FetchBody == nil {
		return nil, "", hostruntime.ErrNotSupported
	}
	return n.rt.FetchBody, n.rt.FetchMime, nil
}

type fakeInfo struct{}

func (fakeInfo) OSName() string { return "fakeos" }

func (fakeInfo) Arch() string { return "fake64" }

func (fakeInfo) CPUTime() (time.Duration, error) { return 0, hostruntime.ErrNotSupported }

type fakeOutput struct{ rt *FakeRuntime }

func (o fakeOutput) StdoutWrite(data []byte) error {
	_, err := o.rt.Stdout.Write(data)
	return err
}

func (o fakeOutput) StderrWrite(data []byte) error {
	_, err := o.rt.Stderr.Write(data)
	return err
}

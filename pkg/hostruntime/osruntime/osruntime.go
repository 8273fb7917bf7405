// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package osruntime is the default, unsandboxed hostruntime.Runtime
// backed by the local machine: the os package for files and
// directories, os/exec for processes, net/http (optionally with a
// bearer-token oauth2 transport) for fetches. Hosts that need
// sandboxing provide their own Runtime instead.
package osruntime

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	klog "k8s.io/klog/v2"

	"github.com/quarto-go/qcore/pkg/hostruntime"
)

// Runtime implements hostruntime.Runtime against the local OS.
type Runtime struct {
	httpClient *http.Client
	stdout     io.Writer
	stderr     io.Writer
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithBearerToken wraps Net.Fetch's transport with a static bearer
// token, the same oauth2 static-token pattern the upstream GitHub
// transport uses.
func WithBearerToken(token string) Option {
	return func(r *Runtime) {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		r.httpClient = &http.Client{Transport: &oauth2.Transport{Source: ts}}
	}
}

// WithStdio redirects the Output capability, used by tests and by hosts
// that capture filter output.
func WithStdio(stdout, stderr io.Writer) Option {
	return func(r *Runtime) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// New constructs a local Runtime.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		httpClient: http.DefaultClient,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// File implements hostruntime.Runtime.
func (r *Runtime) File() hostruntime.FileSystem { return fileSystem{} }

// Dir implements hostruntime.Runtime.
func (r *Runtime) Dir() hostruntime.Directories { return directories{} }

// Process implements hostruntime.Runtime.
func (r *Runtime) Process() hostruntime.Process { return process{} }

// Env implements hostruntime.Runtime.
func (r *Runtime) Env() hostruntime.Env { return env{} }

// XDG implements hostruntime.Runtime.
func (r *Runtime) XDG() hostruntime.XDG { return xdg{} }

// Net implements hostruntime.Runtime.
func (r *Runtime) Net() hostruntime.Net { return net{client: r.httpClient} }

// Info implements hostruntime.Runtime.
func (r *Runtime) Info() hostruntime.Info { return info{} }

// Output implements hostruntime.Runtime.
func (r *Runtime) Output() hostruntime.Output { return output{stdout: r.stdout, stderr: r.stderr} }

type fileSystem struct{}

func (fileSystem) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

func (fileSystem) ReadFileString(path string) (string, error) {
	data, err := os.ReadFile(path)
	return string(data), err
}

func (fileSystem) WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

func (fileSystem) WriteFileString(path, data string) error {
	return os.WriteFile(path, []byte(data), 0o644)
}

func (fileSystem) Exists(path string, kind hostruntime.EntryKind) (bool, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	switch kind {
	case hostruntime.KindFile:
		return fi.Mode().IsRegular(), nil
	case hostruntime.KindDir:
		return fi.IsDir(), nil
	case hostruntime.KindSymlink:
		return fi.Mode()&os.ModeSymlink != 0, nil
	default:
		return true, nil
	}
}

func (fileSystem) Metadata(path string) (hostruntime.Metadata, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return hostruntime.Metadata{}, err
	}
	return hostruntime.Metadata{
		Size:    fi.Size(),
		Mode:    fi.Mode(),
		ModTime: fi.ModTime(),
		IsDir:   fi.IsDir(),
	}, nil
}

func (fileSystem) Copy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (fileSystem) Rename(src, dst string) error { return os.Rename(src, dst) }

func (fileSystem) Remove(path string) error { return os.Remove(path) }

type directories struct{}

func (directories) Create(path string, recursive bool) error {
	if recursive {
		return os.MkdirAll(path, 0o755)
	}
	return os.Mkdir(path, 0o755)
}

func (directories) Remove(path string, recursive bool) error {
	if recursive {
		return os.RemoveAll(path)
	}
	return os.Remove(path)
}

func (directories) List(path string) ([]hostruntime.DirEntry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	out := make([]hostruntime.DirEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, hostruntime.DirEntry{
			Path:  filepath.Join(path, e.Name()),
			IsDir: e.IsDir(),
		})
	}
	return out, nil
}

func (directories) Cwd() (string, error) { return os.Getwd() }

type tempDir struct {
	path string
}

func (t *tempDir) Path() string { return t.path }

func (t *tempDir) Close() error { return os.RemoveAll(t.path) }

func (directories) TempDir(template string) (hostruntime.TempDir, error) {
	name := template
	if name == "" {
		name = "qcore"
	}
	path := filepath.Join(os.TempDir(), fmt.Sprintf("%s-%s", name, uuid.New().String()))
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, err
	}
	return &tempDir{path: path}, nil
}

type process struct{}

func (process) ExecCommand(cmd string, args []string, stdin []byte) (hostruntime.ExecResult, error) {
	c := exec.Command(cmd, args...)
	if stdin != nil {
		c.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	result := hostruntime.ExecResult{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return result, err
		}
		result.ExitCode = exitErr.ExitCode()
	}
	klog.V(6).Infof("osruntime: exec %s exited %d", cmd, result.ExitCode)
	return result, nil
}

func (p process) ExecPipe(cmd string, args []string, stdin []byte) ([]byte, error) {
	result, err := p.ExecCommand(cmd, args, stdin)
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 {
		return nil, &hostruntime.ProcessError{Code: result.ExitCode, Stderr: result.Stderr}
	}
	return result.Stdout, nil
}

type env struct{}

func (env) Get(name string) (string, bool) { return os.LookupEnv(name) }

func (env) All() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			out[kv[:i]] = kv[i+1:]
		}
	}
	return out
}

type xdg struct{}

func (xdg) Dir(kind hostruntime.XDGDir, subpath string) (string, error) {
	var base string
	var err error
	switch kind {
	case hostruntime.XDGConfig:
		if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
			base = v
		} else {
			base, err = os.UserConfigDir()
		}
	case hostruntime.XDGData:
		if v := os.Getenv("XDG_DATA_HOME"); v != "" {
			base = v
		} else if home, homeErr := os.UserHomeDir(); homeErr == nil {
			base = filepath.Join(home, ".local", "share")
		} else {
			err = homeErr
		}
	case hostruntime.XDGCache:
		if v := os.Getenv("XDG_CACHE_HOME"); v != "" {
			base = v
		} else {
			base, err = os.UserCacheDir()
		}
	case hostruntime.XDGState:
		if v := os.Getenv("XDG_STATE_HOME"); v != "" {
			base = v
		} else if home, homeErr := os.UserHomeDir(); homeErr == nil {
			base = filepath.Join(home, ".local", "state")
		} else {
			err = homeErr
		}
	}
	if err != nil {
		return "", err
	}
	if subpath != "" {
		base = filepath.Join(base, subpath)
	}
	return base, nil
}

type net struct {
	client *http.Client
}

func (n net) Fetch(url string) ([]byte, string, error) {
	resp, err := n.client.Get(url)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("osruntime: fetch %s: status %s", url, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Type"), nil
}

type info struct{}

func (info) OSName() string { return runtime.GOOS }

func (info) Arch() string { return runtime.GOARCH }

func (info) CPUTime() (time.Duration, error) {
	return 0, hostruntime.ErrNotSupported
}

type output struct {
	stdout io.Writer
	stderr io.Writer
}

func (o output) StdoutWrite(data []byte) error {
	_, err := o.stdout.Write(data)
	return err
}

func (o output) StderrWrite(data []byte) error {
	_, err := o.stderr.Write(data)
	return err
}

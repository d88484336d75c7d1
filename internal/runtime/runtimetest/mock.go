// Package runtimetest provides testify mocks for the runtime contracts.
package runtimetest

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"freshstart/pkg/runtime"
)

// MockCommandRunner is a mock implementation of runtime.CommandRunner.
type MockCommandRunner struct {
	mock.Mock
}

func NewMockCommandRunner() *MockCommandRunner {
	return &MockCommandRunner{}
}

func (m *MockCommandRunner) Run(ctx context.Context, dir string, name string, args ...string) error {
	ret := m.Called(ctx, dir, name, args)
	return ret.Error(0)
}

func (m *MockCommandRunner) Output(ctx context.Context, dir string, name string, args ...string) (string, error) {
	ret := m.Called(ctx, dir, name, args)
	return ret.String(0), ret.Error(1)
}

// MockContainerRuntime is a mock implementation of runtime.ContainerRuntime.
type MockContainerRuntime struct {
	mock.Mock
}

func NewMockContainerRuntime() *MockContainerRuntime {
	return &MockContainerRuntime{}
}

func (m *MockContainerRuntime) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockContainerRuntime) PullImage(ctx context.Context, image string) error {
	return m.Called(ctx, image).Error(0)
}

func (m *MockContainerRuntime) RunContainer(ctx context.Context, opts runtime.RunOptions) (io.ReadCloser, error) {
	ret := m.Called(ctx, opts)
	var rc io.ReadCloser
	if v := ret.Get(0); v != nil {
		rc = v.(io.ReadCloser)
	}
	return rc, ret.Error(1)
}

func (m *MockContainerRuntime) Prune(ctx context.Context) (runtime.PruneReport, error) {
	ret := m.Called(ctx)
	return ret.Get(0).(runtime.PruneReport), ret.Error(1)
}

// ReadCloser serves fixed output and returns closeErr from Close.
type ReadCloser struct {
	data     []byte
	pos      int
	closeErr error
	Closed   bool
}

func NewReadCloser(data string, closeErr error) *ReadCloser {
	return &ReadCloser{data: []byte(data), closeErr: closeErr}
}

func (r *ReadCloser) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

func (r *ReadCloser) Close() error {
	r.Closed = true
	return r.closeErr
}

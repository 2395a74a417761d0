// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package lifecycle

import (
	"errors"
	"testing"

	"github.com/holdtotalk/daemon/internal/testutil"
)

// fakeEngine is a minimal Engine double for exercising the daemon's
// command handlers without a real capture/VAD/model pipeline.
type fakeEngine struct {
	dictating   bool
	startErr    error
	stopErr     error
	modelName   string
	modelLoaded bool
	loadedPath  string
	shutdowns   int
}

func (f *fakeEngine) StartDictation() error {
	if f.startErr != nil {
		return f.startErr
	}
	f.dictating = true
	return nil
}

func (f *fakeEngine) StopDictation() error {
	if f.stopErr != nil {
		return f.stopErr
	}
	f.dictating = false
	return nil
}

func (f *fakeEngine) IsDictating() bool { return f.dictating }
func (f *fakeEngine) ModelName() string { return f.modelName }
func (f *fakeEngine) ModelLoaded() bool { return f.modelLoaded }

func (f *fakeEngine) LoadModel(path string) error {
	f.modelLoaded = true
	f.loadedPath = path
	return nil
}

func (f *fakeEngine) UnloadModel() error {
	f.modelLoaded = false
	return nil
}

func (f *fakeEngine) Shutdown() { f.shutdowns++ }

type fakeHotkeys struct {
	startErr error
}

func (f *fakeHotkeys) Start() error { return f.startErr }

func newTestDaemon(engine *fakeEngine, hotkeys *fakeHotkeys) *Daemon {
	return New("/tmp/unused.sock", engine, hotkeys, testutil.NewMockLogger())
}

func TestHandleStartStopDictationDelegatesToEngine(t *testing.T) {
	engine := &fakeEngine{modelName: "mock", modelLoaded: true}
	d := newTestDaemon(engine, &fakeHotkeys{})
	d.setState(StateIdle)

	resp := d.handleStartDictation(Request{Command: CmdStartDictation})
	if resp.Kind != RespOk {
		t.Fatalf("expected RespOk, got %v (%s)", resp.Kind, resp.Message)
	}
	if !engine.dictating {
		t.Error("expected engine to be dictating after start")
	}

	resp = d.handleStopDictation(Request{Command: CmdStopDictation})
	if resp.Kind != RespOk {
		t.Fatalf("expected RespOk, got %v (%s)", resp.Kind, resp.Message)
	}
	if engine.dictating {
		t.Error("expected engine to have stopped dictating")
	}
}

func TestHandleStartDictationSurfacesEngineError(t *testing.T) {
	engine := &fakeEngine{startErr: errors.New("boom")}
	d := newTestDaemon(engine, &fakeHotkeys{})

	resp := d.handleStartDictation(Request{Command: CmdStartDictation})
	if resp.Kind != RespError {
		t.Fatalf("expected RespError, got %v", resp.Kind)
	}
	if resp.Message != "boom" {
		t.Errorf("expected error message to propagate, got %q", resp.Message)
	}
}

func TestHandleGetStatusReflectsEngineAndDaemonState(t *testing.T) {
	engine := &fakeEngine{modelName: "mock", modelLoaded: true, dictating: true}
	d := newTestDaemon(engine, &fakeHotkeys{})
	d.setState(StateActive)

	resp := d.handleGetStatus(Request{Command: CmdGetStatus})
	if resp.Kind != RespStatus || resp.Status == nil {
		t.Fatalf("expected RespStatus, got %v", resp.Kind)
	}
	if resp.Status.State != StateActive {
		t.Errorf("expected state %q, got %q", StateActive, resp.Status.State)
	}
	if !resp.Status.ModelLoaded || resp.Status.ModelName != "mock" {
		t.Errorf("expected model status to reflect engine, got %+v", resp.Status)
	}
	if !resp.Status.IsDictating {
		t.Error("expected IsDictating true")
	}
}

func TestHandleShutdownIsIdempotentAndClosesDoneChOnce(t *testing.T) {
	engine := &fakeEngine{}
	d := newTestDaemon(engine, &fakeHotkeys{})

	resp := d.handleShutdown(Request{Command: CmdShutdown})
	if resp.Kind != RespOk {
		t.Fatalf("expected RespOk, got %v", resp.Kind)
	}
	// A second shutdown request must not panic by closing doneCh twice.
	resp = d.handleShutdown(Request{Command: CmdShutdown})
	if resp.Kind != RespOk {
		t.Fatalf("expected RespOk on repeated shutdown, got %v", resp.Kind)
	}

	select {
	case <-d.doneCh:
	default:
		t.Error("expected doneCh to be closed after shutdown command")
	}
}

func TestHandleLoadAndUnloadModelDelegateToEngine(t *testing.T) {
	engine := &fakeEngine{}
	d := newTestDaemon(engine, &fakeHotkeys{})

	resp := d.handleLoadModel(Request{Command: CmdLoadModel, Params: map[string]string{"path": "/models/base.bin"}})
	if resp.Kind != RespOk {
		t.Fatalf("expected RespOk, got %v (%s)", resp.Kind, resp.Message)
	}
	if !engine.modelLoaded || engine.loadedPath != "/models/base.bin" {
		t.Errorf("expected engine to load /models/base.bin, got %+v", engine)
	}

	resp = d.handleUnloadModel(Request{Command: CmdUnloadModel})
	if resp.Kind != RespOk {
		t.Fatalf("expected RespOk, got %v", resp.Kind)
	}
	if engine.modelLoaded {
		t.Error("expected model unloaded")
	}
}

func TestHandleGetConfigServesAttachedSource(t *testing.T) {
	engine := &fakeEngine{}
	d := newTestDaemon(engine, &fakeHotkeys{})

	resp := d.handleGetConfig(Request{Command: CmdGetConfig})
	if resp.Kind != RespError {
		t.Fatalf("expected RespError with no config source, got %v", resp.Kind)
	}

	d.ConfigYAML = func() (string, error) { return "hotkey: ctrl+shift+space\n", nil }
	resp = d.handleGetConfig(Request{Command: CmdGetConfig})
	if resp.Kind != RespConfig || resp.Config == "" {
		t.Fatalf("expected RespConfig with content, got %v (%q)", resp.Kind, resp.Config)
	}
}

type fakeDeviceLister struct{ names []string }

func (f *fakeDeviceLister) ListDevices() ([]string, error) { return f.names, nil }

func TestHandleListDevicesServesAttachedLister(t *testing.T) {
	engine := &fakeEngine{}
	d := newTestDaemon(engine, &fakeHotkeys{})

	resp := d.handleListDevices(Request{Command: CmdListDevices})
	if resp.Kind != RespError {
		t.Fatalf("expected RespError with no device lister, got %v", resp.Kind)
	}

	d.Devices = &fakeDeviceLister{names: []string{"default", "USB Mic"}}
	resp = d.handleListDevices(Request{Command: CmdListDevices})
	if resp.Kind != RespList || len(resp.List) != 2 {
		t.Fatalf("expected RespList with 2 devices, got %v (%v)", resp.Kind, resp.List)
	}
}

func TestStatusReportsActiveWhileDictating(t *testing.T) {
	engine := &fakeEngine{dictating: true}
	d := newTestDaemon(engine, &fakeHotkeys{})
	d.setState(StateIdle)

	st := d.status()
	if st.State != StateActive {
		t.Errorf("expected Active while dictating, got %q", st.State)
	}

	engine.dictating = false
	if st := d.status(); st.State != StateIdle {
		t.Errorf("expected Idle when not dictating, got %q", st.State)
	}
}

func TestHandleUnsupportedReportsExternalCollaborator(t *testing.T) {
	engine := &fakeEngine{}
	d := newTestDaemon(engine, &fakeHotkeys{})

	resp := d.handleUnsupported(Request{Command: CmdGetHistory})
	if resp.Kind != RespError {
		t.Fatalf("expected RespError, got %v", resp.Kind)
	}
}

package launch

import (
	"context"
	"errors"
	"io"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelscan/kestrel/internal/comm"
	"github.com/kestrelscan/kestrel/internal/core/domain"
	"github.com/kestrelscan/kestrel/internal/core/ports"
)

type fakeStore struct {
	resets int
}

func (f *fakeStore) Get(string) (*domain.PluginMetadata, bool) { return nil, false }
func (f *fakeStore) Add(*domain.PluginMetadata, string) error  { return nil }
func (f *fakeStore) Reset() error                              { f.resets++; return nil }
func (f *fakeStore) Close() error                              { return nil }

type fakeKB struct {
	resets int
}

func (f *fakeKB) Get(string) (string, bool) { return "", false }
func (f *fakeKB) Set(string, string)        {}
func (f *fakeKB) Reset() error              { f.resets++; return nil }

type fakeRunner struct {
	called bool
	req    ports.RunRequest
	err    error
}

func (f *fakeRunner) Describe(context.Context, string, ports.ExecMode) (*domain.PluginMetadata, error) {
	return nil, errors.New("not used on the execution path")
}

func (f *fakeRunner) Run(ctx context.Context, req ports.RunRequest) error {
	f.called = true
	f.req = req
	return f.err
}

type fakeDropper struct {
	called bool
	user   string
	result ports.DropResult
	err    error
}

func (f *fakeDropper) Drop(user string) (ports.DropResult, error) {
	f.called = true
	f.user = user
	return f.result, f.err
}

type childFixture struct {
	runtime *ChildRuntime
	store   *fakeStore
	kb      *fakeKB
	interp  *fakeRunner
	dropper *fakeDropper
}

func newChildFixture(settings Settings) *childFixture {
	f := &childFixture{
		store:   &fakeStore{},
		kb:      &fakeKB{},
		interp:  &fakeRunner{},
		dropper: &fakeDropper{},
	}
	f.runtime = &ChildRuntime{
		Cache:    f.store,
		KB:       f.kb,
		Interp:   f.interp,
		Dropper:  f.dropper,
		Tracker:  NewTracker(),
		Settings: settings,
	}
	return f
}

func testContext() *ExecutionContext {
	return NewExecutionContext(
		domain.Host{Name: "target.example.org"},
		map[string]string{"scan_id": "42"},
		"check.nasl",
		"/plugins/check.nasl",
		"1.3.6.1.4.1.25623.1.0.900001",
	)
}

// runChild runs the child runtime over a pipe and returns everything written
// to the control channel.
func runChild(t *testing.T, f *childFixture, ec *ExecutionContext) []comm.Message {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	f.runtime.Run(context.Background(), ec, w)
	w.Close()

	var msgs []comm.Message
	for {
		msg, err := comm.ReadMessage(r)
		if err == io.EOF {
			return msgs
		}
		require.NoError(t, err)
		msgs = append(msgs, msg)
	}
}

func TestChildRuntime_SendsExactlyOneCompletionFrame(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*childFixture)
	}{
		{"InterpreterSucceeds", func(f *childFixture) {}},
		{"InterpreterFails", func(f *childFixture) {
			f.interp.err = errors.New("script blew up")
		}},
		{"PrivilegeDropFails", func(f *childFixture) {
			f.runtime.Settings.DropPrivileges = true
			f.dropper.result = ports.DropFailed
			f.dropper.err = errors.New("setuid refused")
		}},
		{"StrictDropAborts", func(f *childFixture) {
			f.runtime.Settings.DropPrivileges = true
			f.runtime.Settings.DropPrivilegesStrict = true
			f.dropper.result = ports.DropFailed
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newChildFixture(Settings{})
			tt.setup(f)

			msgs := runChild(t, f, testContext())

			require.Len(t, msgs, 1, "completion is the sole liveness signal and must be sent once")
			assert.True(t, msgs[0].Finished())
		})
	}
}

func TestChildRuntime_ResetsHandlesBeforeExecution(t *testing.T) {
	f := newChildFixture(Settings{})
	runChild(t, f, testContext())

	assert.Equal(t, 1, f.store.resets, "stale cache connections must not be reused")
	assert.Equal(t, 1, f.kb.resets, "knowledge base must be rebound to this execution")
}

func TestChildRuntime_InjectsControlSocketIntoGlobals(t *testing.T) {
	f := newChildFixture(Settings{})
	ec := testContext()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	fd := int(w.Fd())

	f.runtime.Run(context.Background(), ec, w)
	w.Close()

	assert.Equal(t, strconv.Itoa(fd), ec.Globals[GlobalSocketKey])
	assert.Equal(t, ec.Globals, f.interp.req.Globals,
		"the script layer must see the injected socket")
}

func TestChildRuntime_PassesModeAndIdentityToInterpreter(t *testing.T) {
	f := newChildFixture(Settings{NoSignatureCheck: true})
	ec := testContext()
	runChild(t, f, ec)

	require.True(t, f.interp.called)
	assert.Equal(t, ec.PluginPath, f.interp.req.Path)
	assert.Equal(t, ec.PluginOID, f.interp.req.OID)
	assert.Equal(t, ec.Host, f.interp.req.Target)
	assert.NotZero(t, f.interp.req.Mode&ports.ModeAlwaysSigned)
	assert.Zero(t, f.interp.req.Mode&ports.ModeDescription)
}

func TestChildRuntime_FailOpenPrivilegeDrop(t *testing.T) {
	f := newChildFixture(Settings{DropPrivileges: true, DropPrivilegesUser: "scanner"})
	f.dropper.result = ports.DropFailed
	f.dropper.err = errors.New("setuid refused")

	runChild(t, f, testContext())

	assert.True(t, f.dropper.called)
	assert.Equal(t, "scanner", f.dropper.user)
	assert.True(t, f.interp.called, "execution proceeds despite the failed drop")
}

func TestChildRuntime_StrictPrivilegeDropAbortsExecution(t *testing.T) {
	f := newChildFixture(Settings{DropPrivileges: true, DropPrivilegesStrict: true})
	f.dropper.result = ports.DropFailed

	runChild(t, f, testContext())

	assert.False(t, f.interp.called, "strict mode must not run the script after a failed drop")
}

func TestChildRuntime_NotPrivilegedIsNotAFailure(t *testing.T) {
	f := newChildFixture(Settings{DropPrivileges: true, DropPrivilegesStrict: true})
	f.dropper.result = ports.DropNotPrivileged

	runChild(t, f, testContext())

	assert.True(t, f.interp.called)
}

func TestChildRuntime_SkipsDropWhenDisabled(t *testing.T) {
	f := newChildFixture(Settings{})
	runChild(t, f, testContext())
	assert.False(t, f.dropper.called)
}

func TestChildRuntime_ContextIsolation(t *testing.T) {
	shared := map[string]string{"scan_id": "42"}
	ec1 := NewExecutionContext(domain.Host{Name: "host-a"}, shared, "p.nasl", "/plugins/p.nasl", "1.0")
	ec2 := NewExecutionContext(domain.Host{Name: "host-b"}, shared, "p.nasl", "/plugins/p.nasl", "1.0")

	// Both pipes are open at once so the two executions hold distinct
	// descriptors, as two concurrent launches would.
	r1, w1, err := os.Pipe()
	require.NoError(t, err)
	defer r1.Close()
	r2, w2, err := os.Pipe()
	require.NoError(t, err)
	defer r2.Close()

	f1 := newChildFixture(Settings{})
	f2 := newChildFixture(Settings{})
	f1.runtime.Run(context.Background(), ec1, w1)
	f2.runtime.Run(context.Background(), ec2, w2)
	w1.Close()
	w2.Close()

	assert.NotEqual(t, ec1.ID, ec2.ID)
	assert.NotEqual(t, ec1.Globals[GlobalSocketKey], ec2.Globals[GlobalSocketKey],
		"each execution sees only its own socket descriptor")
	_, leaked := shared[GlobalSocketKey]
	assert.False(t, leaked, "the caller's globals must never observe child mutations")
	assert.NotSame(t, f1.runtime.KB, f2.runtime.KB)
}

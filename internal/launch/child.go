package launch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/kestrelscan/kestrel/internal/comm"
	"github.com/kestrelscan/kestrel/internal/core/ports"
)

// GlobalSocketKey is the globals entry under which the child publishes the
// control socket descriptor to the script execution layer.
const GlobalSocketKey = "global_socket"

// Settings are the configuration flags the child runtime reads. All are
// sourced externally and never written by this package.
type Settings struct {
	// BeNice lowers the child's scheduling priority before execution
	BeNice bool

	// NiceIncrement is how much the niceness is raised when BeNice is set
	NiceIncrement int

	// NoSignatureCheck bypasses script signature verification
	NoSignatureCheck bool

	// DropPrivileges reduces privileges before executing the script
	DropPrivileges bool

	// DropPrivilegesUser selects the target user, "" for the default
	DropPrivilegesUser string

	// DropPrivilegesStrict aborts the execution (still signaling completion)
	// when a required privilege drop fails for any reason other than not
	// being privileged. Default is the historical fail-open behavior.
	DropPrivilegesStrict bool
}

// ChildRuntime is the logic that runs inside the isolated execution process.
// Every step is best-effort and logged; whatever happens, Run ends by sending
// exactly one completion frame on the control socket, which is the only
// liveness signal the controller has for this child.
type ChildRuntime struct {
	Cache    ports.MetadataStore
	KB       ports.KnowledgeBase
	Interp   ports.Interpreter
	Dropper  ports.PrivilegeDropper
	Tracker  *Tracker
	Settings Settings
	Logger   *slog.Logger
}

// Run executes the plugin described by ec against its target, with sock as
// the control socket.
func (r *ChildRuntime) Run(ctx context.Context, ec *ExecutionContext, sock *os.File) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("id", ec.ID, "plugin", ec.PluginName, "host", ec.Host.Name)

	defer func() {
		if err := comm.SendFinished(sock); err != nil {
			logger.Error("could not send completion signal", "error", err)
		}
	}()

	// Stale cache connections from the parent must not be reused.
	if r.Cache != nil {
		if err := r.Cache.Reset(); err != nil {
			logger.Warn("could not reset metadata cache connection", "error", err)
		}
	}

	if r.Settings.BeNice {
		if err := renice(r.Settings.NiceIncrement); err != nil {
			logger.Debug("unable to renice process", "error", err)
		}
	}

	// Forget the parent's launch bookkeeping.
	if r.Tracker != nil {
		r.Tracker.Reset()
	}

	if r.KB != nil {
		if err := r.KB.Reset(); err != nil {
			logger.Warn("could not rebind knowledge base handle", "error", err)
		}
	}

	ec.Globals[GlobalSocketKey] = strconv.Itoa(int(sock.Fd()))

	title := fmt.Sprintf("kestrel: testing %s (%s)", ec.Host.Name, ec.PluginName)
	if err := setProcessTitle(title); err != nil {
		logger.Debug("could not update process title", "error", err)
	}

	var mode ports.ExecMode
	if r.Settings.NoSignatureCheck {
		mode |= ports.ModeAlwaysSigned
	}

	if r.Settings.DropPrivileges && r.Dropper != nil {
		result, err := r.Dropper.Drop(r.Settings.DropPrivilegesUser)
		if result == ports.DropFailed {
			logger.Warn("failed to drop privileges", "error", err)
			if r.Settings.DropPrivilegesStrict {
				logger.Error("privilege drop required but failed, aborting execution")
				return
			}
		}
	}

	// The interpreter's outcome is opaque here; the controller learns about
	// the execution only through the completion frame.
	if err := r.Interp.Run(ctx, ports.RunRequest{
		Path:    ec.PluginPath,
		OID:     ec.PluginOID,
		Mode:    mode,
		Target:  ec.Host,
		Globals: ec.Globals,
		Socket:  sock,
	}); err != nil {
		logger.Debug("plugin execution ended with error", "error", err)
	}
}

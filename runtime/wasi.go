package runtime

import (
	"context"
	"io"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/wippyai/wasm-gl/errors"
)

// instantiateWASI installs wasi_snapshot_preview1 for guests compiled
// against a WASI target. Such guests typically only need fd_write for
// panics and proc_exit.
func instantiateWASI(ctx context.Context, r wazero.Runtime) error {
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		return errors.New(errors.PhaseLoad, errors.KindInstantiation).
			Path(wasi_snapshot_preview1.ModuleName).
			Cause(err).
			Detail("register WASI host").
			Build()
	}
	return nil
}

// withStdio routes guest stdout and stderr. Nil writers discard output.
func withStdio(cfg wazero.ModuleConfig, stdout, stderr io.Writer) wazero.ModuleConfig {
	if stdout != nil {
		cfg = cfg.WithStdout(stdout)
	}
	if stderr != nil {
		cfg = cfg.WithStderr(stderr)
	}
	return cfg
}

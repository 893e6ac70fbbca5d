package runtime

import (
	"bytes"
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	"github.com/wippyai/bridge-runtime/errors"
)

// runWasm instantiates a WebAssembly module under a fresh wazero runtime
// and returns everything it wrote to stdout. The module runs to completion
// inside the call; a clean exit (status 0) is not an error.
func runWasm(ctx context.Context, bin []byte) (string, error) {
	rtCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	r := wazero.NewRuntimeWithConfig(ctx, rtCfg)
	defer r.Close(ctx)

	wasi_snapshot_preview1.MustInstantiate(ctx, r)

	var stdout bytes.Buffer
	cfg := wazero.NewModuleConfig().
		WithStdout(&stdout).
		WithStderr(&stdout).
		WithName("")

	mod, err := r.InstantiateWithConfig(ctx, bin, cfg)
	if err != nil {
		if exit, ok := err.(*sys.ExitError); ok && exit.ExitCode() == 0 {
			return stdout.String(), nil
		}
		return "", errors.New(errors.PhaseCall, errors.KindConstruct).
			Cause(err).Detail("wasm module failed").Build()
	}
	defer mod.Close(ctx)
	return stdout.String(), nil
}

// Package dispatch runs the command loop of one bridge session: it reads
// requests off the transport, executes them against the runtime, and
// writes exactly one response per request.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bridge "github.com/wippyai/bridge-runtime"
	"github.com/wippyai/bridge-runtime/codec"
	"github.com/wippyai/bridge-runtime/errors"
	"github.com/wippyai/bridge-runtime/represent"
	"github.com/wippyai/bridge-runtime/runtime"
	"github.com/wippyai/bridge-runtime/store"
	"github.com/wippyai/bridge-runtime/wire"
)

// Session drives the request/response loop over one transport. It is
// strictly half-duplex: one command executes at a time, and the next read
// starts only after the previous response has been written.
type Session struct {
	tr    bridge.Transport
	rt    *runtime.Runtime
	store *store.Store
	codec *codec.Codec
	repr  *represent.Representer
	id    string
	log   *zap.Logger
}

// redirectOnce installs the process-wide policy that keeps stray stdlib
// log output off the response stream.
var redirectOnce sync.Once

// NewSession builds a session over a transport and a populated runtime.
func NewSession(tr bridge.Transport, rt *runtime.Runtime) *Session {
	st := store.New()
	id := uuid.NewString()
	return &Session{
		tr:    tr,
		rt:    rt,
		store: st,
		codec: codec.New(st, rt),
		repr:  represent.New(rt),
		id:    id,
		log:   Logger().With(zap.String("session", id)),
	}
}

// ID returns the session's generated identifier.
func (s *Session) ID() string { return s.id }

// Store exposes the session's object store, mainly for tests.
func (s *Session) Store() *store.Store { return s.store }

// Run executes the command loop until the transport closes or an exit
// construct runs. Transport closure is a normal termination: no response
// is written for a request that never arrived.
func (s *Session) Run(ctx context.Context) error {
	redirectOnce.Do(func() {
		log.SetOutput(s.rt.Echo())
	})

	s.log.Info("session started")
	for {
		line, err := s.tr.Receive()
		if err != nil {
			if errors.IsConnectionLost(err) {
				s.log.Info("session closed")
				return nil
			}
			return err
		}

		resp, stop := s.execute(ctx, line)
		out, err := json.Marshal(resp)
		if err != nil {
			out, _ = json.Marshal(s.codec.EncodeError(
				errors.Unencodable(fmt.Sprintf("%T", resp), nil)))
		}
		if err := s.tr.Send(out); err != nil {
			return err
		}
		if stop {
			s.log.Info("session exited")
			return nil
		}
	}
}

// execute runs one command, converting every failure short of transport
// loss into a thrownException response. stop is set when the exit
// construct ran.
func (s *Session) execute(ctx context.Context, line []byte) (resp wire.Value, stop bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("recovered panic", zap.Any("panic", r))
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}
			resp = s.codec.EncodeError(errors.Thrown("Error", err.Error()))
			stop = false
		}
	}()

	var req wire.Request
	if err := json.Unmarshal(line, &req); err != nil {
		return s.codec.EncodeError(errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Cause(err).Detail("malformed request line").Build()), false
	}

	s.log.Debug("command", zap.String("cmd", req.Cmd))

	result, err := s.dispatch(ctx, req)
	if err != nil {
		var exit *runtime.ExitError
		if errors.As(err, &exit) {
			s.log.Info("exit requested", zap.Int("status", exit.Status))
			return wire.Null(), true
		}
		return s.codec.EncodeError(err), false
	}
	return result, false
}

// dispatch decodes the command payload and runs the matching operation.
// The command set is closed: an unknown name is a decode error.
func (s *Session) dispatch(ctx context.Context, req wire.Request) (wire.Value, error) {
	switch req.Cmd {
	case CmdGetConst:
		return s.getConst(req.Data)
	case CmdSetConst:
		return s.setConst(req.Data)
	case CmdGetGlobal:
		return s.getGlobal(req.Data)
	case CmdSetGlobal:
		return s.setGlobal(req.Data)
	case CmdCallFun:
		return s.callFun(ctx, req.Data)
	case CmdCreateObject:
		return s.createObject(req.Data)
	case CmdCallObj:
		return s.callObj(req.Data)
	case CmdCallMethod:
		return s.callMethod(req.Data)
	case CmdHasItem:
		return s.hasItem(req.Data)
	case CmdGetItem:
		return s.getItem(req.Data)
	case CmdSetItem:
		return s.setItem(req.Data)
	case CmdDelItem:
		return s.delItem(req.Data)
	case CmdGetProperty:
		return s.getProperty(req.Data)
	case CmdSetProperty:
		return s.setProperty(req.Data)
	case CmdUnsetProperty:
		return s.unsetProperty(req.Data)
	case CmdListProperties:
		return s.listProperties(req.Data)
	case CmdListNonDefaultProperties:
		return s.listNonDefaultProperties(req.Data)
	case CmdClassInfo:
		return s.classInfo(req.Data)
	case CmdFuncInfo:
		return s.funcInfo(req.Data)
	case CmdListConsts:
		return s.encodeNames(s.rt.ConstNames())
	case CmdListGlobals:
		return s.encodeNames(s.rt.GlobalNames())
	case CmdListFuns:
		return s.encodeNames(s.rt.FuncNames())
	case CmdListClasses:
		return s.encodeNames(s.rt.ClassNames())
	case CmdResolveName:
		return s.resolveName(req.Data)
	case CmdRepr:
		return s.reprValue(req.Data)
	case CmdStr:
		return s.strValue(req.Data)
	case CmdCount:
		return s.count(req.Data)
	case CmdStartIteration:
		return s.startIteration(req.Data)
	case CmdNextIteration:
		return s.nextIteration(req.Data)
	case CmdThrow:
		return s.throw(req.Data)
	}
	return wire.Value{}, errors.New(errors.PhaseDecode, errors.KindInvalidData).
		Detail("unknown command %q", req.Cmd).Build()
}

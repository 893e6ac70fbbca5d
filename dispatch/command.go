package dispatch

import "github.com/wippyai/bridge-runtime/wire"

// Command names form a closed set; anything else fails at decode time.
const (
	CmdGetConst                 = "getConst"
	CmdSetConst                 = "setConst"
	CmdGetGlobal                = "getGlobal"
	CmdSetGlobal                = "setGlobal"
	CmdCallFun                  = "callFun"
	CmdCreateObject             = "createObject"
	CmdCallObj                  = "callObj"
	CmdCallMethod               = "callMethod"
	CmdHasItem                  = "hasItem"
	CmdGetItem                  = "getItem"
	CmdSetItem                  = "setItem"
	CmdDelItem                  = "delItem"
	CmdGetProperty              = "getProperty"
	CmdSetProperty              = "setProperty"
	CmdUnsetProperty            = "unsetProperty"
	CmdListProperties           = "listProperties"
	CmdListNonDefaultProperties = "listNonDefaultProperties"
	CmdClassInfo                = "classInfo"
	CmdFuncInfo                 = "funcInfo"
	CmdListConsts               = "listConsts"
	CmdListGlobals              = "listGlobals"
	CmdListFuns                 = "listFuns"
	CmdListClasses              = "listClasses"
	CmdResolveName              = "resolveName"
	CmdRepr                     = "repr"
	CmdStr                      = "str"
	CmdCount                    = "count"
	CmdStartIteration           = "startIteration"
	CmdNextIteration            = "nextIteration"
	CmdThrow                    = "throw"
)

// Payload shapes, one per family of commands.

type namedCallData struct {
	Name string       `json:"name"`
	Args []wire.Value `json:"args"`
}

type objCallData struct {
	Obj  wire.Value   `json:"obj"`
	Args []wire.Value `json:"args"`
}

type methodCallData struct {
	Obj  wire.Value   `json:"obj"`
	Name string       `json:"name"`
	Args []wire.Value `json:"args"`
}

type propertyData struct {
	Obj  wire.Value `json:"obj"`
	Name string     `json:"name"`
}

type propertyValueData struct {
	Obj   wire.Value `json:"obj"`
	Name  string     `json:"name"`
	Value wire.Value `json:"value"`
}

type itemData struct {
	Obj    wire.Value `json:"obj"`
	Offset wire.Value `json:"offset"`
}

type itemValueData struct {
	Obj    wire.Value `json:"obj"`
	Offset wire.Value `json:"offset"`
	Value  wire.Value `json:"value"`
}

type nameValueData struct {
	Name  string     `json:"name"`
	Value wire.Value `json:"value"`
}

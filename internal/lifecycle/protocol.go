// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package lifecycle owns the daemon state machine and the local control
// socket: a length-prefixed JSON envelope protocol, singleton enforcement,
// peer-UID verification, and the startup/shutdown sequence.
package lifecycle

import "time"

// Command names recognized on the control socket.
const (
	CmdPing              = "ping"
	CmdGetStatus         = "get_status"
	CmdShutdown          = "shutdown"
	CmdReloadConfig      = "reload_config"
	CmdGetConfig         = "get_config"
	CmdStartDictation    = "start_dictation"
	CmdStopDictation     = "stop_dictation"
	CmdListDevices       = "list_devices"
	CmdListModels        = "list_models"
	CmdLoadModel         = "load_model"
	CmdUnloadModel       = "unload_model"
	CmdGetHistory        = "get_history"
	CmdDeleteHistoryItem = "delete_history_entry"
	CmdClearHistory      = "clear_history"
)

// Request is one client command.
type Request struct {
	Command string            `json:"command"`
	Params  map[string]string `json:"params,omitempty"`
}

// State is the daemon's coarse lifecycle state.
type State string

const (
	StateStarting     State = "starting"
	StateIdle         State = "idle"
	StateActive       State = "active"
	StateShuttingDown State = "shutting_down"
	StateError        State = "error"
)

// DaemonStatus is the payload returned by GetStatus.
type DaemonStatus struct {
	Version           string  `json:"version"`
	PID               int     `json:"pid"`
	UptimeSecs        int64   `json:"uptime_secs"`
	State             State   `json:"state"`
	ModelLoaded       bool    `json:"model_loaded"`
	ModelName         string  `json:"model_name,omitempty"`
	IsDictating       bool    `json:"is_dictating"`
	MemoryUsageBytes  uint64  `json:"memory_usage_bytes"`
	CPUUsagePercent   float64 `json:"cpu_usage_percent"`
	// HotkeysAvailable is a field distinct from State: a failed hotkey
	// registration leaves the daemon Idle/Active but unable to respond to
	// hotkey presses, which status consumers need to distinguish from a
	// healthy listening state.
	HotkeysAvailable bool `json:"hotkeys_available"`
}

// ResponseKind discriminates the Response payload, standing in for the
// wire protocol's tagged union of response variants.
type ResponseKind string

const (
	RespSuccess ResponseKind = "success"
	RespOk      ResponseKind = "ok"
	RespError   ResponseKind = "error"
	RespStatus  ResponseKind = "status"
	RespConfig  ResponseKind = "config"
	RespList    ResponseKind = "list"
	RespPong    ResponseKind = "pong"
	RespHistory ResponseKind = "history"
)

// Response is the result of handling a Request.
type Response struct {
	Kind    ResponseKind  `json:"kind"`
	Message string        `json:"message,omitempty"`
	Status  *DaemonStatus `json:"status,omitempty"`
	Config  string        `json:"config,omitempty"`
	List    []string      `json:"list,omitempty"`
	History []HistoryItem `json:"history,omitempty"`
}

// HistoryItem is a placeholder shape for the transcription-history
// collaborator, which lives outside this repository; the control socket
// still needs to recognize and respond to its commands.
type HistoryItem struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Event is a future extension point for server-pushed notifications; the
// protocol reserves the envelope slot but no event is emitted yet.
type Event struct {
	Name string `json:"name"`
}

// Envelope is the unit exchanged over the control socket, wrapped by a
// little-endian uint32 length prefix at the transport layer.
type Envelope struct {
	ID       uint64    `json:"id"`
	Request  *Request  `json:"request,omitempty"`
	Response *Response `json:"response,omitempty"`
	Event    *Event    `json:"event,omitempty"`
}

func successResponse(message string) Response {
	return Response{Kind: RespSuccess, Message: message}
}

func errorResponse(message string) Response {
	return Response{Kind: RespError, Message: message}
}

func okResponse(message string) Response {
	return Response{Kind: RespOk, Message: message}
}

// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package lifecycle

import (
	"fmt"
	"net"
	"time"
)

const defaultDialTimeout = 3 * time.Second

// SendRequest dials the control socket at path, sends req, and waits for
// the response envelope.
func SendRequest(path string, req Request, timeout time.Duration) (Response, error) {
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}

	conn, err := net.DialTimeout("unix", path, timeout)
	if err != nil {
		return Response{}, fmt.Errorf("lifecycle: connecting to %s: %w", path, err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return Response{}, err
	}

	if err := WriteEnvelope(conn, Envelope{ID: 1, Request: &req}); err != nil {
		return Response{}, err
	}

	env, err := ReadEnvelope(conn)
	if err != nil {
		return Response{}, fmt.Errorf("lifecycle: reading response: %w", err)
	}
	if env.Response == nil {
		return Response{}, fmt.Errorf("lifecycle: empty response")
	}
	if env.Response.Kind == RespError {
		return *env.Response, fmt.Errorf("%s", env.Response.Message)
	}
	return *env.Response, nil
}

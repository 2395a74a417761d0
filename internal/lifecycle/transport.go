// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package lifecycle

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// maxEnvelopeBytes rejects control-socket messages larger than 1MB.
const maxEnvelopeBytes = 1 << 20

// WriteEnvelope writes env to w as a little-endian uint32 length prefix
// followed by its JSON encoding.
func WriteEnvelope(w io.Writer, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("lifecycle: encoding envelope: %w", err)
	}
	if len(data) > maxEnvelopeBytes {
		return fmt.Errorf("lifecycle: envelope too large: %d bytes", len(data))
	}

	var lenPrefix [4]byte
	binary.LittleEndian.PutUint32(lenPrefix[:], uint32(len(data)))
	if _, err := w.Write(lenPrefix[:]); err != nil {
		return fmt.Errorf("lifecycle: writing length prefix: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("lifecycle: writing envelope body: %w", err)
	}
	return nil
}

// ReadEnvelope reads one length-prefixed JSON envelope from r.
func ReadEnvelope(r io.Reader) (Envelope, error) {
	var lenPrefix [4]byte
	if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
		return Envelope{}, err
	}
	n := binary.LittleEndian.Uint32(lenPrefix[:])
	if n > maxEnvelopeBytes {
		return Envelope{}, fmt.Errorf("lifecycle: envelope length %d exceeds limit", n)
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return Envelope{}, fmt.Errorf("lifecycle: reading envelope body: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("lifecycle: decoding envelope: %w", err)
	}
	return env, nil
}

// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"iter"

	"github.com/go-json-experiment/json"

	a2a "github.com/go-a2a/a2a-samples"
)

const maxEventSize = 1 << 20

// readEvents decodes the server-sent events of r. Comments and fields other
// than data are skipped; multiple data lines of one event are joined by a newline.
func readEvents(r io.Reader) iter.Seq2[*a2a.SendTaskStreamingResponse, error] {
	return func(yield func(*a2a.SendTaskStreamingResponse, error) bool) {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64<<10), maxEventSize)

		var data bytes.Buffer
		flush := func() bool {
			if data.Len() == 0 {
				return true
			}
			ev := new(a2a.SendTaskStreamingResponse)
			err := json.Unmarshal(data.Bytes(), ev)
			data.Reset()
			if err != nil {
				yield(nil, fmt.Errorf("decode stream event: %w", err))
				return false
			}
			return yield(ev, nil)
		}

		for sc.Scan() {
			line := sc.Bytes()
			if len(line) == 0 {
				if !flush() {
					return
				}
				continue
			}
			value, ok := bytes.CutPrefix(line, []byte("data:"))
			if !ok {
				continue
			}
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.Write(bytes.TrimPrefix(value, []byte(" ")))
		}
		if err := sc.Err(); err != nil {
			yield(nil, fmt.Errorf("read stream: %w", err))
			return
		}
		flush()
	}
}

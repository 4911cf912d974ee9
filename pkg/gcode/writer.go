// G-code emission
//
// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package gcode

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"fgf-postproc/pkg/pool"
)

// Write emits commands to w, one line each.
func Write(w io.Writer, commands []*Command) error {
	bw := bufio.NewWriterSize(w, 64*1024)
	buf := pool.GetLineBuffer()
	defer pool.PutLineBuffer(buf)

	for _, cmd := range commands {
		buf.Reset()
		cmd.appendText(buf)
		if _, err := bw.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("writing line: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing line: %w", err)
		}
	}
	return bw.Flush()
}

// WriteFile emits commands to a file, replacing any existing content.
func WriteFile(path string, commands []*Command) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(f, commands); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

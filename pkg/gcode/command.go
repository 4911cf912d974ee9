// Package gcode provides the command model, tokenizer and emitter for
// slicer-produced G-code streams.
//
// A Command round-trips its source line verbatim unless it was modified or
// synthesized, in which case it is re-emitted with canonical parameter order
// and fixed decimal formats.
//
// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package gcode

import (
	"strconv"

	"fgf-postproc/pkg/pool"
)

// Canonical emission order for motion parameters. Letters outside this set
// are emitted after it, in source order.
var paramOrder = [...]string{"X", "Y", "Z", "E", "F"}

// Command is one parsed G-code line.
type Command struct {
	// LineNumber is the 1-based input line, 0 for synthesized commands
	LineNumber int

	// Name is the uppercased command word ("G1", "M83"); empty for
	// blank and comment-only lines
	Name string

	// Params maps parameter letter to numeric value. Only recognized
	// motion/mode commands carry parsed params; opaque commands keep nil.
	Params map[string]float64

	// Comment is the text after ';', trimmed
	Comment string

	// Raw is the source line with trailing whitespace removed; empty for
	// synthesized commands
	Raw string

	// extras records non-canonical parameter letters in source order
	extras []string

	// modified marks commands whose emission must be rebuilt
	modified bool
}

// NewComment creates a synthesized comment-only line.
func NewComment(text string) *Command {
	return &Command{Comment: text, modified: true}
}

// NewMove creates a synthesized motion command with no parameters set.
func NewMove(name string) *Command {
	return &Command{
		Name:     name,
		Params:   make(map[string]float64, 6),
		modified: true,
	}
}

// Has reports whether the command carries the given parameter letter.
func (c *Command) Has(letter string) bool {
	_, ok := c.Params[letter]
	return ok
}

// Param returns the value of the given parameter letter, or def when absent.
func (c *Command) Param(letter string, def float64) float64 {
	if v, ok := c.Params[letter]; ok {
		return v
	}
	return def
}

// SetParam sets a parameter value and marks the command modified.
func (c *Command) SetParam(letter string, value float64) {
	if c.Params == nil {
		c.Params = make(map[string]float64, 6)
	}
	if _, ok := c.Params[letter]; !ok && !isCanonical(letter) {
		c.extras = append(c.extras, letter)
	}
	c.Params[letter] = value
	c.modified = true
}

// AppendComment appends text to the command's comment and marks it modified.
func (c *Command) AppendComment(text string) {
	if c.Comment != "" {
		c.Comment = c.Comment + " ; " + text
	} else {
		c.Comment = text
	}
	c.modified = true
}

// Clone returns a deep copy sharing no mutable state with the original.
func (c *Command) Clone() *Command {
	dup := *c
	if c.Params != nil {
		dup.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			dup.Params[k] = v
		}
	}
	if c.extras != nil {
		dup.extras = append([]string(nil), c.extras...)
	}
	return &dup
}

// Modified reports whether the command will be re-emitted instead of
// round-tripping its raw line.
func (c *Command) Modified() bool {
	return c.modified
}

// IsMotion reports whether the command is a linear motion (G0/G1).
func (c *Command) IsMotion() bool {
	return c.Name == "G0" || c.Name == "G1"
}

// IsBlank reports whether the line carries neither command nor comment.
func (c *Command) IsBlank() bool {
	return c.Name == "" && c.Comment == ""
}

// Release returns the command's parameter map to the shared pool. Only
// callers that discard commands line-by-line may use it; the command must
// not be touched afterwards.
func (c *Command) Release() {
	pool.PutParamsMap(c.Params)
	c.Params = nil
}

// String renders the command as an output line without trailing newline.
func (c *Command) String() string {
	buf := pool.GetLineBuffer()
	defer pool.PutLineBuffer(buf)
	c.appendText(buf)
	return buf.String()
}

// appendText writes the command's emission into buf.
func (c *Command) appendText(buf *pool.ByteBuffer) {
	if !c.modified {
		buf.WriteString(c.Raw)
		return
	}

	if c.Name == "" {
		if c.Comment != "" {
			buf.WriteByte(';')
			buf.WriteString(c.Comment)
		}
		return
	}

	buf.WriteString(c.Name)
	for _, letter := range paramOrder {
		if v, ok := c.Params[letter]; ok {
			buf.WriteByte(' ')
			buf.WriteString(letter)
			buf.WriteString(formatParam(letter, v))
		}
	}
	for _, letter := range c.extras {
		if v, ok := c.Params[letter]; ok {
			buf.WriteByte(' ')
			buf.WriteString(letter)
			buf.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	if c.Comment != "" {
		buf.WriteString(" ;")
		buf.WriteString(c.Comment)
	}
}

// formatParam renders a canonical parameter value: coordinates at 3 decimals,
// extrusion at 5, feedrate at 1.
func formatParam(letter string, v float64) string {
	switch letter {
	case "E":
		return strconv.FormatFloat(v, 'f', 5, 64)
	case "F":
		return strconv.FormatFloat(v, 'f', 1, 64)
	default:
		return strconv.FormatFloat(v, 'f', 3, 64)
	}
}

func isCanonical(letter string) bool {
	for _, p := range paramOrder {
		if p == letter {
			return true
		}
	}
	return false
}

// G-code tokenizer
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
	"regexp"
	"strconv"
	"strings"

	"fgf-postproc/pkg/pool"
	"fgf-postproc/pkg/procerr"
)

// Commands whose parameters participate in position/extrusion accounting.
// Everything else is opaque pass-through.
var recognizedCommands = map[string]bool{
	"G0":  true,
	"G1":  true,
	"G2":  true,
	"G3":  true,
	"G92": true,
	"M82": true,
	"M83": true,
}

var reParenComment = regexp.MustCompile(`\([^)]*\)`)

// Parser tokenizes G-code lines into Commands.
type Parser struct{}

// ParseLine tokenizes a single line. Recognized motion/mode commands get
// strict parameter validation; anything the engine does not account for is
// kept opaque and round-trips via its raw text.
func (p *Parser) ParseLine(line string, lineNumber int) (*Command, error) {
	raw := strings.TrimRight(line, " \t\r\n")
	cmd := &Command{LineNumber: lineNumber, Raw: raw}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return cmd, nil
	}

	code := trimmed
	if idx := strings.IndexByte(trimmed, ';'); idx >= 0 {
		cmd.Comment = strings.TrimSpace(trimmed[idx+1:])
		code = strings.TrimSpace(trimmed[:idx])
	}
	if code == "" {
		return cmd, nil
	}

	if strings.IndexByte(code, '(') >= 0 {
		code = strings.TrimSpace(reParenComment.ReplaceAllString(code, " "))
		if code == "" {
			return cmd, nil
		}
	}

	fields := strings.Fields(code)
	name := strings.ToUpper(fields[0])
	if !isLetter(name[0]) {
		return nil, procerr.ParseError(lineNumber, fields[0], "command must start with a letter")
	}
	cmd.Name = name

	if !recognizedCommands[name] {
		return cmd, nil
	}

	cmd.Params = pool.GetParamsMap()
	for _, f := range fields[1:] {
		letter := strings.ToUpper(f[:1])
		if !isLetter(letter[0]) {
			return nil, procerr.ParseError(lineNumber, f, "parameter must start with a letter")
		}
		// Bare letters (no value) are flag-style and carry nothing the
		// engine accounts for.
		if len(f) == 1 {
			continue
		}
		value, err := strconv.ParseFloat(f[1:], 64)
		if err != nil {
			return nil, procerr.ParamError(lineNumber, name, letter, f[1:])
		}
		if _, ok := cmd.Params[letter]; !ok && !isCanonical(letter) {
			cmd.extras = append(cmd.extras, letter)
		}
		cmd.Params[letter] = value
	}
	return cmd, nil
}

// ParseAll tokenizes an entire stream. The first malformed line aborts with
// its parse error; a partially tokenized stream is never returned.
func (p *Parser) ParseAll(r io.Reader) ([]*Command, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var commands []*Command
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		cmd, err := p.ParseLine(scanner.Text(), lineNumber)
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading stream: %w", err)
	}
	return commands, nil
}

// ParseFile tokenizes a file.
func ParseFile(path string) ([]*Command, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var p Parser
	commands, err := p.ParseAll(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return commands, nil
}

func isLetter(b byte) bool {
	return b >= 'A' && b <= 'Z'
}

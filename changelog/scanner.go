// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package changelog

import (
	"bufio"
	"strings"
)

// lineScanner wraps a bufio.Scanner to track the 1-based line number of
// the line last returned by next, including lines consumed while inside
// an ignore region or a multi-line rollback block. It is the "Line
// Scanner (S)" component of the parser design.
type lineScanner struct {
	sc   *bufio.Scanner
	line int
	done bool
}

func newLineScanner(sc *bufio.Scanner) *lineScanner {
	return &lineScanner{sc: sc}
}

// next returns the next raw line and its 1-based line number, or ("",
// 0, false) at EOF.
func (s *lineScanner) next() (string, int, bool) {
	if s.done {
		return "", 0, false
	}
	if !s.sc.Scan() {
		s.done = true
		return "", 0, false
	}
	s.line++
	return s.sc.Text(), s.line, true
}

// firstNonBlank scans forward (without un-scanning) to the first
// non-blank line and returns it along with its line number. It is used
// once, at the start of a parse, to locate and validate the
// changelog-header line.
func (s *lineScanner) firstNonBlank() (string, int, bool) {
	for {
		line, no, ok := s.next()
		if !ok {
			return "", 0, false
		}
		if strings.TrimSpace(line) != "" {
			return line, no, true
		}
	}
}

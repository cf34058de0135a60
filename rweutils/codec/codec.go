// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const WordSize = 4

var (
	ErrParse = errors.New("parse error")
)

// BytesToWords groups b into little-endian 32 bit words. A trailing group
// shorter than WordSize is dropped.
func BytesToWords(b []byte) []uint32 {
	words := make([]uint32, 0, len(b)/WordSize)
	for i := 0; i+WordSize <= len(b); i += WordSize {
		words = append(words, binary.LittleEndian.Uint32(b[i:i+WordSize]))
	}
	return words
}

// WordsToBytes is the inverse of BytesToWords.
func WordsToBytes(words []uint32) []byte {
	b := make([]byte, 0, len(words)*WordSize)
	for _, w := range words {
		b = binary.LittleEndian.AppendUint32(b, w)
	}
	return b
}

// Chunk splits words into groups of n. The last group may be shorter.
func Chunk(words []uint32, n int) [][]uint32 {
	if n <= 0 {
		return nil
	}
	chunks := make([][]uint32, 0, (len(words)+n-1)/n)
	for i := 0; i < len(words); i += n {
		chunks = append(chunks, words[i:min(i+n, len(words))])
	}
	return chunks
}

type LineKind int

const (
	LineData LineKind = iota
	LineBlank
	LineIndented
	LineDumpHeader
	LineParameterError
)

func (k LineKind) String() string {
	switch k {
	case LineData:
		return "data"
	case LineBlank:
		return "blank"
	case LineIndented:
		return "indented"
	case LineDumpHeader:
		return "dump-header"
	case LineParameterError:
		return "parameter-error"
	default:
		return fmt.Sprintf("LineKind(%d)", int(k))
	}
}

// ClassifyLine decides whether a hex dump line carries data. Header lines
// written by the agent have a 'u' in the second column ("Dump ..."),
// parameter errors an 'r' in the third ("Error ...", "Parameter ...").
func ClassifyLine(line string) LineKind {
	switch {
	case strings.TrimSpace(line) == "":
		return LineBlank
	case line[0] == ' ' || line[0] == '\t':
		return LineIndented
	case len(line) > 1 && line[1] == 'u':
		return LineDumpHeader
	case len(line) > 2 && line[2] == 'r':
		return LineParameterError
	default:
		return LineData
	}
}

// SplitDataLine returns the hex byte tokens of a data line: the index column
// before the first space and the ASCII rendering after the first tab are
// dropped.
func SplitDataLine(line string) ([]string, error) {
	_, rest, ok := strings.Cut(line, " ")
	if !ok {
		return nil, fmt.Errorf("%w: missing index column in %q", ErrParse, line)
	}
	hexColumns, _, _ := strings.Cut(rest, "\t")
	return strings.Fields(hexColumns), nil
}

// ParseHexDump recovers the raw bytes of the agent's diagnostic hex dump.
func ParseHexDump(text string) ([]byte, error) {
	var data []byte
	for n, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if ClassifyLine(line) != LineData {
			continue
		}

		tokens, err := SplitDataLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n+1, err)
		}
		for _, token := range tokens {
			v, err := strconv.ParseUint(token, 16, 8)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w: invalid hex byte %q", n+1, ErrParse, token)
			}
			data = append(data, byte(v))
		}
	}
	return data, nil
}

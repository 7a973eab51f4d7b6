// Package hexdump renders guest memory as colored hex with 32-bit word annotations
package hexdump

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"halosnap/coloransi"
)

// Options defines options for customizing the hexdump output
type Options struct {
	// BytesPerLine defines the number of bytes to display per line
	BytesPerLine int

	// GroupSize defines the grouping of bytes (usually 1, 2 or 4)
	GroupSize int

	ShowASCII bool

	// StartOffset is the guest address of data[0]
	StartOffset uint64

	// OffsetWidth is the width of the address column in hex digits
	OffsetWidth int

	OffsetColor       coloransi.ColorCode
	HexColor          coloransi.ColorCode
	ASCIIColor        coloransi.ColorCode
	NonPrintableColor coloransi.ColorCode
	ZeroColor         coloransi.ColorCode

	// Highlights are byte patterns colored wherever they occur
	Highlights []Highlight

	// MaxLines is the maximum number of lines to show (0 for no limit)
	MaxLines int

	// Words annotates aligned little-endian 32-bit words at the end of each line
	Words WordAnnotator
}

type Highlight struct {
	Pattern    []byte
	Foreground coloransi.ColorCode
	Background coloransi.ColorCode
}

// WordAnnotator describes a 32-bit word, or returns "" to leave it out
type WordAnnotator func(word uint32) string

func DefaultOptions() Options {
	return Options{
		BytesPerLine:      16,
		GroupSize:         1,
		ShowASCII:         true,
		OffsetWidth:       8,
		OffsetColor:       coloransi.Cyan,
		HexColor:          coloransi.Green,
		ASCIIColor:        coloransi.White,
		NonPrintableColor: coloransi.Red,
		ZeroColor:         coloransi.BrightBlack,
	}
}

// Dump creates a hex dump of the given data with specified options
func Dump(data []byte, options Options) string {
	var buffer bytes.Buffer
	DumpToWriter(&buffer, data, options)
	return buffer.String()
}

// DumpToWriter writes a hex dump of the given data to the specified writer
func DumpToWriter(writer io.Writer, data []byte, options Options) {
	if options.BytesPerLine <= 0 {
		options.BytesPerLine = 16
	}
	if options.GroupSize <= 0 {
		options.GroupSize = 1
	}
	if options.OffsetWidth <= 0 {
		options.OffsetWidth = 8
	}

	marks := highlightMarks(data, options.Highlights)

	lineCount := 0
	for offset := 0; offset < len(data); offset += options.BytesPerLine {
		if options.MaxLines > 0 && lineCount >= options.MaxLines {
			fmt.Fprintf(writer, "... %d more bytes\n", len(data)-offset)
			break
		}

		end := min(offset+options.BytesPerLine, len(data))
		formatLine(writer, data[offset:end], marks[offset:end], uint64(offset)+options.StartOffset, options)
		lineCount++
	}
}

// highlightMarks resolves every highlight over the whole buffer, so patterns
// crossing a line boundary are still colored. Later highlights win.
func highlightMarks(data []byte, highlights []Highlight) []*Highlight {
	marks := make([]*Highlight, len(data))
	for i := range highlights {
		h := &highlights[i]
		if len(h.Pattern) == 0 {
			continue
		}
		for start := 0; start+len(h.Pattern) <= len(data); {
			at := bytes.Index(data[start:], h.Pattern)
			if at < 0 {
				break
			}
			at += start
			for j := at; j < at+len(h.Pattern); j++ {
				marks[j] = h
			}
			start = at + len(h.Pattern)
		}
	}
	return marks
}

func formatLine(writer io.Writer, data []byte, marks []*Highlight, offset uint64, options Options) {
	offsetStr := fmt.Sprintf("%0"+strconv.Itoa(options.OffsetWidth)+"x", offset)
	fmt.Fprint(writer, coloransi.Foreground(options.OffsetColor, offsetStr), "  ")

	hexParts := formatHexValues(data, marks, options)

	// mid-line divider once the line reaches past half of BytesPerLine
	useSplit := options.BytesPerLine >= 8 && len(data) > options.BytesPerLine/2

	groupsPerLine := max(options.BytesPerLine/options.GroupSize, 1)
	leftGroups := min(groupsPerLine/2, len(hexParts))

	split := useSplit && leftGroups > 0 && leftGroups < len(hexParts)
	if split {
		fmt.Fprint(writer, strings.Join(hexParts[:leftGroups], " "), " | ", strings.Join(hexParts[leftGroups:], " "))
	} else {
		fmt.Fprint(writer, strings.Join(hexParts, " "))
	}

	// keep the ASCII column aligned on a short last line
	if options.BytesPerLine > len(data) {
		full := hexWidth(options.BytesPerLine, options.GroupSize, options.BytesPerLine >= 8)
		if padding := full - hexWidth(len(data), options.GroupSize, split); padding > 0 {
			fmt.Fprint(writer, strings.Repeat(" ", padding))
		}
	}

	if options.ShowASCII {
		fmt.Fprint(writer, " | ")
		formatASCII(writer, data, marks, options)
	}

	if options.Words != nil {
		var notes []string
		for i := 0; i+4 <= len(data); i += 4 {
			if note := options.Words(binary.LittleEndian.Uint32(data[i:])); note != "" {
				notes = append(notes, coloransi.Foreground(coloransi.Yellow, note))
			}
		}
		if len(notes) > 0 {
			fmt.Fprint(writer, " | ", strings.Join(notes, " "))
		}
	}

	fmt.Fprintln(writer)
}

// hexWidth is the printed width of n bytes of hex without color escapes
func hexWidth(n, groupSize int, split bool) int {
	if n == 0 {
		return 0
	}
	groups := (n + groupSize - 1) / groupSize
	width := n*2 + groups - 1
	if split && groups > 1 {
		width += 2
	}
	return width
}

func formatASCII(writer io.Writer, data []byte, marks []*Highlight, options Options) {
	for i, b := range data {
		c := rune(b)
		switch {
		case marks[i] != nil:
			fmt.Fprint(writer, coloransi.Color(marks[i].Foreground, marks[i].Background, printable(c)))
		case b == 0:
			fmt.Fprint(writer, coloransi.Foreground(options.ZeroColor, "."))
		case b >= 0x80 || !unicode.IsPrint(c):
			fmt.Fprint(writer, coloransi.Foreground(options.NonPrintableColor, "."))
		default:
			fmt.Fprint(writer, coloransi.Foreground(options.ASCIIColor, string(c)))
		}
	}
}

func printable(c rune) string {
	if c < 0x80 && unicode.IsPrint(c) {
		return string(c)
	}
	return "."
}

// formatHexValues formats the hex values part of the line with grouping and highlighting
func formatHexValues(data []byte, marks []*Highlight, options Options) []string {
	var result []string
	var group []string

	for i, b := range data {
		hexValue := fmt.Sprintf("%02x", b)

		switch {
		case marks[i] != nil:
			group = append(group, coloransi.Color(marks[i].Foreground, marks[i].Background, hexValue))
		case b == 0:
			group = append(group, coloransi.Foreground(options.ZeroColor, hexValue))
		default:
			group = append(group, coloransi.Foreground(options.HexColor, hexValue))
		}

		if (i+1)%options.GroupSize == 0 || i == len(data)-1 {
			result = append(result, strings.Join(group, ""))
			group = nil
		}
	}

	return result
}

// Plain strips the color escapes from a dump, for logs and tests
func Plain(s string) string {
	var out strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\033':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			out.WriteRune(r)
		}
	}
	return out.String()
}

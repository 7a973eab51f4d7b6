// Package coloransi wraps report text in ANSI color escapes. Output can be
// switched to plain text for pipes and NO_COLOR terminals.
package coloransi

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// ColorCode is either a basic ANSI foreground code (low byte) or a 24-bit
// RGB value packed in the upper three bytes
type ColorCode uint32

const (
	Black  ColorCode = 30
	Red    ColorCode = 31
	Green  ColorCode = 32
	Yellow ColorCode = 33
	Cyan   ColorCode = 36
	White  ColorCode = 37

	BrightBlack ColorCode = Black + 60

	rgbMask ColorCode = 0xFFFFFF00
)

var (
	ColorOrange    = RGB(255, 140, 0)
	ColorLimeGreen = RGB(50, 205, 50)
)

var disabled atomic.Bool

// SetEnabled turns escape generation on or off for the whole process
func SetEnabled(enabled bool) {
	disabled.Store(!enabled)
}

func Enabled() bool {
	return !disabled.Load()
}

func RGB(r, g, b uint8) ColorCode {
	return ColorCode(uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8)
}

// sgr renders the select-graphic-rendition sequence for c; layer is 3 for
// foreground and 4 for background
func (c ColorCode) sgr(layer int) string {
	if c&rgbMask != 0 {
		return fmt.Sprintf("\033[%d8;2;%d;%d;%dm", layer, byte(c>>24), byte(c>>16), byte(c>>8))
	}
	return fmt.Sprintf("\033[%dm", int(c)+(layer-3)*10)
}

// Color joins v with spaces and paints it fg on bg
func Color(fg, bg ColorCode, v ...any) string {
	return paint(fg.sgr(3)+bg.sgr(4), v)
}

func Foreground(fg ColorCode, v ...any) string {
	return paint(fg.sgr(3), v)
}

func paint(codes string, v []any) string {
	parts := make([]string, len(v))
	for i, arg := range v {
		parts[i] = fmt.Sprint(arg)
	}
	text := strings.Join(parts, " ")

	if !Enabled() {
		return text
	}
	return codes + text + "\033[0m"
}

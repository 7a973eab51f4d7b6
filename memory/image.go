package memory

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"halosnap/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// DefaultWindowSize covers the 64 MiB of guest RAM the emulator exposes
const DefaultWindowSize = 64 * 1024 * 1024

// MaxStringLength bounds null-terminated string reads
const MaxStringLength = 4096

var (
	ErrOutOfBounds     = errors.New("address out of bounds")
	ErrInvalidEncoding = errors.New("invalid string encoding")
	ErrUnterminated    = errors.New("unterminated string")
	ErrNoSource        = errors.New("image has no process source")
)

// Reader is the byte-addressable view the engine decodes from.
// Addresses are fixed up before use.
type Reader interface {
	ReadMemory(addr Address, size uint32) ([]byte, error)
	ReadString(addr Address) (string, error)
}

// Writer pushes bytes back into the live target
type Writer interface {
	Write(addr Address, data []byte) error
}

// Image is a captured window of guest memory. Guest address 0 maps to
// virtualAddress inside the host process. The bytes are replaced on Refresh
// and are otherwise read-only.
type Image struct {
	source         process.Process
	virtualAddress process.ProcessMemoryAddress
	data           []byte
	log            *logger.Logger
}

var _ Reader = (*Image)(nil)
var _ Writer = (*Image)(nil)

// NewImage creates an empty window of size bytes backed by source
func NewImage(source process.Process, virtualAddress process.ProcessMemoryAddress, size process.ProcessMemorySize) *Image {
	return &Image{
		source:         source,
		virtualAddress: virtualAddress,
		data:           make([]byte, size),
		log:            logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "memory-image")),
	}
}

// NewImageFromBytes wraps an already captured window; the image has no source
// and cannot be refreshed or written.
func NewImageFromBytes(virtualAddress process.ProcessMemoryAddress, data []byte) *Image {
	return &Image{
		virtualAddress: virtualAddress,
		data:           data,
		log:            logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "memory-image")),
	}
}

func (m *Image) VirtualAddress() process.ProcessMemoryAddress {
	return m.virtualAddress
}

func (m *Image) Size() process.ProcessMemorySize {
	return process.ProcessMemorySize(len(m.data))
}

type sizer interface {
	Size() process.ProcessMemorySize
}

// Extent is the number of guest bytes r can address: its window size when it
// reports one, never more than AddressableSize
func Extent(r Reader) uint64 {
	n := uint64(AddressableSize)
	if sized, ok := r.(sizer); ok && uint64(sized.Size()) < n {
		n = uint64(sized.Size())
	}
	return n
}

// Bytes returns the captured window without copying
func (m *Image) Bytes() []byte {
	return m.data
}

// Refresh captures the whole window from the source in one transfer
func (m *Image) Refresh() error {
	if m.source == nil {
		return ErrNoSource
	}

	data, err := m.source.ReadMemory(m.virtualAddress, process.ProcessMemorySize(len(m.data)))
	if err != nil {
		return fmt.Errorf("refresh window at %s: %w", m.virtualAddress.ToString(), err)
	}

	copy(m.data, data)
	return nil
}

// ReadMemory returns a view of size bytes at the fixed-up address
func (m *Image) ReadMemory(addr Address, size uint32) ([]byte, error) {
	offset := uint64(FixPointer(addr))
	if offset+uint64(size) > uint64(len(m.data)) {
		return nil, fmt.Errorf("read %d bytes at %s: %w", size, addr, ErrOutOfBounds)
	}
	return m.data[offset : offset+uint64(size)], nil
}

// ReadString reads a null-terminated UTF-8 string at the fixed-up address
func (m *Image) ReadString(addr Address) (string, error) {
	offset := uint64(FixPointer(addr))
	if offset >= uint64(len(m.data)) {
		return "", fmt.Errorf("read string at %s: %w", addr, ErrOutOfBounds)
	}

	end := offset + MaxStringLength
	if end > uint64(len(m.data)) {
		end = uint64(len(m.data))
	}

	window := m.data[offset:end]
	for i, b := range window {
		if b == 0 {
			if !utf8.Valid(window[:i]) {
				return "", fmt.Errorf("read string at %s: %w", addr, ErrInvalidEncoding)
			}
			return string(window[:i]), nil
		}
	}

	return "", fmt.Errorf("read string at %s: %w", addr, ErrUnterminated)
}

// Write sends data to the live target at the fixed-up address. The captured
// bytes are left untouched until the next Refresh.
func (m *Image) Write(addr Address, data []byte) error {
	if m.source == nil {
		return ErrNoSource
	}

	offset := uint64(FixPointer(addr))
	if offset+uint64(len(data)) > uint64(len(m.data)) {
		return fmt.Errorf("write %d bytes at %s: %w", len(data), addr, ErrOutOfBounds)
	}

	target := m.virtualAddress + process.ProcessMemoryAddress(offset)
	if err := m.source.WriteMemory(target, data); err != nil {
		return fmt.Errorf("write %d bytes at %s: %w", len(data), addr, err)
	}

	m.log.Debugln("Wrote", len(data), "bytes at", addr.String())
	return nil
}

// Package capture saves and restores captured guest memory windows.
//
// A capture is a directory holding metadata.json and image.bin.zst. Loaded
// captures implement process.Process, so they can stand in for a live target
// behind a memory.Image.
package capture

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/klauspost/compress/zstd"
	"github.com/oklog/ulid/v2"

	"halosnap/memory"
	"halosnap/process"
	"halosnap/process/memory_map"
)

const (
	MetadataFile = "metadata.json"
	ImageFile    = "image.bin.zst"

	// MaxImageSize bounds a loaded window, well above the largest guest RAM
	MaxImageSize = 1 << 30
)

var (
	ErrCorrupt  = errors.New("capture corrupt")
	ErrReadOnly = errors.New("capture is read-only")
)

var (
	// encoder and decoder are safe for concurrent EncodeAll/DecodeAll
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxImageSize))
)

var log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "capture"))

type Metadata struct {
	ID             ulid.ULID                    `json:"id"`
	PID            process.ProcessID            `json:"pid"`
	VirtualAddress process.ProcessMemoryAddress `json:"virtual_address"`
	Size           uint64                       `json:"size"`
	CapturedAt     time.Time                    `json:"captured_at"`
}

// Capture is one saved window of guest memory
type Capture struct {
	Metadata
	data []byte
}

var _ process.Process = (*Capture)(nil)

// New wraps data captured from pid at virtualAddress
func New(pid process.ProcessID, virtualAddress process.ProcessMemoryAddress, data []byte) *Capture {
	return &Capture{
		Metadata: Metadata{
			ID:             ulid.Make(),
			PID:            pid,
			VirtualAddress: virtualAddress,
			Size:           uint64(len(data)),
			CapturedAt:     time.Now().UTC(),
		},
		data: data,
	}
}

// FromImage copies the current contents of img
func FromImage(pid process.ProcessID, img *memory.Image) *Capture {
	data := make([]byte, len(img.Bytes()))
	copy(data, img.Bytes())
	return New(pid, img.VirtualAddress(), data)
}

// Data returns the captured window without copying
func (c *Capture) Data() []byte {
	return c.data
}

// Image returns a detached image over the captured bytes
func (c *Capture) Image() *memory.Image {
	return memory.NewImageFromBytes(c.VirtualAddress, c.data)
}

func (c *Capture) Save(dirname string) error {
	if err := os.MkdirAll(dirname, 0o755); err != nil {
		return fmt.Errorf("failed to create capture directory: %w", err)
	}

	metadata, err := json.MarshalIndent(c.Metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dirname, MetadataFile), metadata, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	compressed := zstdEncoder.EncodeAll(c.data, make([]byte, 0, len(c.data)/4))
	if err := os.WriteFile(filepath.Join(dirname, ImageFile), compressed, 0o644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}

	log.Infoln("Saved capture", c.ID.String(), "to", dirname, "-", len(c.data), "bytes,", len(compressed), "compressed")
	return nil
}

func Load(dirname string) (*Capture, error) {
	metadataBytes, err := os.ReadFile(filepath.Join(dirname, MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	c := &Capture{}
	if err := json.Unmarshal(metadataBytes, &c.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	compressed, err := os.ReadFile(filepath.Join(dirname, ImageFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	if c.Size > MaxImageSize {
		return nil, fmt.Errorf("%w: metadata claims %d bytes, limit is %d", ErrCorrupt, c.Size, MaxImageSize)
	}

	c.data, err = zstdDecoder.DecodeAll(compressed, make([]byte, 0, c.Size))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if uint64(len(c.data)) != c.Size {
		return nil, fmt.Errorf("%w: image holds %d bytes, metadata says %d", ErrCorrupt, len(c.data), c.Size)
	}

	log.Debugln("Loaded capture", c.ID.String(), "from", dirname)
	return c, nil
}

func (c *Capture) Open(pid process.ProcessID) error {
	return fmt.Errorf("Open not supported for a capture, use Load")
}

func (c *Capture) Close() error {
	c.data = nil
	return nil
}

func (c *Capture) GetPID() process.ProcessID {
	return c.PID
}

func (c *Capture) UpdateMemoryMap() error {
	return nil // static
}

func (c *Capture) GetMemoryMap() ([]memory_map.MemoryMapItem, error) {
	return []memory_map.MemoryMapItem{{
		Address: uint64(c.VirtualAddress),
		Size:    uint(len(c.data)),
		Perms:   "r--p",
	}}, nil
}

func (c *Capture) IsValidAddress(addr process.ProcessMemoryAddress) bool {
	return addr >= c.VirtualAddress && uint64(addr-c.VirtualAddress) < uint64(len(c.data))
}

func (c *Capture) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	if !c.IsValidAddress(addr) {
		return nil, process.ErrAddressNotMapped
	}

	offset := uint64(addr - c.VirtualAddress)
	if offset+uint64(size) > uint64(len(c.data)) {
		return nil, fmt.Errorf("read size %d exceeds capture bounds: %w", size, process.ErrPartialRead)
	}

	result := make([]byte, size)
	copy(result, c.data[offset:offset+uint64(size)])
	return result, nil
}

func (c *Capture) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	return ErrReadOnly
}

// Package cartridge implements DMG cartridge header parsing and the
// ROM-only/MBC1/MBC3/MBC5 memory bank controllers.
package cartridge

import (
	"fmt"
	"unicode/utf8"

	"github.com/coderidge/dmgcore/addr"
)

// HeaderError reports a malformed cartridge header (an image shorter than
// the header block, a title that is not valid UTF-8, or an unknown RAM size
// code). A declared ROM size that disagrees with the image length is not an
// error.
type HeaderError struct {
	Reason string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("cartridge: invalid header: %s", e.Reason)
}

// UnsupportedMapperError is returned when the cartridge-type byte names a
// mapper this core doesn't implement (MBC2, MBC6, MBC7, MMM01, HuC1/3,
// Pocket Camera, Bandai TAMA5, and so on).
type UnsupportedMapperError struct {
	CartridgeType uint8
}

func (e *UnsupportedMapperError) Error() string {
	return fmt.Sprintf("cartridge: unsupported mapper (cartridge type 0x%02X)", e.CartridgeType)
}

// SizeMismatchError is returned by RestoreBatteryRAM when the supplied
// image's length doesn't match the cartridge's external RAM size.
type SizeMismatchError struct {
	Expected int
	Actual   int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("cartridge: battery RAM image is %d bytes, expected %d", e.Actual, e.Expected)
}

// MapperKind names the family of memory bank controller a cartridge uses.
type MapperKind int

const (
	MapperROMOnly MapperKind = iota
	MapperMBC1
	MapperMBC3
	MapperMBC5
)

// Header is the parsed, validated form of the 0x0100-0x014F cartridge
// header block.
type Header struct {
	Title            string
	ManufacturerCode string
	CGBFlag          uint8
	Mapper           MapperKind
	HasRAM           bool
	HasBattery       bool
	HasRTC           bool
	HasRumble        bool
	ROMSize          int
	RAMSize          int
	HeaderChecksum   uint8
	GlobalChecksum   uint16
}

// ramSizeTable maps the RAM size header byte to its size in bytes, per the
// official DMG header layout.
var ramSizeTable = map[uint8]int{
	0x00: 0,
	0x01: 2 * 1024, // listed in some unofficial docs; unused by licensed titles
	0x02: 8 * 1024,
	0x03: 32 * 1024,
	0x04: 128 * 1024,
	0x05: 64 * 1024,
}

// cartridgeTypeTable classifies every defined DMG cartridge-type byte.
// Types not present here are unsupported mappers.
var cartridgeTypeTable = map[uint8]struct {
	mapper   MapperKind
	ram      bool
	battery  bool
	rtc      bool
	rumble   bool
}{
	0x00: {MapperROMOnly, false, false, false, false},
	0x08: {MapperROMOnly, true, false, false, false},
	0x09: {MapperROMOnly, true, true, false, false},

	0x01: {MapperMBC1, false, false, false, false},
	0x02: {MapperMBC1, true, false, false, false},
	0x03: {MapperMBC1, true, true, false, false},

	0x0F: {MapperMBC3, false, true, true, false},
	0x10: {MapperMBC3, true, true, true, false},
	0x11: {MapperMBC3, false, false, false, false},
	0x12: {MapperMBC3, true, false, false, false},
	0x13: {MapperMBC3, true, true, false, false},

	0x19: {MapperMBC5, false, false, false, false},
	0x1A: {MapperMBC5, true, false, false, false},
	0x1B: {MapperMBC5, true, true, false, false},
	0x1C: {MapperMBC5, false, false, false, true},
	0x1D: {MapperMBC5, true, false, false, true},
	0x1E: {MapperMBC5, true, true, false, true},
}

// ParseHeader validates and extracts the header block from a ROM image.
func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) <= addr.HeaderEnd {
		return nil, &HeaderError{Reason: "ROM image shorter than the header block"}
	}

	title, err := readTitle(rom)
	if err != nil {
		return nil, err
	}

	h := &Header{Title: title}

	if len(title) <= 11 {
		mc := rom[addr.ManufacturerAddr : addr.ManufacturerAddr+addr.ManufacturerLength]
		if utf8.Valid(mc) {
			h.ManufacturerCode = string(mc)
		}
	}
	if len(title) <= 14 {
		h.CGBFlag = rom[addr.CGBFlagAddr]
	}

	cartType := rom[addr.CartridgeTypeAddr]
	info, ok := cartridgeTypeTable[cartType]
	if !ok {
		return nil, &UnsupportedMapperError{CartridgeType: cartType}
	}
	h.Mapper = info.mapper
	h.HasRAM = info.ram
	h.HasBattery = info.battery
	h.HasRTC = info.rtc
	h.HasRumble = info.rumble

	// The declared size is informational; mapper reads wrap by the image's
	// actual length, so a disagreeing image is tolerated rather than
	// rejected.
	romSizeByte := rom[addr.ROMSizeAddr]
	h.ROMSize = 32 * 1024 << romSizeByte

	ramSizeByte := rom[addr.RAMSizeAddr]
	ramSize, ok := ramSizeTable[ramSizeByte]
	if !ok {
		return nil, &HeaderError{Reason: fmt.Sprintf("unknown RAM size code 0x%02X", ramSizeByte)}
	}
	h.RAMSize = ramSize

	h.HeaderChecksum = rom[addr.HeaderChecksumAddr]
	h.GlobalChecksum = uint16(rom[addr.GlobalChecksumAddr])<<8 | uint16(rom[addr.GlobalChecksumAddr+1])

	return h, nil
}

// readTitle extracts the NUL-padded title field, trimming trailing NUL
// bytes, and requires what remains to be valid UTF-8 (real titles are
// ASCII, but the header format itself only guarantees this much).
func readTitle(rom []byte) (string, error) {
	raw := rom[addr.TitleAddr : addr.TitleAddr+addr.TitleLength]
	end := len(raw)
	for end > 0 && raw[end-1] == 0x00 {
		end--
	}
	title := raw[:end]
	if !utf8.Valid(title) {
		return "", &HeaderError{Reason: "title is not valid UTF-8"}
	}
	return string(title), nil
}

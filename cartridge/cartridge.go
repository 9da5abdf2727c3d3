package cartridge

import "errors"

// ErrNoBatteryRAM is returned by RestoreBatteryRAM when the cartridge type
// has no battery-backed RAM to restore into.
var ErrNoBatteryRAM = errors.New("cartridge: no battery-backed RAM")

// Cartridge pairs a parsed header with a constructed mapper, and is the
// unit the rest of the core operates on.
type Cartridge struct {
	Header *Header
	mapper Mapper
}

// Open parses data as a DMG ROM image and constructs the appropriate
// mapper for it. Returns a *HeaderError or *UnsupportedMapperError if the
// image is malformed.
func Open(data []byte) (*Cartridge, error) {
	header, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	var mapper Mapper
	switch header.Mapper {
	case MapperROMOnly:
		mapper = newROMOnly(data)
	case MapperMBC1:
		mapper = newMBC1(data, header.RAMSize)
	case MapperMBC3:
		mapper = newMBC3(data, header.RAMSize)
	case MapperMBC5:
		mapper = newMBC5(data, header.RAMSize)
	default:
		return nil, &UnsupportedMapperError{}
	}

	return &Cartridge{Header: header, mapper: mapper}, nil
}

// Read reads a byte from ROM (0x0000-0x7FFF) or external RAM
// (0xA000-0xBFFF) through the cartridge's mapper.
func (c *Cartridge) Read(address uint16) uint8 {
	return c.mapper.Read(address)
}

// Write writes a byte to the cartridge's mapper registers or external RAM.
func (c *Cartridge) Write(address uint16, value uint8) {
	c.mapper.Write(address, value)
}

// BatteryRAM returns a copy of the cartridge's external RAM and true if the
// cartridge has battery-backed RAM to persist; otherwise returns (nil, false).
func (c *Cartridge) BatteryRAM() ([]byte, bool) {
	if !c.Header.HasBattery {
		return nil, false
	}
	ram := c.mapper.RAM()
	if ram == nil {
		return nil, false
	}
	out := make([]byte, len(ram))
	copy(out, ram)
	return out, true
}

// RestoreBatteryRAM loads previously saved battery RAM back into the
// cartridge. Returns an error if the cartridge has no battery RAM or the
// sizes don't match.
func (c *Cartridge) RestoreBatteryRAM(data []byte) error {
	if !c.Header.HasBattery {
		return ErrNoBatteryRAM
	}
	ram := c.mapper.RAM()
	if ram == nil || len(data) != len(ram) {
		return &SizeMismatchError{Expected: len(ram), Actual: len(data)}
	}
	copy(ram, data)
	return nil
}

package cartridge

// mbc3 implements the MBC3 mapper: a 7-bit ROM bank register (up to 128
// banks) and 4 RAM banks (selector 0x00-0x03); selector values 0x08-0x0C
// address the real-hardware RTC registers, which are out of scope for this
// core and simply read back as 0xFF.
type mbc3 struct {
	rom []byte
	ram []byte

	romBank    uint8
	ramBank    uint8
	ramEnabled bool
}

func newMBC3(rom []byte, ramSize int) *mbc3 {
	return &mbc3{
		rom:     rom,
		ram:     make([]byte, ramSize),
		romBank: 1,
	}
}

func (m *mbc3) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return m.rom[address]
	case address <= 0x7FFF:
		offset := uint32(m.romBank) * 0x4000
		idx := (offset + uint32(address-0x4000)) & wrapMask(len(m.rom))
		return m.rom[idx]
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		if m.ramBank >= 0x08 {
			return 0xFF // RTC register; not emulated (out of scope)
		}
		if len(m.ram) == 0 {
			return 0xFF
		}
		offset := uint32(m.ramBank) * 0x2000
		idx := (offset + uint32(address-0xA000)) & wrapMask(len(m.ram))
		return m.ram[idx]
	default:
		return 0xFF
	}
}

func (m *mbc3) Write(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = value&0x0F == 0x0A
	case address <= 0x3FFF:
		bank := value & 0x7F
		if bank == 0 {
			bank = 1
		}
		m.romBank = bank
	case address <= 0x5FFF:
		m.ramBank = value & 0x0F
	case address <= 0x7FFF:
		// Latches the RTC registers on a 0->1 write; no-op since RTC state
		// is not modeled.
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || m.ramBank >= 0x08 || len(m.ram) == 0 {
			return
		}
		offset := uint32(m.ramBank) * 0x2000
		idx := (offset + uint32(address-0xA000)) & wrapMask(len(m.ram))
		m.ram[idx] = value
	}
}

func (m *mbc3) RAM() []byte { return m.ram }

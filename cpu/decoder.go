package cpu

// kind names a family of SM83 instructions. execute dispatches on kind and
// interprets whichever of the Instruction's operand fields apply to that
// family.
type kind uint8

const (
	kIllegal kind = iota
	kNop
	kHalt
	kStop

	kLd8RegReg
	kLd8RegImm
	kLd8MemReg  // LD (rr),A / LD (HL±),A family — dst is regPairMem
	kLd8RegMem  // LD A,(rr) / LD A,(HL±) family — src is regPairMem
	kLd8ZeroPageCAcc
	kLd8AccZeroPageC
	kLd8ZeroPageImmAcc
	kLd8AccZeroPageImm
	kLd8IndImmAcc
	kLd8AccIndImm

	kLd16RegImm
	kLd16IndImmSP
	kLd16HLSPImm
	kLd16SPHL
	kPush
	kPop

	kAddRegReg
	kAdcRegReg
	kSubRegReg
	kSbcRegReg
	kAndRegReg
	kXorRegReg
	kOrRegReg
	kCpRegReg

	kAddAccImm
	kAdcAccImm
	kSubAccImm
	kSbcAccImm
	kAndAccImm
	kXorAccImm
	kOrAccImm
	kCpAccImm

	kAddHLPair
	kAddSPImm

	kIncReg
	kDecReg
	kIncPair
	kDecPair

	kDaa
	kCpl
	kScf
	kCcf

	kJrImm
	kJrCondImm
	kJpImm
	kJpCondImm
	kJpHL
	kCallImm
	kCallCondImm
	kRet
	kRetCond
	kReti
	kReset

	kDi
	kEi

	kRlca
	kRrca
	kRla
	kRra

	kRlcReg
	kRrcReg
	kRlReg
	kRrReg
	kSlaReg
	kSraReg
	kSwapReg
	kSrlReg

	kBit
	kRes
	kSet
)

// Instruction is the decoded, structured form of one opcode: a kind plus
// whichever operand fields that kind uses. Decode and DecodeCB are total,
// pure functions from a byte to an Instruction — every one of the 256
// possible bytes (and every one of the 256 CB-prefixed bytes) maps to
// exactly one Instruction, including the 11 illegal base opcodes.
type Instruction struct {
	Kind kind

	Dst reg8
	Src reg8

	Pair     regPair
	Stack    regPairStack
	Mem      regPairMem
	Cond     condition
	BitIndex uint8
	Reset    uint8
}

var illegalOpcodes = map[uint8]bool{
	0xD3: true, 0xDB: true, 0xDD: true, 0xE3: true, 0xE4: true,
	0xEB: true, 0xEC: true, 0xED: true, 0xF4: true, 0xFC: true, 0xFD: true,
}

// aluRegKindByY and aluImmKindByY map the y field (bits 5-3) of an x==2
// opcode (ALU A,r) or an x==3,z==6 opcode (ALU A,imm) to its operation
// kind, register-operand form first.
var aluRegKindByY = [8]kind{
	kAddRegReg, kAdcRegReg, kSubRegReg, kSbcRegReg,
	kAndRegReg, kXorRegReg, kOrRegReg, kCpRegReg,
}

var aluImmKindByY = [8]kind{
	kAddAccImm, kAdcAccImm, kSubAccImm, kSbcAccImm,
	kAndAccImm, kXorAccImm, kOrAccImm, kCpAccImm,
}

var rotKindByY = [8]kind{
	kRlcReg, kRrcReg, kRlReg, kRrReg, kSlaReg, kSraReg, kSwapReg, kSrlReg,
}

// Decode maps a base opcode byte to its Instruction. Total over [0,255].
func Decode(op uint8) Instruction {
	if illegalOpcodes[op] {
		return Instruction{Kind: kIllegal}
	}

	x := op >> 6
	y := (op >> 3) & 0x07
	z := op & 0x07
	p := regPair(y >> 1)
	q := y & 1

	switch x {
	case 0:
		return decodeX0(op, y, z, p, q)
	case 1:
		if z == 6 && y == 6 {
			return Instruction{Kind: kHalt}
		}
		return Instruction{Kind: kLd8RegReg, Dst: reg8(y), Src: reg8(z)}
	case 2:
		return Instruction{Kind: aluRegKindByY[y], Src: reg8(z)}
	default: // x == 3
		return decodeX3(op, y, z, p, q)
	}
}

func decodeX0(op, y, z uint8, p regPair, q uint8) Instruction {
	switch z {
	case 0:
		switch y {
		case 0:
			return Instruction{Kind: kNop}
		case 1:
			return Instruction{Kind: kLd16IndImmSP}
		case 2:
			return Instruction{Kind: kStop}
		case 3:
			return Instruction{Kind: kJrImm}
		default: // 4-7: JR cc,imm
			return Instruction{Kind: kJrCondImm, Cond: condition(y - 4)}
		}
	case 1:
		if q == 0 {
			return Instruction{Kind: kLd16RegImm, Pair: p}
		}
		return Instruction{Kind: kAddHLPair, Pair: p}
	case 2:
		mem := regPairMem(p)
		if q == 0 {
			return Instruction{Kind: kLd8MemReg, Mem: mem}
		}
		return Instruction{Kind: kLd8RegMem, Mem: mem}
	case 3:
		if q == 0 {
			return Instruction{Kind: kIncPair, Pair: p}
		}
		return Instruction{Kind: kDecPair, Pair: p}
	case 4:
		return Instruction{Kind: kIncReg, Dst: reg8(y)}
	case 5:
		return Instruction{Kind: kDecReg, Dst: reg8(y)}
	case 6:
		return Instruction{Kind: kLd8RegImm, Dst: reg8(y)}
	case 7:
		switch y {
		case 0:
			return Instruction{Kind: kRlca}
		case 1:
			return Instruction{Kind: kRrca}
		case 2:
			return Instruction{Kind: kRla}
		case 3:
			return Instruction{Kind: kRra}
		case 4:
			return Instruction{Kind: kDaa}
		case 5:
			return Instruction{Kind: kCpl}
		case 6:
			return Instruction{Kind: kScf}
		case 7:
			return Instruction{Kind: kCcf}
		}
	}
	return Instruction{Kind: kIllegal}
}

func decodeX3(op, y, z uint8, p regPair, q uint8) Instruction {
	switch z {
	case 0:
		switch {
		case y < 4:
			return Instruction{Kind: kRetCond, Cond: condition(y)}
		case y == 4:
			return Instruction{Kind: kLd8ZeroPageImmAcc}
		case y == 5:
			return Instruction{Kind: kAddSPImm}
		case y == 6:
			return Instruction{Kind: kLd8AccZeroPageImm}
		default: // y == 7
			return Instruction{Kind: kLd16HLSPImm}
		}
	case 1:
		if q == 0 {
			return Instruction{Kind: kPop, Stack: regPairStack(p)}
		}
		switch p {
		case 0:
			return Instruction{Kind: kRet}
		case 1:
			return Instruction{Kind: kReti}
		case 2:
			return Instruction{Kind: kJpHL}
		default: // 3
			return Instruction{Kind: kLd16SPHL}
		}
	case 2:
		switch {
		case y < 4:
			return Instruction{Kind: kJpCondImm, Cond: condition(y)}
		case y == 4:
			return Instruction{Kind: kLd8ZeroPageCAcc}
		case y == 5:
			return Instruction{Kind: kLd8IndImmAcc}
		case y == 6:
			return Instruction{Kind: kLd8AccZeroPageC}
		default: // y == 7
			return Instruction{Kind: kLd8AccIndImm}
		}
	case 3:
		switch y {
		case 0:
			return Instruction{Kind: kJpImm}
		case 1:
			return Instruction{} // CB prefix; handled by the caller before Decode
		case 6:
			return Instruction{Kind: kDi}
		case 7:
			return Instruction{Kind: kEi}
		default:
			return Instruction{Kind: kIllegal}
		}
	case 4:
		if y < 4 {
			return Instruction{Kind: kCallCondImm, Cond: condition(y)}
		}
		return Instruction{Kind: kIllegal}
	case 5:
		if q == 0 {
			return Instruction{Kind: kPush, Stack: regPairStack(p)}
		}
		if p == 0 {
			return Instruction{Kind: kCallImm}
		}
		return Instruction{Kind: kIllegal}
	case 6:
		return Instruction{Kind: aluImmKindByY[y]}
	case 7:
		return Instruction{Kind: kReset, Reset: y * 8}
	}
	return Instruction{Kind: kIllegal}
}

// DecodeCB maps a CB-prefixed opcode byte to its Instruction. Total over
// [0,255]; there are no illegal CB-prefixed opcodes.
func DecodeCB(op uint8) Instruction {
	x := op >> 6
	y := (op >> 3) & 0x07
	z := op & 0x07

	switch x {
	case 0:
		return Instruction{Kind: rotKindByY[y], Src: reg8(z)}
	case 1:
		return Instruction{Kind: kBit, BitIndex: y, Src: reg8(z)}
	case 2:
		return Instruction{Kind: kRes, BitIndex: y, Src: reg8(z)}
	default: // 3
		return Instruction{Kind: kSet, BitIndex: y, Src: reg8(z)}
	}
}

package cpu

import "github.com/coderidge/dmgcore/addr"

// execute interprets a decoded Instruction against the current register
// file and bus, and returns the number of clock cycles it consumed. Memory
// operands ([HL], immediates) already carry their extra cycles as part of
// the fixed per-kind cost below.
func (c *CPU) execute(in Instruction) int {
	switch in.Kind {
	case kIllegal:
		// Real hardware locks up; there is no cycle count or successor
		// state to return, so the caller (Emulator.Step) recovers this via
		// a deferred recover() and turns it into an IllegalOpcodeError.
		panic(&IllegalOpcodeError{Opcode: c.lastOpcode, CB: c.lastWasCB})

	case kNop:
		return 4

	case kHalt:
		c.halted = true
		return 4

	case kStop:
		c.stopped = true
		_ = c.fetch() // STOP is followed by an ignored padding byte
		// Entering STOP resets the divider on real hardware.
		c.bus.Write(addr.DIV, 0)
		return 4

	case kLd8RegReg:
		c.set8(in.Dst, c.get8(in.Src))
		if in.Dst == regHLInd || in.Src == regHLInd {
			return 8
		}
		return 4

	case kLd8RegImm:
		c.set8(in.Dst, c.fetch())
		if in.Dst == regHLInd {
			return 12
		}
		return 8

	case kLd8MemReg:
		target := c.getMemPair(in.Mem)
		c.bus.Write(target, c.a)
		c.afterMemOp(in.Mem)
		return 8

	case kLd8RegMem:
		target := c.getMemPair(in.Mem)
		c.a = c.bus.Read(target)
		c.afterMemOp(in.Mem)
		return 8

	case kLd8ZeroPageCAcc:
		c.bus.Write(0xFF00+uint16(c.c), c.a)
		return 8
	case kLd8AccZeroPageC:
		c.a = c.bus.Read(0xFF00 + uint16(c.c))
		return 8
	case kLd8ZeroPageImmAcc:
		c.bus.Write(0xFF00+uint16(c.fetch()), c.a)
		return 12
	case kLd8AccZeroPageImm:
		c.a = c.bus.Read(0xFF00 + uint16(c.fetch()))
		return 12
	case kLd8IndImmAcc:
		c.bus.Write(c.fetch16(), c.a)
		return 16
	case kLd8AccIndImm:
		c.a = c.bus.Read(c.fetch16())
		return 16

	case kLd16RegImm:
		c.setPair(in.Pair, c.fetch16())
		return 12
	case kLd16IndImmSP:
		a := c.fetch16()
		c.bus.Write(a, uint8(c.sp))
		c.bus.Write(a+1, uint8(c.sp>>8))
		return 20
	case kLd16HLSPImm:
		e := int8(c.fetch())
		result, h, cy := addSPSigned(c.sp, e)
		c.setHL(result)
		c.setFlag(flagZ, false)
		c.setFlag(flagN, false)
		c.setFlag(flagH, h)
		c.setFlag(flagC, cy)
		return 12
	case kLd16SPHL:
		c.sp = c.hl()
		return 8
	case kPush:
		c.pushStack(c.getStackPair(in.Stack))
		return 16
	case kPop:
		c.setStackPair(in.Stack, c.popStack())
		return 12

	case kAddRegReg:
		c.add(c.get8(in.Src), false)
		return cycMem(in.Src, 4, 8)
	case kAdcRegReg:
		c.add(c.get8(in.Src), c.f&flagC != 0)
		return cycMem(in.Src, 4, 8)
	case kSubRegReg:
		c.sub(c.get8(in.Src), false, true)
		return cycMem(in.Src, 4, 8)
	case kSbcRegReg:
		c.sub(c.get8(in.Src), c.f&flagC != 0, true)
		return cycMem(in.Src, 4, 8)
	case kAndRegReg:
		c.and(c.get8(in.Src))
		return cycMem(in.Src, 4, 8)
	case kXorRegReg:
		c.xor(c.get8(in.Src))
		return cycMem(in.Src, 4, 8)
	case kOrRegReg:
		c.or(c.get8(in.Src))
		return cycMem(in.Src, 4, 8)
	case kCpRegReg:
		c.sub(c.get8(in.Src), false, false)
		return cycMem(in.Src, 4, 8)

	case kAddAccImm:
		c.add(c.fetch(), false)
		return 8
	case kAdcAccImm:
		c.add(c.fetch(), c.f&flagC != 0)
		return 8
	case kSubAccImm:
		c.sub(c.fetch(), false, true)
		return 8
	case kSbcAccImm:
		c.sub(c.fetch(), c.f&flagC != 0, true)
		return 8
	case kAndAccImm:
		c.and(c.fetch())
		return 8
	case kXorAccImm:
		c.xor(c.fetch())
		return 8
	case kOrAccImm:
		c.or(c.fetch())
		return 8
	case kCpAccImm:
		c.sub(c.fetch(), false, false)
		return 8

	case kAddHLPair:
		c.addHL(in.Pair)
		return 8
	case kAddSPImm:
		e := int8(c.fetch())
		result, h, cy := addSPSigned(c.sp, e)
		c.sp = result
		c.setFlag(flagZ, false)
		c.setFlag(flagN, false)
		c.setFlag(flagH, h)
		c.setFlag(flagC, cy)
		return 16

	case kIncReg:
		c.set8(in.Dst, c.inc(c.get8(in.Dst)))
		return cycMem(in.Dst, 4, 12)
	case kDecReg:
		c.set8(in.Dst, c.dec(c.get8(in.Dst)))
		return cycMem(in.Dst, 4, 12)
	case kIncPair:
		c.setPair(in.Pair, c.getPair(in.Pair)+1)
		return 8
	case kDecPair:
		c.setPair(in.Pair, c.getPair(in.Pair)-1)
		return 8

	case kDaa:
		c.daa()
		return 4
	case kCpl:
		c.a = ^c.a
		c.setFlag(flagN, true)
		c.setFlag(flagH, true)
		return 4
	case kScf:
		c.setFlag(flagN, false)
		c.setFlag(flagH, false)
		c.setFlag(flagC, true)
		return 4
	case kCcf:
		c.setFlag(flagN, false)
		c.setFlag(flagH, false)
		c.setFlag(flagC, c.f&flagC == 0)
		return 4

	case kJrImm:
		e := int8(c.fetch())
		c.pc = uint16(int32(c.pc) + int32(e))
		return 12
	case kJrCondImm:
		e := int8(c.fetch())
		if c.checkCondition(in.Cond) {
			c.pc = uint16(int32(c.pc) + int32(e))
			return 12
		}
		return 8
	case kJpImm:
		c.pc = c.fetch16()
		return 16
	case kJpCondImm:
		target := c.fetch16()
		if c.checkCondition(in.Cond) {
			c.pc = target
			return 16
		}
		return 12
	case kJpHL:
		c.pc = c.hl()
		return 4
	case kCallImm:
		target := c.fetch16()
		c.pushStack(c.pc)
		c.pc = target
		return 24
	case kCallCondImm:
		target := c.fetch16()
		if c.checkCondition(in.Cond) {
			c.pushStack(c.pc)
			c.pc = target
			return 24
		}
		return 12
	case kRet:
		c.pc = c.popStack()
		return 16
	case kRetCond:
		if c.checkCondition(in.Cond) {
			c.pc = c.popStack()
			return 20
		}
		return 8
	case kReti:
		c.pc = c.popStack()
		c.interruptsEnabled = true
		return 16
	case kReset:
		c.pushStack(c.pc)
		c.pc = uint16(in.Reset)
		return 16

	case kDi:
		c.interruptsEnabled = false
		c.eiPending = false
		return 4
	case kEi:
		c.eiPending = true
		return 4

	case kRlca:
		c.a = c.rlc(c.a)
		c.setFlag(flagZ, false)
		return 4
	case kRrca:
		c.a = c.rrc(c.a)
		c.setFlag(flagZ, false)
		return 4
	case kRla:
		c.a = c.rl(c.a)
		c.setFlag(flagZ, false)
		return 4
	case kRra:
		c.a = c.rr(c.a)
		c.setFlag(flagZ, false)
		return 4

	case kRlcReg:
		c.set8(in.Src, c.rlc(c.get8(in.Src)))
		return cycMem(in.Src, 8, 16)
	case kRrcReg:
		c.set8(in.Src, c.rrc(c.get8(in.Src)))
		return cycMem(in.Src, 8, 16)
	case kRlReg:
		c.set8(in.Src, c.rl(c.get8(in.Src)))
		return cycMem(in.Src, 8, 16)
	case kRrReg:
		c.set8(in.Src, c.rr(c.get8(in.Src)))
		return cycMem(in.Src, 8, 16)
	case kSlaReg:
		c.set8(in.Src, c.sla(c.get8(in.Src)))
		return cycMem(in.Src, 8, 16)
	case kSraReg:
		c.set8(in.Src, c.sra(c.get8(in.Src)))
		return cycMem(in.Src, 8, 16)
	case kSwapReg:
		c.set8(in.Src, c.swap(c.get8(in.Src)))
		return cycMem(in.Src, 8, 16)
	case kSrlReg:
		c.set8(in.Src, c.srl(c.get8(in.Src)))
		return cycMem(in.Src, 8, 16)

	case kBit:
		v := c.get8(in.Src)
		c.setFlag(flagZ, v&(1<<in.BitIndex) == 0)
		c.setFlag(flagN, false)
		c.setFlag(flagH, true)
		return cycMem(in.Src, 8, 12)
	case kRes:
		c.set8(in.Src, c.get8(in.Src)&^(1<<in.BitIndex))
		return cycMem(in.Src, 8, 16)
	case kSet:
		c.set8(in.Src, c.get8(in.Src)|(1<<in.BitIndex))
		return cycMem(in.Src, 8, 16)
	}

	panic("cpu: unreachable instruction kind")
}

func cycMem(r reg8, normal, mem int) int {
	if r == regHLInd {
		return mem
	}
	return normal
}

package emu

import "github.com/user-none/em99/logger"

// Command opcodes, R46 bits 7-4.
const (
	opSTOP  = 0x0
	opPOINT = 0x4
	opPSET  = 0x5
	opSRCH  = 0x6
	opLINE  = 0x7
	opLMMV  = 0x8
	opLMMM  = 0x9
	opLMCM  = 0xA
	opLMMC  = 0xB
	opHMMV  = 0xC
	opHMMM  = 0xD
	opYMMM  = 0xE
	opHMMC  = 0xF
)

var opNames = [16]string{
	"STOP", "op1", "op2", "op3", "POINT", "PSET", "SRCH", "LINE",
	"LMMV", "LMMM", "LMCM", "LMMC", "HMMV", "HMMM", "YMMM", "HMMC",
}

// R45 (ARG) bits.
const (
	argMAJ = 0x01
	argEQ  = 0x02
	argDIX = 0x04
	argDIY = 0x08
	argMXS = 0x10
	argMXD = 0x20
	argMXC = 0x40
)

// DefaultCommandBudget is the command engine budget granted per scanline,
// in the units of the cost tables.
const DefaultCommandBudget = 13662

type cmdState uint8

const (
	cmdIdle cmdState = iota
	cmdRunning
	cmdWaitHost
	cmdAborted
)

var cmdStateNames = [...]string{"idle", "running", "waiting on host", "aborted"}

func (s cmdState) String() string {
	if int(s) < len(cmdStateNames) {
		return cmdStateNames[s]
	}
	return "unknown"
}

// commandUnit is the complete state of an in-flight command. X positions
// are in pixels for every opcode; byte oriented opcodes step a whole byte
// worth of pixels at a time.
type commandUnit struct {
	state  cmdState
	op     uint8
	lo     uint8
	arg    uint8
	sx, sy int
	dx, dy int
	tx, ty int
	nx, ny int
	asx    int
	adx    int
	anx    int
	cl     uint8
	mxs    bool
	mxd    bool
	mode   Mode
	budget int

	// Results visible through S2, S7, S8 and S9.
	colorOut uint8
	border   bool
	foundX   int
}

func (u *commandUnit) busy() bool {
	return u.state == cmdRunning || u.state == cmdWaitHost
}

// commandSteps holds the budgeted per-unit step for each opcode. Host
// driven opcodes advance on port traffic instead.
var commandSteps = [16]func(v *V9938){
	opSRCH: stepSearch,
	opLINE: stepLine,
	opLMMV: stepLMMV,
	opLMMM: stepLMMM,
	opHMMV: stepHMMV,
	opHMMM: stepHMMM,
	opYMMM: stepYMMM,
}

// Per-unit costs indexed by display enabled | sprites disabled << 1.
const (
	costSRCH = iota
	costLINE
	costHMMV
	costLMMV
	costYMMM
	costHMMM
	costLMMM
)

var commandCostsNTSC = [7][4]int{
	costSRCH: {818, 1025, 818, 830},
	costLINE: {1063, 1259, 1063, 1161},
	costHMMV: {439, 549, 439, 531},
	costLMMV: {873, 1135, 873, 1056},
	costYMMM: {586, 952, 586, 610},
	costHMMM: {818, 1111, 818, 854},
	costLMMM: {1160, 1599, 1160, 1172},
}

var commandCostsPAL = [7][4]int{
	costSRCH: {696, 854, 696, 684},
	costLINE: {904, 1026, 904, 953},
	costHMMV: {366, 439, 366, 427},
	costLMMV: {732, 909, 732, 854},
	costYMMM: {488, 720, 488, 500},
	costHMMM: {684, 879, 684, 708},
	costLMMM: {964, 1257, 964, 977},
}

var opCostRow = [16]int{
	opSRCH: costSRCH,
	opLINE: costLINE,
	opHMMV: costHMMV,
	opLMMV: costLMMV,
	opYMMM: costYMMM,
	opHMMM: costHMMM,
	opLMMM: costLMMM,
}

// commandCost returns the cost of one step of op. PAL timing follows R9
// bit 1.
func (v *V9938) commandCost(op uint8) int {
	idx := 0
	if v.regs[1]&r1Display != 0 {
		idx |= 1
	}
	if v.regs[8]&0x02 != 0 {
		idx |= 2
	}
	table := &commandCostsNTSC
	if v.regs[9]&0x02 != 0 {
		table = &commandCostsPAL
	}
	return table[opCostRow[op]][idx]
}

// UpdateCommand grants budget to the running command and steps it until
// the budget no longer covers a step or the command ends. Unused budget
// carries over to the next call, so splitting a budget across calls gives
// the same result as granting it at once.
func (v *V9938) UpdateCommand(budget int) {
	u := &v.cmd
	if u.state != cmdRunning {
		return
	}
	step := commandSteps[u.op]
	if step == nil {
		u.state = cmdIdle
		return
	}
	u.budget += budget
	cost := v.commandCost(u.op)
	for u.state == cmdRunning && u.budget >= cost {
		u.budget -= cost
		step(v)
	}
}

// CommandBusy reports S2.CE.
func (v *V9938) CommandBusy() bool {
	return v.cmd.busy()
}

// CommandState returns the engine phase and current opcode.
func (v *V9938) CommandState() (state string, op string) {
	return v.cmd.state.String(), opNames[v.cmd.op&0x0F]
}

func (v *V9938) cmdRegs() (sx, sy, dx, dy, nx, ny int) {
	r := v.regs
	sx = int(r[32]) | int(r[33]&0x01)<<8
	sy = int(r[34]) | int(r[35]&0x03)<<8
	dx = int(r[36]) | int(r[37]&0x01)<<8
	dy = int(r[38]) | int(r[39]&0x03)<<8
	nx = int(r[40]) | int(r[41]&0x03)<<8
	ny = int(r[42]) | int(r[43]&0x03)<<8
	return
}

// startCommand handles a write to R46.
func (v *V9938) startCommand(val uint8) {
	op := val >> 4
	u := &v.cmd

	if op == opSTOP {
		if u.busy() {
			u.state = cmdAborted
		}
		u.budget = 0
		return
	}
	if op < opPOINT {
		logger.Logf("v9938", "command opcode 0x%X not executed", op)
		return
	}
	if !v.mode.bitmap() {
		logger.Logf("v9938", "command %s in %s not executed", opNames[op], v.mode)
		return
	}
	if u.busy() {
		logger.Logf("v9938", "command %s overruns %s", opNames[op], opNames[u.op])
	}

	sx, sy, dx, dy, nx, ny := v.cmdRegs()
	arg := v.regs[45]
	*u = commandUnit{
		op:       op,
		lo:       val & 0x0F,
		arg:      arg,
		sx:       sx,
		sy:       sy,
		dx:       dx,
		dy:       dy,
		tx:       1,
		ty:       1,
		nx:       nx,
		ny:       ny,
		cl:       v.regs[44],
		mxs:      arg&argMXS != 0,
		mxd:      arg&argMXD != 0,
		mode:     v.mode,
		colorOut: u.colorOut,
		border:   u.border,
		foundX:   u.foundX,
	}
	if arg&argDIX != 0 {
		u.tx = -1
	}
	if arg&argDIY != 0 {
		u.ty = -1
	}

	switch op {
	case opPOINT:
		u.colorOut = v.point(sx, sy, u.mxs)
		u.state = cmdIdle
		return
	case opPSET:
		v.pset(dx, dy, u.mxd, u.cl, u.lo)
		u.state = cmdIdle
		return
	case opSRCH:
		u.state = cmdRunning
		return
	case opLINE:
		u.asx = (nx - 1) >> 1 & 0x3FF
		u.anx = 0
		u.state = cmdRunning
		return
	}

	if u.nx == 0 {
		u.nx = v.cmdWidth()
	}
	u.ny = (u.ny-1)&0x3FF + 1
	if op == opYMMM {
		u.nx = v.cmdWidth()
	}
	u.asx, u.adx, u.anx = u.sx, u.dx, u.nx

	switch op {
	case opLMCM:
		u.state = cmdWaitHost
		u.colorOut = v.point(u.asx, u.sy, u.mxs)
	case opLMMC:
		u.state = cmdWaitHost
		v.transferIn(u.cl)
	case opHMMC:
		u.state = cmdWaitHost
		v.transferIn(u.cl)
	default:
		u.state = cmdRunning
	}
}

// abortCommand stops the command in place. Registers are not written back.
func (v *V9938) abortCommand(reason string) {
	if !v.cmd.busy() {
		return
	}
	logger.Logf("v9938", "command %s aborted: %s", opNames[v.cmd.op], reason)
	v.cmd.state = cmdAborted
	v.cmd.budget = 0
}

// cmdWidth is the bitmap width in pixels of the mode captured at start.
func (v *V9938) cmdWidth() int {
	if v.cmd.mode == ModeGraphics5 || v.cmd.mode == ModeGraphics6 {
		return 512
	}
	return 256
}

// pixelsPerByte for the captured mode.
func (v *V9938) pixelsPerByte() int {
	switch v.cmd.mode {
	case ModeGraphics5:
		return 4
	case ModeGraphics7:
		return 1
	}
	return 2
}

// byteAddr maps a pixel position to the VRAM slice. Expansion RAM is
// linear; main RAM follows the display layout of the captured mode.
func (v *V9938) byteAddr(x, y int, ext bool) uint32 {
	var lin uint32
	yy := uint32(y & 0x3FF)
	xx := uint32(x)
	switch v.cmd.mode {
	case ModeGraphics4:
		lin = yy<<7 | (xx>>1)&0x7F
	case ModeGraphics5:
		lin = yy<<7 | (xx>>2)&0x7F
	case ModeGraphics6:
		lin = yy<<8 | (xx>>1)&0xFF
	default:
		lin = yy<<8 | xx&0xFF
	}
	if ext {
		return expansionBase | lin&0xFFFF
	}
	lin &= 0x1FFFF
	if v.cmd.mode == ModeGraphics6 || v.cmd.mode == ModeGraphics7 {
		return interleave(lin)
	}
	return lin
}

// pixelField returns the shift and mask of pixel x within its byte.
func (v *V9938) pixelField(x int) (shift uint, mask uint8) {
	switch v.cmd.mode {
	case ModeGraphics5:
		return uint(^x&3) << 1, 0x03
	case ModeGraphics7:
		return 0, 0xFF
	}
	return uint(^x&1) << 2, 0x0F
}

func (v *V9938) point(x, y int, ext bool) uint8 {
	shift, mask := v.pixelField(x)
	return v.vram[v.byteAddr(x, y, ext)] >> shift & mask
}

// logicalOp combines a source color with the destination. The T variants
// (bit 3) leave the destination alone when the source is color 0.
func logicalOp(lo, dst, src uint8) (uint8, bool) {
	if lo&0x08 != 0 && src == 0 {
		return dst, false
	}
	switch lo & 0x07 {
	case 0:
		return src, true
	case 1:
		return dst & src, true
	case 2:
		return dst | src, true
	case 3:
		return dst ^ src, true
	case 4:
		return ^src, true
	}
	return dst, false
}

func (v *V9938) pset(x, y int, ext bool, color, lo uint8) {
	shift, mask := v.pixelField(x)
	addr := v.byteAddr(x, y, ext)
	old := v.vram[addr]
	n, ok := logicalOp(lo, old>>shift&mask, color&mask)
	if !ok {
		return
	}
	v.vram[addr] = old&^(mask<<shift) | (n&mask)<<shift
}

// finishCommand ends the command and writes the coordinate registers back.
func (v *V9938) finishCommand() {
	u := &v.cmd
	r := v.regs
	r[32] = uint8(u.sx)
	r[33] = uint8(u.sx>>8) & 0x01
	r[34] = uint8(u.sy)
	r[35] = uint8(u.sy>>8) & 0x03
	r[36] = uint8(u.dx)
	r[37] = uint8(u.dx>>8) & 0x01
	r[38] = uint8(u.dy)
	r[39] = uint8(u.dy>>8) & 0x03
	r[42] = uint8(u.ny)
	r[43] = uint8(u.ny>>8) & 0x03
	u.state = cmdIdle
	u.budget = 0
}

// nextRow closes a row. The command ends when NY is exhausted or a Y
// coordinate stepping upward wraps to all bits set.
func (v *V9938) nextRow(usesSource bool) {
	u := &v.cmd
	u.ny--
	u.dy = (u.dy + u.ty) & 0x3FF
	if usesSource {
		u.sy = (u.sy + u.ty) & 0x3FF
	}
	if u.ny <= 0 || (u.ty < 0 && (u.dy == 0x3FF || (usesSource && u.sy == 0x3FF))) {
		v.finishCommand()
		return
	}
	u.asx, u.adx, u.anx = u.sx, u.dx, u.nx
}

func (v *V9938) outside(x int) bool {
	return x < 0 || x >= v.cmdWidth()
}

// advancePixel moves one pixel (or one byte worth of pixels) along the row
// and closes the row when the count or the screen edge is reached.
func (v *V9938) advancePixel(step int, usesSource bool) {
	u := &v.cmd
	u.adx += u.tx * step
	if usesSource {
		u.asx += u.tx * step
	}
	u.anx -= step
	if u.anx <= 0 || v.outside(u.adx) || (usesSource && v.outside(u.asx)) {
		v.nextRow(usesSource)
	}
}

// advanceSource is advancePixel for LMCM, which reads only: it walks the
// source and ignores the destination registers.
func (v *V9938) advanceSource(step int) {
	u := &v.cmd
	u.asx += u.tx * step
	u.anx -= step
	if u.anx > 0 && !v.outside(u.asx) {
		return
	}
	u.ny--
	u.sy = (u.sy + u.ty) & 0x3FF
	if u.ny <= 0 || (u.ty < 0 && u.sy == 0x3FF) {
		v.finishCommand()
		return
	}
	u.asx, u.anx = u.sx, u.nx
}

func stepLMMV(v *V9938) {
	u := &v.cmd
	v.pset(u.adx, u.dy, u.mxd, u.cl, u.lo)
	v.advancePixel(1, false)
}

func stepLMMM(v *V9938) {
	u := &v.cmd
	color := v.point(u.asx, u.sy, u.mxs)
	v.pset(u.adx, u.dy, u.mxd, color, u.lo)
	v.advancePixel(1, true)
}

func stepHMMV(v *V9938) {
	u := &v.cmd
	v.vram[v.byteAddr(u.adx, u.dy, u.mxd)] = u.cl
	v.advancePixel(v.pixelsPerByte(), false)
}

func stepHMMM(v *V9938) {
	u := &v.cmd
	v.vram[v.byteAddr(u.adx, u.dy, u.mxd)] = v.vram[v.byteAddr(u.asx, u.sy, u.mxs)]
	v.advancePixel(v.pixelsPerByte(), true)
}

// stepYMMM copies along DX from SY to DY up to the screen edge; NX is
// not used.
func stepYMMM(v *V9938) {
	u := &v.cmd
	v.vram[v.byteAddr(u.adx, u.dy, u.mxd)] = v.vram[v.byteAddr(u.adx, u.sy, u.mxd)]
	u.asx = u.adx
	v.advancePixel(v.pixelsPerByte(), true)
}

// stepSearch tests one pixel. The search ends on a hit, which sets BD and
// the S8/S9 coordinate, or at the screen edge with BD clear.
func stepSearch(v *V9938) {
	u := &v.cmd
	hit := v.point(u.sx, u.sy, u.mxs) == u.cl
	if hit != (u.arg&argEQ != 0) {
		u.border = true
		u.foundX = u.sx
		u.state = cmdIdle
		u.budget = 0
		return
	}
	u.sx += u.tx
	if v.outside(u.sx) {
		u.border = false
		u.state = cmdIdle
		u.budget = 0
	}
}

// stepLine draws one pixel of a Bresenham line. NX is the major axis
// length and NY the minor; MAJ selects Y as the major axis.
func stepLine(v *V9938) {
	u := &v.cmd
	v.pset(u.dx, u.dy, u.mxd, u.cl, u.lo)
	yMajor := u.arg&argMAJ != 0
	if yMajor {
		u.dy = (u.dy + u.ty) & 0x3FF
	} else {
		u.dx += u.tx
	}
	u.asx -= u.ny
	if u.asx < 0 {
		u.asx += u.nx
		if yMajor {
			u.dx += u.tx
		} else {
			u.dy = (u.dy + u.ty) & 0x3FF
		}
	}
	u.asx &= 0x3FF
	done := u.anx == u.nx
	u.anx++
	if done || v.outside(u.dx) {
		v.finishCommand()
	}
}

// transferIn consumes one host byte for LMMC or HMMC.
func (v *V9938) transferIn(val uint8) {
	u := &v.cmd
	if u.state != cmdWaitHost {
		return
	}
	switch u.op {
	case opLMMC:
		v.pset(u.adx, u.dy, u.mxd, val, u.lo)
		v.advancePixel(1, false)
	case opHMMC:
		v.vram[v.byteAddr(u.adx, u.dy, u.mxd)] = val
		v.advancePixel(v.pixelsPerByte(), false)
	}
}

// transferOut hands the current LMCM pixel to the host and fetches the
// next one.
func (v *V9938) transferOut() uint8 {
	u := &v.cmd
	val := u.colorOut
	if u.state != cmdWaitHost || u.op != opLMCM {
		return val
	}
	v.advanceSource(1)
	if u.state == cmdWaitHost {
		u.colorOut = v.point(u.asx, u.sy, u.mxs)
	}
	return val
}

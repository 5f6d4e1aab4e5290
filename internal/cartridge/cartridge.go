// Package cartridge models the GBA game pak: read-only ROM plus one of
// four auto-detected backup storage schemes (SRAM, Flash 64 KiB, Flash
// 128 KiB, EEPROM). It is the direct analogue of the teacher's
// internal/cart package, which sniffs a Game Boy header byte to pick an
// MBC implementation; here the pak is sniffed for an ASCII signature
// instead of a header byte, and the "banking" state machine is a JEDEC
// flash command sequencer rather than an MBC register pair.
package cartridge

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// BackupType enumerates the storage schemes spec.md §3/§6 requires.
type BackupType int

const (
	// BackupAuto requests signature-scan auto-detection (spec.md §6).
	BackupAuto BackupType = iota
	BackupSRAM
	BackupFlash64K
	BackupFlash128K
	BackupEEPROM
)

func (t BackupType) String() string {
	switch t {
	case BackupSRAM:
		return "SRAM"
	case BackupFlash64K:
		return "FLASH512"
	case BackupFlash128K:
		return "FLASH1M"
	case BackupEEPROM:
		return "EEPROM"
	default:
		return "AUTO"
	}
}

const (
	maxROMSize    = 32 * 1024 * 1024
	backupRAMSize = 128 * 1024
)

// signature is a word-aligned ASCII needle scanned for in ROM, in the
// priority order spec.md §6 prescribes ("first match wins").
type signature struct {
	text string
	typ  BackupType
}

var signatures = []signature{
	{"SRAM_V", BackupSRAM},
	{"FLASH512_V", BackupFlash64K},
	{"FLASH1M_V", BackupFlash128K},
	{"FLASH_V", BackupFlash64K},
	{"EEPROM_V", BackupEEPROM},
}

// DetectBackupType scans rom for a known signature at a word-aligned
// offset. The first signature to match, in the table's priority order
// independent of scan position, wins; otherwise SRAM is assumed.
func DetectBackupType(rom []byte) BackupType {
	for _, sig := range signatures {
		needle := []byte(sig.text)
		for off := 0; off+len(needle) <= len(rom); off += 4 {
			if bytes.Equal(rom[off:off+len(needle)], needle) {
				return sig.typ
			}
		}
	}
	return BackupSRAM
}

// Backup is the behavior every backup scheme implements: byte-addressed
// read/write as seen through the 0x0E000000 (or EEPROM's DMA-port)
// window, plus gob-friendly state for save-state snapshots.
type Backup interface {
	Read(addr uint32) byte
	Write(addr uint32, value byte)
	Size() int
	Raw() []byte
	LoadRaw([]byte)
}

// Cartridge owns the read-only ROM image and the detected/overridden
// backup implementation.
type Cartridge struct {
	rom    []byte
	backup Backup
	typ    BackupType

	// bankCount partitions the backup image into N equal banks per
	// spec.md §6; bankCount==1 is the common case.
	bankCount int
	curBank   int
}

// New constructs a Cartridge from a ROM image and an optional backup
// image, both as read from external storage (file I/O is an external
// collaborator per spec.md §1). override selects BackupAuto to run
// signature detection, or a specific BackupType to force it. bankCount
// partitions the backup image into that many equal save banks.
func New(rom []byte, backupImage []byte, override BackupType, bankCount int) (*Cartridge, error) {
	if len(rom) == 0 {
		return nil, fmt.Errorf("cartridge: empty ROM image")
	}
	if len(rom) > maxROMSize {
		return nil, fmt.Errorf("cartridge: ROM of %d bytes exceeds 32MiB limit", len(rom))
	}
	if bankCount <= 0 {
		bankCount = 1
	}

	typ := override
	if typ == BackupAuto {
		typ = DetectBackupType(rom)
	}

	c := &Cartridge{rom: rom, typ: typ, bankCount: bankCount}

	raw := backupImage
	if len(raw) == 0 {
		raw = make([]byte, backupRAMSize)
		for i := range raw {
			raw[i] = 0xFF
		}
	}

	switch typ {
	case BackupFlash128K:
		c.backup = newFlash(raw, 2)
	case BackupFlash64K:
		c.backup = newFlash(raw, 1)
	case BackupEEPROM:
		c.backup = newEEPROM(raw)
	default:
		c.backup = newSRAM(raw)
	}
	return c, nil
}

// Type reports the resolved (post-detection) backup scheme.
func (c *Cartridge) Type() BackupType { return c.typ }

// ReadROM8 reads one byte from the 0x08000000-0x0DFFFFFF window, mirrored
// modulo the ROM's actual size (32 MiB address space, smaller physical
// image). Out-of-range reads return the low byte of the halfword address,
// matching GBA open-bus behavior for unmapped ROM mirrors closely enough
// for BIOS-driven code that probes cartridge size.
func (c *Cartridge) ReadROM8(addr uint32) byte {
	off := addr % maxROMSize
	if int(off) < len(c.rom) {
		return c.rom[off]
	}
	return byte(off >> 1)
}

// WriteROM8 is a no-op: cartridge ROM is read-only (spec.md §3 invariant).
func (c *Cartridge) WriteROM8(addr uint32, value byte) {}

// bankOffset partitions the backup image into c.bankCount equal slices
// and returns addr rebased into the slice c.curBank currently selects
// (spec.md §6's N-equal-bank save partitioning).
func (c *Cartridge) bankOffset(addr uint32) uint32 {
	if c.bankCount <= 1 {
		return addr
	}
	bankSize := uint32(c.backup.Size()) / uint32(c.bankCount)
	return uint32(c.curBank)*bankSize + addr%bankSize
}

// ReadBackup8 dispatches to the active backup scheme.
func (c *Cartridge) ReadBackup8(addr uint32) byte {
	if c.backup == nil {
		return 0xFF
	}
	return c.backup.Read(c.bankOffset(addr))
}

// WriteBackup8 dispatches to the active backup scheme.
func (c *Cartridge) WriteBackup8(addr uint32, value byte) {
	if c.backup == nil {
		return
	}
	c.backup.Write(c.bankOffset(addr), value)
}

// BankCount and SelectBank implement spec.md §6's N-equal-bank
// partitioning of the backup image; most carts use a single bank.
func (c *Cartridge) BankCount() int { return c.bankCount }

func (c *Cartridge) SelectBank(n int) {
	if n < 0 || n >= c.bankCount {
		return
	}
	c.curBank = n
}

// BackupImage returns the full backing store for persistence by an
// external collaborator (save-file I/O is out of scope per spec.md §1).
func (c *Cartridge) BackupImage() []byte {
	if c.backup == nil {
		return nil
	}
	return c.backup.Raw()
}

type cartridgeState struct {
	Type       BackupType
	BackupRaw  []byte
	FlashState []byte
	EEState    []byte
	BankCount  int
	CurBank    int
}

// SaveState gob-encodes the backup's mutable state, grounded on the
// teacher's bus.SaveState/LoadState pair. The ROM itself is never
// serialized; the reconstructing side supplies it again at load time.
func (c *Cartridge) SaveState() []byte {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	s := cartridgeState{Type: c.typ, BankCount: c.bankCount, CurBank: c.curBank}
	if c.backup != nil {
		s.BackupRaw = c.backup.Raw()
	}
	if f, ok := c.backup.(*Flash); ok {
		s.FlashState = f.saveCommandState()
	}
	if e, ok := c.backup.(*EEPROM); ok {
		s.EEState = e.saveCommandState()
	}
	_ = enc.Encode(s)
	return buf.Bytes()
}

func (c *Cartridge) LoadState(data []byte) {
	var s cartridgeState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	c.bankCount, c.curBank = s.BankCount, s.CurBank
	if c.backup != nil && s.BackupRaw != nil {
		c.backup.LoadRaw(s.BackupRaw)
	}
	if f, ok := c.backup.(*Flash); ok {
		f.loadCommandState(s.FlashState)
	}
	if e, ok := c.backup.(*EEPROM); ok {
		e.loadCommandState(s.EEState)
	}
}

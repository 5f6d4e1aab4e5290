// Command agbrun is a minimal headless smoke-test binary: load a BIOS+ROM
// pair, run N frames, dump a PPM of the final framebuffer. It mirrors the
// teacher's cmd/gbemu "-headless" mode (run frames, checksum/dump the
// framebuffer, report fps) and is not part of the core's public API
// surface — just a thin CLI the way the teacher ships one alongside its
// library packages.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"hash/crc32"
	"log"
	"os"
	"time"

	"github.com/wrenfield/agbcore/internal/cartridge"
	"github.com/wrenfield/agbcore/internal/machine"
)

func main() {
	biosPath := flag.String("bios", "", "path to a 16 KiB BIOS image (required)")
	romPath := flag.String("rom", "", "path to a cartridge ROM image (required)")
	savePath := flag.String("save", "", "optional backup RAM image to load")
	frames := flag.Int("frames", 60, "number of frames to run")
	sampleRate := flag.Int("samplerate", 32000, "host audio sample rate in Hz")
	ppmOut := flag.String("outppm", "", "write the final framebuffer to a PPM file at this path")
	expectCRC := flag.String("expect", "", "assert the final framebuffer's CRC32 (hex)")
	flag.Parse()

	if *biosPath == "" || *romPath == "" {
		log.Fatal("-bios and -rom are required")
	}

	bios, err := os.ReadFile(*biosPath)
	if err != nil {
		log.Fatalf("read bios: %v", err)
	}
	rom, err := os.ReadFile(*romPath)
	if err != nil {
		log.Fatalf("read rom: %v", err)
	}
	var backup []byte
	if *savePath != "" {
		backup, err = os.ReadFile(*savePath)
		if err != nil {
			log.Fatalf("read save: %v", err)
		}
	}

	m, err := machine.New(machine.Config{
		BIOS:           bios,
		ROM:            rom,
		BackupImage:    backup,
		BackupOverride: cartridge.BackupAuto,
		SaveBankCount:  1,
		HostSampleRate: *sampleRate,
	})
	if err != nil {
		log.Fatalf("machine.New: %v", err)
	}

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < *frames; i++ {
		if _, err := m.ProcessFrame(ctx); err != nil {
			log.Fatalf("ProcessFrame %d: %v", i, err)
		}
	}
	elapsed := time.Since(start)

	fb := m.Framebuffer()
	crc := crc32.ChecksumIEEE(packFramebuffer(fb))
	fps := float64(*frames) / elapsed.Seconds()
	log.Printf("agbrun: frames=%d elapsed=%s fps=%.2f fb_crc32=%08x",
		*frames, elapsed.Truncate(time.Millisecond), fps, crc)

	if *ppmOut != "" {
		if err := writePPM(*ppmOut, fb, 240, 160); err != nil {
			log.Fatalf("write ppm: %v", err)
		}
		log.Printf("wrote %s", *ppmOut)
	}

	if *expectCRC != "" {
		got := fmt.Sprintf("%08x", crc)
		if got != *expectCRC {
			log.Fatalf("checksum mismatch: got %s, want %s", got, *expectCRC)
		}
	}
}

// packFramebuffer flattens the 15-bit-per-pixel framebuffer into bytes for
// checksumming, independent of host byte order.
func packFramebuffer(fb []uint16) []byte {
	out := make([]byte, len(fb)*2)
	for i, px := range fb {
		out[2*i] = byte(px)
		out[2*i+1] = byte(px >> 8)
	}
	return out
}

// writePPM dumps a 15-bit RGB framebuffer (5 bits per channel, spec.md
// §6's frame output format) as a binary PPM (P6), expanding each 5-bit
// channel to 8 bits.
func writePPM(path string, fb []uint16, w, h int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	fmt.Fprintf(bw, "P6\n%d %d\n255\n", w, h)
	for _, px := range fb {
		r := (px) & 0x1F
		g := (px >> 5) & 0x1F
		b := (px >> 10) & 0x1F
		bw.WriteByte(byte(r<<3 | r>>2))
		bw.WriteByte(byte(g<<3 | g>>2))
		bw.WriteByte(byte(b<<3 | b>>2))
	}
	return bw.Flush()
}

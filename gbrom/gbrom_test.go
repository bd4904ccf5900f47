package gbrom

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// makeImage builds a synthetic ROM image with the given header bytes. The
// image holds the banks the ROM size code declares plus extra trailing bytes.
func makeImage(typeCode, romSizeCode, ramSizeCode uint8, extra int) []byte {
	banks := romBankCounts[romSizeCode]
	buf := make([]byte, banks*BankSize+extra)
	copy(buf[0x0134:], "TETRIS")
	buf[0x0147] = typeCode
	buf[0x0148] = romSizeCode
	buf[0x0149] = ramSizeCode
	return buf
}

func TestReadFrom(t *testing.T) {
	img := makeImage(0x13, 0x02, 0x03, 0)

	var rom Rom
	n, err := rom.ReadFrom(bytes.NewReader(img))
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(len(img)) {
		t.Errorf("ReadFrom read %d bytes, want %d", n, len(img))
	}

	want := TypeInfo{0x13, MBC3, true, true, false, false, "MBC3+RAM+BATTERY"}
	if diff := cmp.Diff(want, rom.Type); diff != "" {
		t.Errorf("type info mismatch (-want +got):\n%s", diff)
	}
	if rom.Title() != "TETRIS" {
		t.Errorf("Title() = %q, want TETRIS", rom.Title())
	}
	if rom.NumBanks != 8 {
		t.Errorf("NumBanks = %d, want 8", rom.NumBanks)
	}
	if rom.RAMSize != 32*1024 {
		t.Errorf("RAMSize = %d, want 32768", rom.RAMSize)
	}
	if rom.CGB() {
		t.Error("CGB() = true, want false")
	}
}

func TestReadFromErrors(t *testing.T) {
	tests := []struct {
		name string
		img  []byte
		want error
	}{
		{"too small", make([]byte, 0x100), ErrInvalidHeader},
		{"unknown type code", makeImage(0x42, 0x00, 0x00, 0), ErrInvalidHeader},
		{"bad ROM size code", makeImage(0x00, 0x3F, 0x00, 2*BankSize), ErrUnsupportedROMSize},
		{"bad RAM size code", makeImage(0x00, 0x00, 0x09, 0), ErrUnsupportedRAMSize},
		{"truncated data", makeImage(0x01, 0x05, 0x00, 0)[:20 * BankSize], io.ErrUnexpectedEOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rom Rom
			_, err := rom.ReadFrom(bytes.NewReader(tt.img))
			if !errors.Is(err, tt.want) {
				t.Errorf("ReadFrom() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestExtraBanksRecount(t *testing.T) {
	// Dump with 4 extra banks appended past the declared size.
	img := makeImage(0x01, 0x02, 0x00, 4*BankSize)

	var rom Rom
	if _, err := rom.ReadFrom(bytes.NewReader(img)); err != nil {
		t.Fatal(err)
	}
	if rom.NumBanks != 12 {
		t.Errorf("NumBanks = %d, want 12", rom.NumBanks)
	}

	// A plain ROM does not get the recount.
	img = makeImage(0x00, 0x01, 0x00, 2*BankSize)
	if _, err := rom.ReadFrom(bytes.NewReader(img)); err != nil {
		t.Fatal(err)
	}
	if rom.NumBanks != 4 {
		t.Errorf("NumBanks = %d, want 4", rom.NumBanks)
	}
}

func TestCGBFlag(t *testing.T) {
	img := makeImage(0x00, 0x00, 0x00, 0)
	img[0x0143] = 0x80

	var rom Rom
	if _, err := rom.ReadFrom(bytes.NewReader(img)); err != nil {
		t.Fatal(err)
	}
	if !rom.CGB() {
		t.Error("CGB() = false, want true")
	}
}

func TestBank(t *testing.T) {
	img := makeImage(0x01, 0x01, 0x00, 0)
	for i := 0; i < 4; i++ {
		img[i*BankSize] = byte(i + 1)
	}

	var rom Rom
	if _, err := rom.ReadFrom(bytes.NewReader(img)); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		if got := rom.Bank(i)[0]; got != byte(i+1) {
			t.Errorf("Bank(%d)[0] = %d, want %d", i, got, i+1)
		}
	}
}

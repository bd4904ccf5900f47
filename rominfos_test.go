package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"dmge/gbrom"
)

func makeInfosROM(t *testing.T) *gbrom.Rom {
	t.Helper()

	img := make([]byte, 4*gbrom.BankSize)
	copy(img[0x0134:], "INFOTEST")
	img[0x0147] = 0x13 // MBC3+RAM+BATTERY
	img[0x0148] = 0x01 // 4 banks
	img[0x0149] = 0x02 // 8 KiB RAM

	var sum uint8
	for _, b := range img[0x0134:0x014D] {
		sum = sum - b - 1
	}
	img[0x014D] = sum

	var rom gbrom.Rom
	if _, err := rom.ReadFrom(bytes.NewReader(img)); err != nil {
		t.Fatal(err)
	}
	return &rom
}

func TestPrintInfos(t *testing.T) {
	rom := makeInfosROM(t)

	var buf bytes.Buffer
	printInfos(&buf, "infotest.gb", rom)
	out := buf.String()

	for _, want := range []string{
		"INFOTEST",
		"MBC3+RAM+BATTERY",
		"4 banks (64 KiB)",
		"8 KiB",
		"header checksum: ok",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintInfosJSON(t *testing.T) {
	rom := makeInfosROM(t)

	var buf bytes.Buffer
	printInfosJSON(&buf, []string{"infotest.gb"}, []*gbrom.Rom{rom})

	var infos []struct {
		File       string `json:"file"`
		Title      string `json:"title"`
		Type       string `json:"type"`
		RomBanks   int    `json:"rom_banks"`
		RamBytes   int    `json:"ram_bytes"`
		Battery    bool   `json:"battery"`
		ChecksumOK bool   `json:"header_checksum_ok"`
	}
	if err := json.Unmarshal(buf.Bytes(), &infos); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if len(infos) != 1 {
		t.Fatalf("got %d entries, want 1", len(infos))
	}
	got := infos[0]
	if got.Title != "INFOTEST" || got.RomBanks != 4 || got.RamBytes != 8192 ||
		!got.Battery || !got.ChecksumOK {
		t.Errorf("unexpected infos: %+v", got)
	}
}

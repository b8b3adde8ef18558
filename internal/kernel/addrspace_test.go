package kernel

import "testing"

func TestAddressSpaceMapUnmap(t *testing.T) {
	as := NewAddressSpace()

	if _, err := as.Slot(0); err == nil {
		t.Fatalf("expected error reading an unmapped slot")
	}

	if err := as.Map(0); err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	slot, err := as.Slot(0)
	if err != nil {
		t.Fatalf("Slot failed after Map: %v", err)
	}
	if len(slot) != UserSlotSize {
		t.Fatalf("expected slot size %d, got %d", UserSlotSize, len(slot))
	}

	as.Unmap(0)
	if _, err := as.Slot(0); err == nil {
		t.Fatalf("expected error reading slot after Unmap")
	}
}

func TestAddressSpaceLoadImage(t *testing.T) {
	as := NewAddressSpace()
	if err := as.Map(1); err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	image := []byte("hello world")
	if err := as.LoadImage(1, image); err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}

	slot, _ := as.Slot(1)
	offset := ProgramEntry & (UserSlotSize - 1)
	if string(slot[offset:offset+len(image)]) != string(image) {
		t.Fatalf("image not loaded at expected offset")
	}
}

func TestAddressSpaceVideoPageForegroundVsShadow(t *testing.T) {
	as := NewAddressSpace()

	page := as.VideoPage(0, 0)
	page[0] = 0x42
	if as.VideoPage(0, 0)[0] != 0x42 {
		t.Fatalf("expected VideoPage to return the same VRAM slice across calls while foreground")
	}

	shadow := as.VideoPage(1, 0)
	if &shadow[0] == &page[0] {
		t.Fatalf("expected a non-foreground terminal to get its own shadow page, not VRAM")
	}
}

func TestAddressSpaceSwapTerminal(t *testing.T) {
	as := NewAddressSpace()

	as.VideoPage(0, 0)[0] = 0xAA // terminal 0 draws into VRAM while foreground

	as.SwapTerminal(0, 1) // switch foreground from 0 to 1

	if as.VideoPage(0, 1)[0] != 0xAA {
		t.Fatalf("expected outgoing terminal's VRAM contents preserved in its shadow page")
	}
	if as.VideoPage(1, 1)[0] != 0x00 {
		t.Fatalf("expected incoming terminal's blank shadow page copied into VRAM")
	}
}

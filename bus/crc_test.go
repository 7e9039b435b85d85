package bus

import "testing"

func TestComputeCRCEmptyPayloadIsZero(t *testing.T) {
	if got := ComputeCRC(nil); got != 0 {
		t.Errorf("expected 0 for nil payload, got 0x%04X", got)
	}
	if got := ComputeCRC([]byte{}); got != 0 {
		t.Errorf("expected 0 for empty payload, got 0x%04X", got)
	}
}

func TestComputeCRCConsistency(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	if ComputeCRC(data) != ComputeCRC(data) {
		t.Error("ComputeCRC is not deterministic for identical input")
	}
}

func TestComputeCRCDiffersOnDifferentInput(t *testing.T) {
	a := ComputeCRC([]byte{0x01, 0x02, 0x03})
	b := ComputeCRC([]byte{0x01, 0x02, 0x04})
	if a == b {
		t.Errorf("unexpected CRC collision: both produced 0x%04X", a)
	}
}

func TestVerifyCRC(t *testing.T) {
	data := []byte{0xAA, 0xBB, 0xCC}
	crc := ComputeCRC(data)

	if !VerifyCRC(crc, data) {
		t.Error("VerifyCRC rejected a matching CRC")
	}
	if VerifyCRC(crc+1, data) {
		t.Error("VerifyCRC accepted a mismatched CRC")
	}
}

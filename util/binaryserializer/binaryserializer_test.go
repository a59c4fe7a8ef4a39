package binaryserializer

import (
	"bytes"
	"testing"
)

func TestKeysSortNumerically(t *testing.T) {
	if bytes.Compare(Uint32Key(255), Uint32Key(256)) != -1 {
		t.Fatalf("Uint32Key(255) does not sort before Uint32Key(256)")
	}
	if bytes.Compare(Uint64Key(1<<32-1), Uint64Key(1<<32)) != -1 {
		t.Fatalf("Uint64Key does not sort numerically")
	}
	val, err := KeyUint32(Uint32Key(0xdeadbeef))
	if err != nil || val != 0xdeadbeef {
		t.Fatalf("KeyUint32 returned %x, %v", val, err)
	}
	_, err = KeyUint32([]byte{1, 2, 3})
	if err == nil {
		t.Fatalf("KeyUint32 unexpectedly accepted a short key")
	}
}

func TestRecordFields(t *testing.T) {
	var buf bytes.Buffer
	for _, write := range []func() error{
		func() error { return PutUint8(&buf, 0x3f) },
		func() error { return PutUint32(&buf, 2500) },
		func() error { return PutUint64(&buf, 1<<40+7) },
		func() error { return PutVarBytes(&buf, []byte("vote")) },
	} {
		if err := write(); err != nil {
			t.Fatalf("write unexpectedly failed: %s", err)
		}
	}

	u8, err := Uint8(&buf)
	if err != nil || u8 != 0x3f {
		t.Fatalf("Uint8 returned %x, %v", u8, err)
	}
	u32, err := Uint32(&buf)
	if err != nil || u32 != 2500 {
		t.Fatalf("Uint32 returned %d, %v", u32, err)
	}
	u64, err := Uint64(&buf)
	if err != nil || u64 != 1<<40+7 {
		t.Fatalf("Uint64 returned %d, %v", u64, err)
	}
	varBytes, err := VarBytes(&buf)
	if err != nil || string(varBytes) != "vote" {
		t.Fatalf("VarBytes returned %q, %v", varBytes, err)
	}

	_, err = Uint32(&buf)
	if err == nil {
		t.Fatalf("Uint32 unexpectedly succeeded on an exhausted reader")
	}
}

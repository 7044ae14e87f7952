package hash

import (
	"testing"
	"unsafe"

	"github.com/sandcalc/sandcalc/pkg/tt"
)

func TestDJB(t *testing.T) {
	tt.Test(t, DJB,
		tt.Args().Rets(Init),
		tt.Args(uint32(1)).Rets(Init*33+1),
		tt.Args(uint32(1), uint32(2)).Rets((Init*33+1)*33+2),
	)
}

func TestString(t *testing.T) {
	tt.Test(t, String,
		tt.Args("").Rets(Init),
		tt.Args("a").Rets(DJB('a')),
		tt.Args("ab").Rets(DJB('a', 'b')),
	)
}

func TestUint64(t *testing.T) {
	if Uint64(1<<32) == Uint64(1) {
		t.Errorf("high and low words collide")
	}
	if Uint64(7) != Combine(0, 7) {
		t.Errorf("small values should hash through the low word")
	}
}

func TestPointer(t *testing.T) {
	x, y := new(int), new(int)
	if Pointer(unsafe.Pointer(x)) != Pointer(unsafe.Pointer(x)) {
		t.Errorf("hash of the same pointer differs")
	}
	if Pointer(unsafe.Pointer(x)) == Pointer(unsafe.Pointer(y)) {
		t.Errorf("hashes of distinct pointers collide")
	}
}

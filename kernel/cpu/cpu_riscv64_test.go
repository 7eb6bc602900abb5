package cpu

import "testing"

func TestIsEnvironmentCall(t *testing.T) {
	specs := []struct {
		cause uint64
		exp   bool
	}{
		{11, true}, // ecall from M-mode; the only mode this kernel runs tasks in
		{8, false}, // ecall from U-mode; not used by this kernel
		{9, false}, // ecall from S-mode; not used by this kernel
		{7, false}, // store/AMO access fault
		{2, false}, // illegal instruction
	}

	for specIndex, spec := range specs {
		if got := IsEnvironmentCall(spec.cause); got != spec.exp {
			t.Errorf("[spec %d] expected IsEnvironmentCall(%d) to return %t; got %t", specIndex, spec.cause, spec.exp, got)
		}
	}
}

package units

import "testing"

func TestBinarySizeConstants(t *testing.T) {
	t.Parallel()

	if KiB != 1024 {
		t.Errorf("KiB = %d, want 1024", KiB)
	}

	if MiB != 1024*KiB {
		t.Errorf("MiB = %d, want 1024*KiB", MiB)
	}

	if GiB != 1024*MiB {
		t.Errorf("GiB = %d, want 1024*MiB", GiB)
	}
}

package match

import "testing"

func TestComputeWindowMultiplierMSS(t *testing.T) {
	m := ComputeWindowMultiplier(5840, 1460, false, false, 40, nil)
	if m.Value != 4 || m.IsMTU {
		t.Errorf("m = %+v, want {4 false}", m)
	}
}

func TestComputeWindowMultiplierTimestampSubtract(t *testing.T) {
	// window = 4*(1460-12)
	m := ComputeWindowMultiplier(uint16(4*(1460-12)), 1460, true, false, 40, nil)
	if m.Value != 4 {
		t.Errorf("m = %+v, want value 4", m)
	}
}

func TestComputeWindowMultiplierMTU(t *testing.T) {
	m := ComputeWindowMultiplier(1500*2, 1460, false, false, 40, nil)
	if !m.IsMTU || m.Value != 2 {
		t.Errorf("m = %+v, want {2 true}", m)
	}
}

func TestComputeWindowMultiplierNoMatch(t *testing.T) {
	m := ComputeWindowMultiplier(12345, 1460, false, false, 40, nil)
	if m.Value != -1 {
		t.Errorf("m = %+v, want Value -1", m)
	}
}

func TestComputeWindowMultiplierSmallMSS(t *testing.T) {
	m := ComputeWindowMultiplier(5840, 50, false, false, 40, nil)
	if m.Value != -1 {
		t.Errorf("m = %+v, want Value -1 for mss < 100", m)
	}
}

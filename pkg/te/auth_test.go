package te

import "testing"

func TestComputeAuthResponse(t *testing.T) {
	tests := []struct {
		name      string
		clearance Clearance
		secret    uint32
		magic     uint32
		expected  uint32
	}{
		{
			name:      "service tool HID secret, spec.md §8 vector",
			clearance: ClearanceServiceTool,
			secret:    0x1337,
			magic:     0x11223344,
			expected:  0xA1E7DF79, // 0x11223344 ^ (0x1337 + 0x63F07B35 + (0x11223344 << 6) + (0x11223344 >> 2)), mod 2^32
		},
		{
			name:      "service tool with CAN source address as secret",
			clearance: ClearanceServiceTool,
			secret:    0x80,
			magic:     0xDEADBEEF,
			expected:  0x99A619DF, // 0xDEADBEEF ^ (0x80 + 0x63F07B35 + (0xDEADBEEF << 6) + (0xDEADBEEF >> 2)), mod 2^32
		},
		{
			name:      "non service tool clearance echoes magic",
			clearance: ClearanceNone,
			secret:    0x1337,
			magic:     0xCAFEBABE,
			expected:  0xCAFEBABE,
		},
		{
			name:      "zero magic",
			clearance: ClearanceServiceTool,
			secret:    0x1337,
			magic:     0,
			expected:  0 ^ (0x1337 + 0x63F07B35),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeAuthResponse(tt.clearance, tt.secret, tt.magic)
			if got != tt.expected {
				t.Errorf("ComputeAuthResponse(%v, 0x%x, 0x%x) = 0x%x, want 0x%x",
					tt.clearance, tt.secret, tt.magic, got, tt.expected)
			}
		})
	}
}

func TestHIDAuthSecret(t *testing.T) {
	if got := HIDAuthSecret(); got != 0x1337 {
		t.Errorf("HIDAuthSecret() = 0x%x, want 0x1337", got)
	}
}

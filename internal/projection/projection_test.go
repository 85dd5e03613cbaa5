package projection

import "testing"

func TestProject(t *testing.T) {
	tests := []struct {
		name         string
		key          float64
		placeholders int
		ppu          float64
		label, icon  float64
		want         float64
	}{
		{"origin", 0, 0, 0.5, 40, 20, 40},
		{"distance only", 100, 0, 0.5, 40, 20, 90},
		{"placeholders only", 0, 2, 0.5, 40, 20, 80},
		{"both", 100, 1, 0.5, 40, 20, 110},
		{"rounds half up", 1, 0, 0.5, 0, 0, 1},
		{"rounds down", 1, 0, 0.4, 0, 0, 0},
		{"zero scale", 5000, 1, 0, 10, 24, 34},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Project(tt.key, tt.placeholders, tt.ppu, tt.label, tt.icon)
			if got != tt.want {
				t.Errorf("Project = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProjectMonotonic(t *testing.T) {
	prev := Project(0, 0, 0.37, 12, 30)
	for k := 1.0; k < 2000; k += 7 {
		x := Project(k, 0, 0.37, 12, 30)
		if x < prev {
			t.Fatalf("Project not monotonic at key %v: %v < %v", k, x, prev)
		}
		prev = x
	}
}

func TestPixelsPerUnit(t *testing.T) {
	if got := PixelsPerUnit(500, 1000); got != 0.5 {
		t.Errorf("PixelsPerUnit(500, 1000) = %v", got)
	}
	for _, total := range []float64{0, -1} {
		if got := PixelsPerUnit(500, total); got != 0 {
			t.Errorf("PixelsPerUnit(500, %v) = %v, want 0", total, got)
		}
	}
	if got := PixelsPerUnit(0, 1000); got != 0 {
		t.Errorf("PixelsPerUnit(0, 1000) = %v, want 0", got)
	}
}

func TestAvailable(t *testing.T) {
	if got := Available(600, 40, 10, 24, 24); got != 502 {
		t.Errorf("Available = %v, want 502", got)
	}
	if got := Available(50, 40, 40); got != 0 {
		t.Errorf("Available should clamp at 0, got %v", got)
	}
}

package sweep

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/san-kum/revolute/internal/config"
	"github.com/san-kum/revolute/internal/multibody"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAngles(t *testing.T) {
	tests := []struct {
		name     string
		from, to float64
		n        int
		want     []float64
	}{
		{"none", 0, 1, 0, nil},
		{"single", 0.5, 1, 1, []float64{0.5}},
		{"inclusive", 0, 1, 5, []float64{0, 0.25, 0.5, 0.75, 1}},
		{"descending", 1, -1, 3, []float64{1, 0, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Angles(tt.from, tt.to, tt.n)); diff != "" {
				t.Errorf("Angles mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRun_Single(t *testing.T) {
	cfg := config.GetPreset("single")
	cfg.Sweep.Samples = 33
	cfg.Sweep.Workers = 4

	res, err := New(cfg, quietLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Joint != "pin" || len(res.Samples) != 33 || res.Workers != 4 {
		t.Fatalf("unexpected result header: joint=%s samples=%d workers=%d", res.Joint, len(res.Samples), res.Workers)
	}

	approx := cmpopts.EquateApprox(0, 1e-12)
	for i, s := range res.Samples {
		c, sn := math.Cos(s.Angle), math.Sin(s.Angle)
		wantR := mgl64.Mat3FromRows(mgl64.Vec3{c, -sn, 0}, mgl64.Vec3{sn, c, 0}, mgl64.Vec3{0, 0, 1})
		wantD := mgl64.Mat3FromRows(mgl64.Vec3{-sn, -c, 0}, mgl64.Vec3{c, -sn, 0}, mgl64.Vec3{0, 0, 0})
		if diff := cmp.Diff(wantR, s.Rotation, approx); diff != "" {
			t.Errorf("sample %d rotation (-want +got):\n%s", i, diff)
		}
		if diff := cmp.Diff(wantD, s.Derivative, approx); diff != "" {
			t.Errorf("sample %d derivative (-want +got):\n%s", i, diff)
		}
	}

	if got := res.Samples[len(res.Samples)-1].Angle; got != cfg.Sweep.To {
		t.Errorf("last angle = %v, want %v", got, cfg.Sweep.To)
	}
}

func TestRun_WorkerCountIndependent(t *testing.T) {
	cfg := config.GetPreset("triple")
	cfg.Sweep.Samples = 20

	cfg.Sweep.Workers = 1
	serial, err := New(cfg, quietLogger()).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	cfg.Sweep.Workers = 7
	parallel, err := New(cfg, quietLogger()).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(serial.Samples, parallel.Samples); diff != "" {
		t.Errorf("samples depend on worker count (-serial +parallel):\n%s", diff)
	}
}

func TestRun_ClampsWorkers(t *testing.T) {
	cfg := config.GetPreset("single")
	cfg.Sweep.Samples = 3
	cfg.Sweep.Workers = 16

	res, err := New(cfg, quietLogger()).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Workers != 3 {
		t.Errorf("workers = %d, want 3", res.Workers)
	}
}

func TestRun_Errors(t *testing.T) {
	cfg := config.GetPreset("single")
	cfg.Sweep.Joint = "missing"
	if _, err := New(cfg, quietLogger()).Run(context.Background()); !errors.Is(err, multibody.ErrUnknownName) {
		t.Errorf("expected ErrUnknownName, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(config.GetPreset("single"), quietLogger()).Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSeries(t *testing.T) {
	res := &Result{Samples: []Sample{
		{Angle: 0.5, Rotation: mgl64.Ident3(), Derivative: mgl64.Mat3{}},
		{Angle: 1.5, Rotation: mgl64.Mat3{}, Derivative: mgl64.Ident3()},
	}}

	if diff := cmp.Diff([]float64{0.5, 1.5}, res.AngleSeries()); diff != "" {
		t.Errorf("AngleSeries (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]float64{1, 0}, res.Series(1, 1)); diff != "" {
		t.Errorf("Series (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0, 1}, res.DerivativeSeries(2, 2)); diff != "" {
		t.Errorf("DerivativeSeries (-want +got):\n%s", diff)
	}
}

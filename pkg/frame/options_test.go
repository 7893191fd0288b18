package frame

import (
	"testing"

	"github.com/matzehuels/moonlayout/pkg/errors"
	"github.com/matzehuels/moonlayout/pkg/scene"
)

func TestOptionsSetDefaults(t *testing.T) {
	var o Options
	o.SetDefaults()

	if o.Frames != DefaultFrames {
		t.Errorf("Frames = %d, want %d", o.Frames, DefaultFrames)
	}
	if o.PointScaleFactor != DefaultPointScaleFactor {
		t.Errorf("PointScaleFactor = %g, want %d", o.PointScaleFactor, DefaultPointScaleFactor)
	}
	if o.SceneName != DefaultSceneName {
		t.Errorf("SceneName = %q, want %q", o.SceneName, DefaultSceneName)
	}
	if o.Logger == nil || o.Text == nil {
		t.Error("SetDefaults should set Logger and Text")
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", Options{}, false},
		{"too many frames", Options{Frames: MaxFrames + 1}, true},
		{"negative frames", Options{Frames: -1}, true},
		{"negative scale", Options{PointScaleFactor: -1}, true},
		{"bad scene name", Options{SceneName: "has space"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := tt.opts
			o.SetDefaults()
			err := o.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && errors.GetCode(err) != errors.ErrCodeInvalidInput {
				t.Errorf("Validate() code = %s, want %s", errors.GetCode(err), errors.ErrCodeInvalidInput)
			}
		})
	}
}

func TestNewRunnerRejectsInvalid(t *testing.T) {
	if _, err := NewRunner(nil, Options{}); err == nil {
		t.Error("NewRunner(nil) should fail")
	}
	if _, err := NewRunner(scene.NewWorld(), Options{Frames: -3}); err == nil {
		t.Error("NewRunner with negative frames should fail")
	}
}

func TestRunKeyOpts(t *testing.T) {
	o := Options{Frames: 4, PointScaleFactor: 2}
	k := o.RunKeyOpts()
	if k.Frames != 4 || k.PointScaleFactor != 2 {
		t.Errorf("RunKeyOpts() = %+v", k)
	}
}

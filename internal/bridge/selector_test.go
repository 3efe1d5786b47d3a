package bridge

import (
	"testing"

	"github.com/andresmejia3/facebridge/internal/surface"
)

func TestSelectIdentity(t *testing.T) {
	tests := []struct {
		name       string
		image      string
		vector     string
		wantKind   IdentityKind
		wantScript string
		wantVector bool
	}{
		{
			name:       "Vector wins over image",
			image:      "iVBORw0KGgo=",
			vector:     "[0.12,-0.5,0.33]",
			wantKind:   IdentityFeatureVector,
			wantScript: "registerExternalImage([0.12,-0.5,0.33], 'Reference')",
			wantVector: true,
		},
		{
			name:       "Image with line breaks is cleaned",
			image:      "iVBO\r\nRw0K\nGgo=",
			wantKind:   IdentityRawImage,
			wantScript: "registerExternalImageFromBase64('iVBORw0KGgo=', 'Reference')",
			wantVector: true,
		},
		{
			name:       "Blank vector counts as missing",
			image:      "AAAA",
			vector:     "  \n",
			wantKind:   IdentityRawImage,
			wantScript: "registerExternalImageFromBase64('AAAA', 'Reference')",
			wantVector: true,
		},
		{
			name:       "Nothing selects detect-only",
			wantKind:   IdentityNone,
			wantScript: "registerExternalImageNoVector()",
			wantVector: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := SelectIdentity(tt.image, tt.vector)
			if m.Kind != tt.wantKind {
				t.Fatalf("Kind = %v, want %v", m.Kind, tt.wantKind)
			}
			cmd, hasVector := m.Registration()
			if got := cmd.Script(); got != tt.wantScript {
				t.Errorf("Script = %q, want %q", got, tt.wantScript)
			}
			if hasVector != tt.wantVector {
				t.Errorf("hasVector = %v, want %v", hasVector, tt.wantVector)
			}
		})
	}
}

func TestRegistrationCommandNames(t *testing.T) {
	cases := map[IdentityKind]string{
		IdentityFeatureVector: surface.CmdRegisterVector,
		IdentityRawImage:      surface.CmdRegisterBase64,
		IdentityNone:          surface.CmdRegisterNoVector,
	}
	for kind, want := range cases {
		cmd, _ := IdentityMaterial{Kind: kind, Payload: "x"}.Registration()
		if cmd.Name != want {
			t.Errorf("%v: command %q, want %q", kind, cmd.Name, want)
		}
	}
}

package bridge

import (
	"strings"

	"github.com/andresmejia3/facebridge/internal/surface"
	"github.com/andresmejia3/facebridge/internal/utils"
)

// IdentityKind is which kind of reference material a session was given.
type IdentityKind int

const (
	IdentityNone IdentityKind = iota
	IdentityRawImage
	IdentityFeatureVector
)

func (k IdentityKind) String() string {
	switch k {
	case IdentityRawImage:
		return "raw-image"
	case IdentityFeatureVector:
		return "feature-vector"
	default:
		return "none"
	}
}

// IdentityMaterial is the reference identity for one session. Immutable once selected.
type IdentityMaterial struct {
	Kind    IdentityKind
	Payload string
}

// SelectIdentity applies the precedence vector > raw image > none.
// Inputs that are blank after trimming count as not supplied.
func SelectIdentity(referenceImage, referenceVector string) IdentityMaterial {
	if strings.TrimSpace(referenceVector) != "" {
		return IdentityMaterial{Kind: IdentityFeatureVector, Payload: referenceVector}
	}
	if strings.TrimSpace(referenceImage) != "" {
		return IdentityMaterial{Kind: IdentityRawImage, Payload: referenceImage}
	}
	return IdentityMaterial{Kind: IdentityNone}
}

// Registration returns the command to issue on ready and the hasvectorimage flag
// to record alongside it.
func (m IdentityMaterial) Registration() (cmd surface.Command, hasVector bool) {
	switch m.Kind {
	case IdentityFeatureVector:
		return surface.RegisterVector(m.Payload), true
	case IdentityRawImage:
		// The surface computes the vector itself from the image.
		return surface.RegisterBase64(utils.StripLineBreaks(m.Payload)), true
	default:
		return surface.RegisterNoVector(), false
	}
}

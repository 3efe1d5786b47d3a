package bridge

import (
	"context"
	"log/slog"

	"github.com/andresmejia3/facebridge/internal/store"
)

// Durable preference keys read by the page that follows a capture session.
const (
	KeyHasVector = "hasvectorimage"
	KeyHasImage  = "hasimage"
	KeyLiveImage = "liveUserImg"
	ValueYes     = "Y"
	ValueNo      = "N"
	ValueScanned = "scanned"
)

// sessionState writes the durable flags. Write failures are logged and swallowed:
// a broken preference store must not keep the session from ending.
type sessionState struct {
	prefs store.Preferences
	log   *slog.Logger
}

func (st sessionState) setHasVector(ctx context.Context, hasVector bool) {
	v := ValueNo
	if hasVector {
		v = ValueYes
	}
	st.set(ctx, KeyHasVector, v)
}

func (st sessionState) markScanned(ctx context.Context) {
	st.set(ctx, KeyHasImage, ValueScanned)
}

func (st sessionState) saveCapturedImage(ctx context.Context, bareBase64 string) {
	st.set(ctx, KeyLiveImage, bareBase64)
}

func (st sessionState) set(ctx context.Context, key, value string) {
	if st.prefs == nil {
		return
	}
	if err := st.prefs.Set(ctx, key, value); err != nil {
		st.log.Error("failed to persist session state", "key", key, "error", err)
	}
}

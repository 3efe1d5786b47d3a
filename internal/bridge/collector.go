package bridge

import (
	"github.com/andresmejia3/facebridge/internal/surface"
	"github.com/andresmejia3/facebridge/internal/types"
	"github.com/andresmejia3/facebridge/internal/utils"
)

// collect is the result collector. It runs off the dispatcher because
// getLastMatchImage blocks until the surface answers.
func (s *Session) collect(outcome types.DetectionOutcome, detectOnly bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("result collection panicked", "panic", r)
			s.dispatcher.Dispatch(s.closePage)
		}
	}()

	select {
	case <-s.flagged:
	case <-s.ctx.Done():
		return
	}

	if detectOnly {
		s.state.setHasVector(s.ctx, false)
	}
	s.state.markScanned(s.ctx)

	if outcome.HasCapturedImage {
		s.fetchCapturedImage(outcome.Matched)
	}

	s.mu.Lock()
	if s.current != StateEnded {
		s.result.Outcome = &outcome
	}
	s.mu.Unlock()

	s.dispatcher.Dispatch(s.closePage)
}

func (s *Session) fetchCapturedImage(matched bool) {
	payload, err := s.surface.Evaluate(s.ctx, surface.GetLastMatchImage())
	if err != nil {
		s.log.Warn("failed to fetch captured image", "error", err)
		return
	}
	if payload == "" {
		s.log.Info("content surface returned no captured image")
		return
	}

	bare := utils.StripDataURI(payload)

	s.mu.Lock()
	if s.current == StateEnded {
		s.mu.Unlock()
		s.log.Debug("session ended before the captured image arrived, discarding it")
		return
	}
	s.result.CapturedImageBase64 = bare
	s.result.WasCaptured = matched
	s.mu.Unlock()

	s.state.saveCapturedImage(s.ctx, bare)
}

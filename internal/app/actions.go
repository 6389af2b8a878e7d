package app

import (
	"github.com/Faultbox/explodeview/internal/engine/input"
	"github.com/Faultbox/explodeview/internal/rotation"
	"github.com/Faultbox/explodeview/internal/viewer"
)

// Dispatch applies a key action to the session.
func Dispatch(s *viewer.Session, a input.Action) error {
	var err error
	switch a {
	case input.ActionToggleExplosion:
		_, err = s.ToggleExplosion()
	case input.ActionFactorUp:
		_, err = s.StepExplosionFactor(1)
	case input.ActionFactorDown:
		_, err = s.StepExplosionFactor(-1)
	case input.ActionMaxExplosion:
		err = s.MaxExplosion()
	case input.ActionResetRotation:
		s.ResetRotation()
	case input.ActionViewFront:
		s.ApplyView(rotation.ViewFront)
	case input.ActionViewTop:
		s.ApplyView(rotation.ViewTop)
	case input.ActionViewSide:
		s.ApplyView(rotation.ViewSide)
	case input.ActionExport:
		_, err = s.SaveExport("")
	}
	return err
}

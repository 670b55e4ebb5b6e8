package server

import (
	"net/http"
	"net/url"

	"github.com/jdemeulenaere/compose-driver/internal/driver"
	"github.com/jdemeulenaere/compose-driver/internal/fault"
	"github.com/jdemeulenaere/compose-driver/internal/media"
	"github.com/jdemeulenaere/compose-driver/internal/ui"
)

// actionBuilder validates an action endpoint's own parameters.
type actionBuilder func(q url.Values) (driver.Action, error)

// action serves an endpoint that mutates the UI. The response is "ok", or an
// animated capture of the action when inline parameters are given and no
// recording session is active.
func (s *Server) action(build actionBuilder) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request, q url.Values) error {
		sel, err := driver.SelectorFromQuery(q)
		if err != nil {
			return err
		}
		act, err := build(q)
		if err != nil {
			return err
		}
		inline, err := s.inlineFromQuery(q)
		if err != nil {
			return err
		}

		name := r.URL.Path
		if inline != nil && s.session.Recording() {
			s.logger.Debug("inline capture ignored while recording", "endpoint", name, "kind", inline.Kind)
			inline = nil
		}
		if inline == nil {
			if err := s.driver.Perform(r.Context(), name, sel, act); err != nil {
				return err
			}
			return writeOK(w)
		}

		art, err := s.driver.Animate(r.Context(), name, sel, act, *inline)
		if err != nil {
			return err
		}
		return s.writeArtifact(w, art)
	}
}

// inlineFromQuery returns the requested inline capture, or nil.
func (s *Server) inlineFromQuery(q url.Values) (*driver.Inline, error) {
	gif, hasGIF, err := millisParam(q, paramGIFDuration)
	if err != nil {
		return nil, err
	}
	video, hasVideo, err := millisParam(q, paramVideoDuration)
	if err != nil {
		return nil, err
	}

	switch {
	case hasGIF && hasVideo:
		return nil, fault.Validation(paramVideoDuration, "%s and %s are mutually exclusive",
			paramGIFDuration, paramVideoDuration)
	case hasGIF:
		if err := s.driver.ValidateDuration(paramGIFDuration, gif); err != nil {
			return nil, err
		}
		return &driver.Inline{Kind: driver.InlineGIF, Duration: gif, Param: paramGIFDuration}, nil
	case hasVideo:
		if err := s.driver.ValidateDuration(paramVideoDuration, video); err != nil {
			return nil, err
		}
		format := media.MP4
		if q.Has(paramVideoFormat) {
			format, err = media.ParseVideoFormat(paramVideoFormat, q.Get(paramVideoFormat))
			if err != nil {
				return nil, err
			}
		}
		return &driver.Inline{Kind: driver.InlineVideo, Duration: video, Format: format, Param: paramVideoDuration}, nil
	}
	return nil, nil
}

func gesture(kind ui.GestureKind) actionBuilder {
	return func(url.Values) (driver.Action, error) {
		return driver.Gesture(ui.Gesture{Kind: kind}), nil
	}
}

var (
	clickAction         = gesture(ui.GestureClick)
	longClickAction     = gesture(ui.GestureLongClick)
	doubleClickAction   = gesture(ui.GestureDoubleClick)
	textClearanceAction = gesture(ui.GestureTextClearance)
	scrollToAction      = gesture(ui.GestureScrollTo)
)

func textGesture(kind ui.GestureKind) actionBuilder {
	return func(q url.Values) (driver.Action, error) {
		text, err := requiredParam(q, "text")
		if err != nil {
			return nil, err
		}
		return driver.Gesture(ui.Gesture{Kind: kind, Text: text}), nil
	}
}

var (
	textInputAction       = textGesture(ui.GestureTextInput)
	textReplacementAction = textGesture(ui.GestureTextReplacement)
)

// navigateBackAction checks that the selected node exists, then sends back.
func navigateBackAction(url.Values) (driver.Action, error) {
	return func(t *driver.Target) error {
		if t.Selector() != nil {
			if _, err := t.Node(); err != nil {
				return err
			}
		}
		return t.Harness().NavigateBack()
	}, nil
}

func keyEventAction(q url.Values) (driver.Action, error) {
	name, err := requiredParam(q, "key")
	if err != nil {
		return nil, err
	}
	key, err := ui.KeyByName(name)
	if err != nil {
		return nil, err
	}
	action, err := ui.ParseKeyAction(q.Get("action"))
	if err != nil {
		return nil, err
	}
	var mods []ui.Key
	for _, m := range listParam(q, "modifiers") {
		mod, err := ui.KeyByName(m)
		if err != nil {
			return nil, fault.Validation("modifiers", "Unknown modifier key '%s'", m)
		}
		mods = append(mods, mod)
	}
	return driver.Gesture(ui.Gesture{
		Kind: ui.GestureKey,
		Key:  ui.KeyInput{Key: key, Action: action, Modifiers: mods},
	}), nil
}

func swipeAction(q url.Values) (driver.Action, error) {
	raw, err := requiredParam(q, "direction")
	if err != nil {
		return nil, err
	}
	dir, err := ui.ParseDirection(raw)
	if err != nil {
		return nil, err
	}
	return driver.Gesture(ui.Gesture{Kind: ui.GestureSwipe, Direction: dir}), nil
}

// pointerDownAction lands on the node center unless both x and y are given.
func pointerDownAction(q url.Values) (driver.Action, error) {
	id, err := intParam(q, "pointerId", 0)
	if err != nil {
		return nil, err
	}
	x, hasX, err := floatParam(q, "x")
	if err != nil {
		return nil, err
	}
	y, hasY, err := floatParam(q, "y")
	if err != nil {
		return nil, err
	}
	g := ui.Gesture{Kind: ui.GesturePointerDown, PointerID: id}
	if hasX && hasY {
		g.Offset = ui.Offset{X: x, Y: y}
	} else {
		g.AtCenter = true
	}
	return driver.Gesture(g), nil
}

func pointerMove(kind ui.GestureKind) actionBuilder {
	return func(q url.Values) (driver.Action, error) {
		id, err := intParam(q, "pointerId", 0)
		if err != nil {
			return nil, err
		}
		x, err := requiredFloatParam(q, "x")
		if err != nil {
			return nil, err
		}
		y, err := requiredFloatParam(q, "y")
		if err != nil {
			return nil, err
		}
		return driver.Gesture(ui.Gesture{Kind: kind, PointerID: id, Offset: ui.Offset{X: x, Y: y}}), nil
	}
}

var (
	pointerMoveByAction = pointerMove(ui.GesturePointerMoveBy)
	pointerMoveToAction = pointerMove(ui.GesturePointerMoveTo)
)

func pointerUpAction(q url.Values) (driver.Action, error) {
	id, err := intParam(q, "pointerId", 0)
	if err != nil {
		return nil, err
	}
	return driver.Gesture(ui.Gesture{Kind: ui.GesturePointerUp, PointerID: id}), nil
}

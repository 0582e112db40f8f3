package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/cragtopo/internal/adapters/nats"
	"github.com/samirrijal/cragtopo/internal/core/domain"
	"github.com/samirrijal/cragtopo/internal/core/usecases"
	"github.com/samirrijal/cragtopo/internal/pkg/metrics"
	"github.com/samirrijal/cragtopo/internal/topo"
	"github.com/samirrijal/cragtopo/internal/topo/drawin"
)

// wsMessage is sent by the client.
type wsMessage struct {
	Action string `json:"action"` // "transitionend" | "replay"
	Route  string `json:"route"`
}

// wsLine describes one drawable line to the client.
type wsLine struct {
	RouteID string     `json:"route_id"`
	Path    string     `json:"path"`
	Length  float64    `json:"length"`
	Color   string     `json:"color"`
	Start   topo.Point `json:"start"`
}

// wsCommand is a draw-in instruction for one route's path element.
type wsCommand struct {
	Action     string  `json:"action"` // "dash" | "flush" | "transition" | "revealed"
	Route      string  `json:"route"`
	Array      float64 `json:"array,omitempty"`
	Offset     float64 `json:"offset"`
	DurationMS int64   `json:"duration_ms,omitempty"`
	Easing     string  `json:"easing,omitempty"`
}

// remoteElement is a drawin.Element living in the browser. Style changes are
// sent as commands; the client reports transitionend back.
type remoteElement struct {
	route string
	send  func(v any) error

	mu       sync.Mutex
	length   float64
	next     int
	handlers map[int]func()
}

func newRemoteElement(route string, length float64, send func(v any) error) *remoteElement {
	return &remoteElement{route: route, length: length, send: send, handlers: make(map[int]func())}
}

func (e *remoteElement) Length() (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.length, e.length > 0
}

func (e *remoteElement) SetDash(array, offset float64) {
	_ = e.send(wsCommand{Action: "dash", Route: e.route, Array: array, Offset: offset})
}

func (e *remoteElement) Flush() {
	_ = e.send(wsCommand{Action: "flush", Route: e.route})
}

func (e *remoteElement) Transition(offset float64, d time.Duration, easing string) {
	_ = e.send(wsCommand{Action: "transition", Route: e.route, Offset: offset, DurationMS: d.Milliseconds(), Easing: easing})
}

func (e *remoteElement) OnTransitionEnd(fn func()) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.next
	e.next++
	e.handlers[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.handlers, id)
	}
}

// fire runs the registered listeners. It is called from the read loop.
func (e *remoteElement) fire() {
	e.mu.Lock()
	fns := make([]func(), 0, len(e.handlers))
	for _, fn := range e.handlers {
		fns = append(fns, fn)
	}
	e.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// errSessionClosed is returned by writes after the session has ended.
var errSessionClosed = errors.New("topo session closed")

// topoSession is one client watching the topo of one crag.
type topoSession struct {
	write    func(messageType int, data []byte) error
	writeMu  sync.Mutex
	vb       topo.ViewBox
	tension  float64
	autoPlay bool
	set      *drawin.Set

	mu       sync.Mutex
	closed   bool
	elements map[string]*remoteElement
}

func (s *topoSession) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.writeRaw(websocket.TextMessage, data)
}

func (s *topoSession) writeRaw(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed {
		return errSessionClosed
	}
	return s.write(messageType, data)
}

// close stops all writes and animators. It waits for an in-flight write, so
// the connection is not touched once it returns.
func (s *topoSession) close() {
	s.writeMu.Lock()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.writeMu.Unlock()
	s.set.UnmountAll()
}

// mountLine (re)mounts the animator for a line; with auto-play enabled this
// schedules its draw-in. It reports false once the session is closed.
func (s *topoSession) mountLine(r topo.Rendered) bool {
	el := newRemoteElement(r.Line.RouteID, r.Length, s.writeJSON)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.elements[r.Line.RouteID] = el
	s.set.Mount(r.Line.RouteID, el)
	return true
}

func (s *topoSession) transitionEnded(route string) {
	s.mu.Lock()
	el, ok := s.elements[route]
	s.mu.Unlock()
	if !ok {
		return
	}
	el.fire()
	if a, ok := s.set.Get(route); ok && a.State() == drawin.Revealed {
		_ = s.writeJSON(wsCommand{Action: "revealed", Route: route})
	}
}

// applyEvent redraws a line edited elsewhere. With auto-play the remount
// schedules the draw-in; otherwise the line is replayed right away.
func (s *topoSession) applyEvent(ev *domain.TopoEvent, grade string) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	lines := topo.Prepare([]topo.Line{{RouteID: ev.RouteID, Grade: grade, Points: ev.TopoLine}}, s.vb, s.tension)
	if len(lines) == 0 {
		s.set.Remove(ev.RouteID)
		s.mu.Lock()
		delete(s.elements, ev.RouteID)
		s.mu.Unlock()
		_ = s.writeJSON(map[string]any{"type": "removed", "route_id": ev.RouteID})
		return
	}
	r := lines[0]
	if err := s.writeJSON(map[string]any{"type": "line", "line": toWSLine(r)}); err != nil {
		return
	}
	if !s.mountLine(r) {
		return
	}
	if !s.autoPlay {
		s.set.Replay(ev.RouteID)
	}
	metrics.Animations.WithLabelValues("remote_edit").Inc()
}

func toWSLine(r topo.Rendered) wsLine {
	return wsLine{RouteID: r.Line.RouteID, Path: r.Path, Length: r.Length, Color: r.Color, Start: r.Start}
}

// TopoSessionHandler serves /ws/topo/:slug. On connect the client receives
// every annotated line of the crag and the server drives their draw-in.
// Clients send {"action":"transitionend","route":id} when a transition
// finishes and {"action":"replay","route":id} to replay a line.
func TopoSessionHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		slug := c.Params("slug")
		ctx := context.Background()
		logger := slog.Default().With("crag", slug, "remote", c.RemoteAddr().String())

		crag, overlay, err := deps.Topo.CragOverlay(ctx, slug)
		if err != nil {
			_ = c.WriteJSON(sessionError(slug, err))
			return
		}

		s := newTopoSession(c.WriteMessage, overlay.ViewBox, deps.Topo.Settings(), deps.AutoPlay, deps.Clock)

		var sub *nats.Subscription
		defer func() {
			// Unsubscribe does not wait for a running callback; close makes
			// any late write a no-op.
			s.close()
			if sub != nil {
				_ = sub.Unsubscribe()
			}
		}()

		lines := make([]wsLine, 0, len(overlay.Lines))
		grades := make(map[string]string, len(overlay.Lines))
		for _, r := range overlay.Lines {
			lines = append(lines, toWSLine(r))
			grades[r.Line.RouteID] = r.Line.Grade
		}
		if err := s.writeJSON(map[string]any{
			"type":     "init",
			"crag_id":  crag.ID,
			"view_box": overlay.ViewBox,
			"photo":    overlay.Photo,
			"lines":    lines,
		}); err != nil {
			return
		}
		for _, r := range overlay.Lines {
			s.mountLine(r)
		}
		logger.Info("topo session opened", "lines", len(lines))

		// Live edits from other editors
		if deps.NATS != nil {
			sub, err = deps.NATS.Subscribe(natsadapter.TopoSubject(crag.ID), func(msg *nats.Msg) {
				var ev domain.TopoEvent
				if err := json.Unmarshal(msg.Data, &ev); err != nil {
					logger.Warn("bad topo event", "error", err)
					return
				}
				grade, ok := grades[ev.RouteID]
				if !ok {
					if r, err := deps.Routes.GetByID(ctx, ev.RouteID); err == nil {
						grade = r.Grade
					}
				}
				s.applyEvent(&ev, grade)
			})
			if err != nil {
				logger.Warn("topo subscribe failed", "error", err)
			}
		}

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := s.writeRaw(websocket.PingMessage, nil); err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(data, &m); err != nil {
				_ = s.writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			switch m.Action {
			case "transitionend":
				s.transitionEnded(m.Route)
			case "replay":
				if s.set.Replay(m.Route) {
					metrics.Animations.WithLabelValues("replay").Inc()
				} else {
					_ = s.writeJSON(map[string]string{"error": "unknown route: " + m.Route})
				}
			default:
				_ = s.writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		logger.Info("topo session closed")
	}
}

func newTopoSession(write func(int, []byte) error, vb topo.ViewBox, settings usecases.TopoSettings, autoPlay time.Duration, clk clock.Clock) *topoSession {
	return &topoSession{
		write:    write,
		vb:       vb,
		tension:  settings.Tension,
		autoPlay: autoPlay > 0,
		elements: make(map[string]*remoteElement),
		set: drawin.NewSet(drawin.Options{
			Delay:    autoPlay,
			Duration: settings.Duration,
			Easing:   settings.Easing,
			Clock:    clk,
			OnComplete: func() {
				metrics.Animations.WithLabelValues("completed").Inc()
			},
		}),
	}
}

func sessionError(slug string, err error) map[string]string {
	return map[string]string{"type": "error", "crag": slug, "error": err.Error()}
}

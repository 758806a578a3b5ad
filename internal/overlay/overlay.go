// Package overlay показывает небольшое окно поверх остальных:
// состояние прослушивания и последний распознанный текст.
package overlay

import (
	"image"
	"image/color"
	"math"
	"sync"
	"time"

	"gioui.org/app"
	"gioui.org/font"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"voicetyper/internal/i18n"
)

const (
	windowTitle = "Voicetyper Overlay"
	width       = 320
	height      = 96
	maxRunes    = 120
)

var (
	colorBG        = color.NRGBA{R: 30, G: 30, B: 34, A: 245}
	colorText      = color.NRGBA{R: 240, G: 240, B: 245, A: 255}
	colorDim       = color.NRGBA{R: 140, G: 140, B: 150, A: 255}
	colorIdle      = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	colorListening = color.NRGBA{R: 80, G: 200, B: 120, A: 255}
	colorStopping  = color.NRGBA{R: 230, G: 160, B: 50, A: 255}
)

// State - состояние, отображаемое в окне.
type State int

const (
	StateIdle State = iota
	StateListening
	StateStopping
)

// Status - данные окна. Безопасен для вызова из любых горутин.
type Status struct {
	mu       sync.Mutex
	state    State
	language string
	engine   string
	last     string
}

// Set обновляет состояние, язык и движок.
func (s *Status) Set(state State, language, engine string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.language = language
	s.engine = engine
}

// SetText запоминает последний доставленный текст.
func (s *Status) SetText(t string) {
	r := []rune(t)
	if len(r) > maxRunes {
		t = "..." + string(r[len(r)-maxRunes:])
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = t
}

// Snapshot возвращает копию данных.
func (s *Status) Snapshot() (state State, language, engine, last string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.language, s.engine, s.last
}

func (s State) label() string {
	switch s {
	case StateListening:
		return i18n.T("overlay_listening")
	case StateStopping:
		return i18n.T("overlay_stopping")
	default:
		return i18n.T("overlay_idle")
	}
}

func (s State) color() color.NRGBA {
	switch s {
	case StateListening:
		return colorListening
	case StateStopping:
		return colorStopping
	default:
		return colorIdle
	}
}

// Window - окно статуса.
type Window struct {
	Status

	mu      sync.Mutex
	window  *app.Window
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New создаёт окно. Окно не показывается до Show.
func New() *Window {
	return &Window{}
}

// Show открывает окно.
func (w *Window) Show() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.window = new(app.Window)
	stopCh, doneCh, win := w.stopCh, w.doneCh, w.window
	w.mu.Unlock()

	go w.runEventLoop(win, stopCh, doneCh)
}

// Hide закрывает окно.
func (w *Window) Hide() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stopCh, doneCh := w.stopCh, w.doneCh
	w.stopCh = nil
	w.mu.Unlock()

	close(stopCh)
	select {
	case <-doneCh:
	case <-time.After(time.Second):
	}
}

// Visible сообщает, открыто ли окно.
func (w *Window) Visible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Window) runEventLoop(win *app.Window, stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	win.Option(
		app.Title(windowTitle),
		app.Size(unit.Dp(width), unit.Dp(height)),
		app.Decorated(false),
	)
	go positionWindow(windowTitle, width, height)

	// Перерисовка для анимации индикатора
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				win.Perform(system.ActionClose)
				return
			case <-ticker.C:
				win.Invalidate()
			}
		}
	}()

	th := material.NewTheme()
	var ops op.Ops
	for {
		switch e := win.Event().(type) {
		case app.DestroyEvent:
			return
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			w.draw(gtx, th)
			e.Frame(gtx.Ops)
		}
	}
}

func (w *Window) draw(gtx layout.Context, th *material.Theme) layout.Dimensions {
	paint.FillShape(gtx.Ops, colorBG, clip.Rect{Max: gtx.Constraints.Max}.Op())

	state, language, engine, last := w.Snapshot()

	return layout.UniformInset(unit.Dp(12)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			// Индикатор и состояние
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						return drawDot(gtx, state)
					}),
					layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						lbl := material.Label(th, unit.Sp(14), state.label())
						lbl.Color = colorText
						lbl.Font.Weight = font.Medium
						return lbl.Layout(gtx)
					}),
					layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
						lbl := material.Label(th, unit.Sp(11), language+" · "+engine)
						lbl.Color = colorDim
						lbl.Alignment = text.End
						return lbl.Layout(gtx)
					}),
				)
			}),

			layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),

			// Последний текст
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				if last == "" {
					return layout.Dimensions{}
				}
				lbl := material.Label(th, unit.Sp(13), last)
				lbl.Color = colorText
				lbl.MaxLines = 2
				return lbl.Layout(gtx)
			}),
		)
	})
}

// drawDot рисует пульсирующий кружок во время прослушивания.
func drawDot(gtx layout.Context, state State) layout.Dimensions {
	size := gtx.Dp(unit.Dp(12))
	c := state.color()
	if state == StateListening {
		phase := float64(time.Now().UnixMilli()%1200) / 1200.0 * 2 * math.Pi
		c.A = uint8(160 + 95*math.Sin(phase)/2 + 47)
	}
	paint.FillShape(gtx.Ops, c, clip.Ellipse{Max: image.Pt(size, size)}.Op(gtx.Ops))
	return layout.Dimensions{Size: image.Pt(size, size)}
}

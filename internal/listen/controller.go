package listen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"voicetyper/internal/audio"
	"voicetyper/internal/observe"
	"voicetyper/internal/speech"
	"voicetyper/internal/vad"
)

// State - состояние сессии прослушивания.
type State int

const (
	StateIdle State = iota
	StateListening
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// ErrInvalidState - операция недопустима в текущем состоянии.
var ErrInvalidState = errors.New("операция недопустима в текущем состоянии")

const (
	DefaultJoinTimeout   = time.Second
	DefaultMaxReadErrors = 10

	readRetryDelay = 50 * time.Millisecond
)

// Builder создаёт распознаватель по настройкам движка.
type Builder interface {
	Build(cfg speech.EngineConfig) (speech.Recognizer, error)
}

// SourceFunc создаёт новый источник звука на каждую сессию.
type SourceFunc func() audio.Source

// Config - параметры контроллера. Нулевые поля заменяются значениями по умолчанию.
type Config struct {
	PauseThreshold     time.Duration
	MaxPhrase          time.Duration
	FrameSamples       int
	JoinTimeout        time.Duration
	RecognitionTimeout time.Duration
	MaxReadErrors      int
	Detector           vad.Detector
}

func (c Config) withDefaults() Config {
	if c.FrameSamples <= 0 {
		c.FrameSamples = audio.FrameSamples
	}
	if c.JoinTimeout <= 0 {
		c.JoinTimeout = DefaultJoinTimeout
	}
	if c.MaxReadErrors <= 0 {
		c.MaxReadErrors = DefaultMaxReadErrors
	}
	return c
}

// Controller управляет сессией непрерывного прослушивания:
// запуск, остановка, смена языка и движка.
type Controller struct {
	cfg       Config
	builder   Builder
	newSource SourceFunc
	metrics   *observe.Metrics
	dispatch  *Dispatcher

	mu       sync.Mutex
	state    State
	engine   speech.EngineConfig
	rec      speech.Recognizer
	src      audio.Source
	loopDone chan struct{}
	stopDone chan struct{}
	onFault  func(error)

	stopping atomic.Bool
	gen      atomic.Uint64
}

// NewController создаёт контроллер. Распознаватель создаётся при первом Start.
func NewController(cfg Config, engine speech.EngineConfig, b Builder, newSource SourceFunc, m *observe.Metrics) *Controller {
	cfg = cfg.withDefaults()
	engine = engine.Normalize()
	return &Controller{
		cfg:       cfg,
		builder:   b,
		newSource: newSource,
		metrics:   m,
		engine:    engine,
		dispatch:  NewDispatcher(NewNoiseFilter(engine.Language), cfg.RecognitionTimeout, m),
	}
}

// OnFault задаёт обработчик аварийной остановки сессии (например, потерян микрофон).
// Вызывается из фоновой горутины после перехода в Idle.
func (c *Controller) OnFault(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFault = fn
}

// State возвращает текущее состояние.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Engine возвращает текущие настройки движка.
func (c *Controller) Engine() speech.EngineConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine
}

// EngineName возвращает название активного распознавателя или пустую строку.
func (c *Controller) EngineName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rec == nil {
		return ""
	}
	return c.rec.Name()
}

// Start начинает прослушивание. deliver вызывается из рабочей горутины
// для каждой распознанной фразы по порядку; переключение в UI поток - на стороне вызывающего.
func (c *Controller) Start(deliver func(text string)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}

	if c.rec == nil {
		rec, err := c.builder.Build(c.engine)
		if err != nil {
			if !errors.Is(err, speech.ErrEngineUnavailable) && !errors.Is(err, speech.ErrInvalidEngineConfig) {
				err = fmt.Errorf("%w: %w", speech.ErrEngineUnavailable, err)
			}
			return err
		}
		c.rec = rec
	}

	src := c.newSource()
	if err := src.Open(); err != nil {
		if closeErr := src.Close(); closeErr != nil {
			log.Debug().Err(closeErr).Msg("Закрытие источника после ошибки")
		}
		return err
	}

	g := c.gen.Add(1)
	c.stopping.Store(false)
	c.src = src
	c.state = StateListening
	c.loopDone = make(chan struct{})
	c.stopDone = make(chan struct{})

	seg := NewSegmenter(SegmenterConfig{
		PauseThreshold: c.cfg.PauseThreshold,
		MaxPhrase:      c.cfg.MaxPhrase,
		Detector:       c.cfg.Detector,
	})

	guarded := func(text string) {
		if c.stopping.Load() || c.gen.Load() != g {
			log.Debug().Str("text", text).Msg("Результат после остановки отброшен")
			return
		}
		deliver(text)
	}

	go c.loop(g, src, seg, c.rec, guarded, c.loopDone)

	c.metrics.ListeningDelta(context.Background(), 1)
	log.Info().
		Str("source", src.Name()).
		Str("engine", c.rec.Name()).
		Str("lang", c.engine.Language).
		Msg("Прослушивание начато")
	return nil
}

// loop - цикл захвата: чтение кадра, разбиение, отправка на распознавание.
func (c *Controller) loop(g uint64, src audio.Source, seg *Segmenter, rec speech.Recognizer, deliver func(string), done chan struct{}) {
	defer close(done)

	ctx := context.Background()
	var offset int64
	readErrs := 0

	for c.active(g) {
		frame, err := src.Read(c.cfg.FrameSamples)
		if !c.active(g) {
			// Read мог висеть дольше Stop, а за это время началась новая сессия
			return
		}
		if err != nil {
			if errors.Is(err, audio.ErrClosed) {
				return
			}
			readErrs++
			log.Warn().Err(err).Int("attempt", readErrs).Msg("Ошибка чтения аудио")
			if readErrs >= c.cfg.MaxReadErrors {
				c.fault(g, err)
				return
			}
			time.Sleep(readRetryDelay)
			continue
		}
		readErrs = 0

		frame.Offset = offset
		offset += int64(frame.Samples())

		segment, outcome := seg.Push(frame, c.dispatch.Busy())
		switch outcome {
		case OutcomeFlush:
			c.metrics.RecordFlush(ctx, string(segment.Reason))
			log.Debug().
				Str("utterance", segment.Utterance.ID).
				Int("frames", segment.Utterance.Len()).
				Dur("duration", segment.Utterance.Duration()).
				Str("reason", string(segment.Reason)).
				Msg("Фраза закрыта")
			if !c.dispatch.Dispatch(ctx, segment.Utterance, rec, deliver) {
				log.Error().Str("utterance", segment.Utterance.ID).Msg("Слот распознавания занят, фраза потеряна")
			}
		case OutcomeDiscard:
			c.metrics.RecordUtterance(ctx, observe.OutcomeDiscarded)
		}
	}
}

// active сообщает, что сессия g не остановлена и не заменена новой.
func (c *Controller) active(g uint64) bool {
	return !c.stopping.Load() && c.gen.Load() == g
}

// fault останавливает сессию после неустранимой ошибки источника.
func (c *Controller) fault(g uint64, err error) {
	log.Error().Err(err).Msg("Источник звука недоступен, прослушивание остановлено")
	go func() {
		if c.gen.Load() != g {
			return
		}
		c.Stop()

		c.mu.Lock()
		hook := c.onFault
		c.mu.Unlock()
		if hook != nil {
			hook(err)
		}
	}()
}

// Stop останавливает прослушивание и освобождает источник.
// Безопасен при повторном и конкурентном вызове; всегда завершается в Idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	switch c.state {
	case StateIdle:
		c.mu.Unlock()
		return
	case StateStopping:
		done := c.stopDone
		c.mu.Unlock()
		<-done
		return
	}

	c.stopping.Store(true)
	c.state = StateStopping
	src, loopDone, stopDone := c.src, c.loopDone, c.stopDone
	c.mu.Unlock()

	deadline := time.Now().Add(c.cfg.JoinTimeout)
	if waitUntil(loopDone, deadline) {
		closeSource(src)
	} else {
		// Цикл висит в Read: закрываем источник в фоне, чтобы не блокировать Stop
		log.Warn().Msg("Цикл захвата не завершился вовремя")
		go closeSource(src)
	}

	if !c.dispatch.Wait(time.Until(deadline)) {
		log.Warn().Msg("Распознавание не завершилось, результат будет отброшен")
	}

	c.mu.Lock()
	c.state = StateIdle
	c.src = nil
	c.mu.Unlock()
	close(stopDone)

	c.metrics.ListeningDelta(context.Background(), -1)
	log.Info().Msg("Прослушивание остановлено")
}

func waitUntil(done <-chan struct{}, deadline time.Time) bool {
	t := time.NewTimer(time.Until(deadline))
	defer t.Stop()
	select {
	case <-done:
		return true
	case <-t.C:
		return false
	}
}

func closeSource(src audio.Source) {
	if src == nil {
		return
	}
	if err := src.Close(); err != nil {
		log.Warn().Err(err).Str("source", src.Name()).Msg("Ошибка закрытия источника")
	}
}

// SwitchLanguage меняет язык и модель. Разрешено только в Idle;
// при ошибке активный распознаватель не меняется.
func (c *Controller) SwitchLanguage(code, modelPath string) error {
	c.mu.Lock()
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: смена языка в состоянии %s", ErrInvalidState, state)
	}

	next := c.engine
	next.Language = code
	next.ModelPath = modelPath
	old, err := c.rebuild(next)
	c.mu.Unlock()

	c.retire(old)
	return err
}

// SetEngineConfig меняет настройки движка. Разрешено только в Idle.
func (c *Controller) SetEngineConfig(cfg speech.EngineConfig) error {
	c.mu.Lock()
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: смена движка в состоянии %s", ErrInvalidState, state)
	}

	old, err := c.rebuild(cfg.Normalize())
	c.mu.Unlock()

	c.retire(old)
	return err
}

// rebuild создаёт новый распознаватель и подменяет им текущий.
// Вызывается под c.mu; старый распознаватель закрывает retire уже без блокировки.
func (c *Controller) rebuild(next speech.EngineConfig) (speech.Recognizer, error) {
	rec, err := c.builder.Build(next)
	if err != nil {
		return nil, err
	}

	old := c.rec
	c.rec = rec
	c.engine = next
	c.dispatch.SetFilter(NewNoiseFilter(next.Language))

	log.Info().Str("engine", rec.Name()).Str("lang", next.Language).Msg("Распознаватель заменён")
	return old, nil
}

// retire дожидается запоздавшего распознавания и закрывает старый распознаватель.
func (c *Controller) retire(old speech.Recognizer) {
	if old == nil {
		return
	}
	if !c.dispatch.Wait(c.cfg.JoinTimeout) {
		log.Warn().Str("engine", old.Name()).Msg("Старый распознаватель ещё занят")
	}
	if err := old.Close(); err != nil {
		log.Warn().Err(err).Str("engine", old.Name()).Msg("Ошибка закрытия распознавателя")
	}
}

// Close останавливает прослушивание и освобождает распознаватель.
func (c *Controller) Close() error {
	c.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rec == nil {
		return nil
	}
	err := c.rec.Close()
	c.rec = nil
	return err
}

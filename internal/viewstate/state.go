// Package viewstate содержит наблюдаемое состояние экранов: Loading, Success или Error.
//
// Holder хранит последнее состояние и рассылает каждое новое состояние подписчикам.
// Ошибка хранится в состоянии Error как есть, с сохранением категории models.
package viewstate

import (
	"context"
	"sync"

	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
)

// Kind вариант состояния.
type Kind string

const (
	Loading Kind = "loading"
	Success Kind = "success"
	Error   Kind = "error"
)

// State трёхвариантный результат. Data заполнено только для Success, Err только для Error.
type State[T any] struct {
	Kind Kind
	Data T
	Err  error
}

// NewLoading возвращает состояние загрузки.
func NewLoading[T any]() State[T] {
	return State[T]{Kind: Loading}
}

// NewSuccess возвращает успешное состояние с данными.
func NewSuccess[T any](data T) State[T] {
	return State[T]{Kind: Success, Data: data}
}

// NewError возвращает состояние ошибки.
func NewError[T any](err error) State[T] {
	return State[T]{Kind: Error, Err: err}
}

// Category имя категории ошибки для состояния Error, иначе "".
func (s State[T]) Category() string {
	if s.Kind != Error {
		return ""
	}
	return models.Category(s.Err)
}

// Holder потокобезопасный держатель состояния. Начальное состояние Loading.
type Holder[T any] struct {
	mu       sync.Mutex
	current  State[T]
	watchers map[int]chan State[T]
	next     int
	closed   bool
	done     chan struct{}
}

// NewHolder создаёт держатель в состоянии Loading.
func NewHolder[T any]() *Holder[T] {
	return &Holder[T]{
		current:  NewLoading[T](),
		watchers: make(map[int]chan State[T]),
		done:     make(chan struct{}),
	}
}

// Current возвращает последнее опубликованное состояние.
func (h *Holder[T]) Current() State[T] {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Set публикует новое состояние. После Close вызов игнорируется.
// Медленный подписчик получает только последнее состояние: промежуточные вытесняются.
func (h *Holder[T]) Set(state State[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.current = state
	for _, ch := range h.watchers {
		push(ch, state)
	}
}

// Watch возвращает канал, в который сначала приходит текущее состояние, затем все последующие.
// Канал закрывается при отмене ctx или вызове Close.
func (h *Holder[T]) Watch(ctx context.Context) <-chan State[T] {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan State[T], 1)
	if h.closed {
		ch <- h.current
		close(ch)
		return ch
	}
	id := h.next
	h.next++
	h.watchers[id] = ch
	ch <- h.current

	go func() {
		select {
		case <-ctx.Done():
		case <-h.done:
			return
		}
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.watchers[id]; ok {
			delete(h.watchers, id)
			close(c)
		}
	}()
	return ch
}

// Close закрывает все каналы подписчиков.
func (h *Holder[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
	for id, ch := range h.watchers {
		delete(h.watchers, id)
		close(ch)
	}
}

// push кладёт состояние в канал ёмкостью 1, вытесняя непрочитанное. Вызывается под h.mu.
func push[T any](ch chan State[T], state State[T]) {
	select {
	case ch <- state:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- state
}

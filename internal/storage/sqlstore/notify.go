package sqlstore

import "sync"

// notifier рассылает сигнал об изменении таблиц всем подписчикам.
// Каждый подписчик получает буферизированный канал ёмкостью 1: несколько изменений
// подряд схлопываются в одно перечитывание.
type notifier struct {
	mu     sync.Mutex
	next   int
	subs   map[int]chan struct{}
	closed bool
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[int]chan struct{})}
}

// subscribe возвращает канал сигналов и функцию отписки.
// После close канал закрыт.
func (n *notifier) subscribe() (<-chan struct{}, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan struct{}, 1)
	if n.closed {
		close(ch)
		return ch, func() {}
	}
	id := n.next
	n.next++
	n.subs[id] = ch

	return ch, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if c, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(c)
		}
	}
}

func (n *notifier) notify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (n *notifier) close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for id, ch := range n.subs {
		delete(n.subs, id)
		close(ch)
	}
}

func (n *notifier) size() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

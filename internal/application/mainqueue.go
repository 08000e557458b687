package app

import (
	"context"
	"sync"
)

// MainQueue — очередь задач единственной горутины, которой принадлежит
// состояние чатов. Все изменения DisplayState проходят через неё.
type MainQueue struct {
	jobs chan func()
	done chan struct{}
	once sync.Once
}

// NewMainQueue создаёт очередь с буфером size.
func NewMainQueue(size int) *MainQueue {
	if size <= 0 {
		size = 1
	}
	return &MainQueue{
		jobs: make(chan func(), size),
		done: make(chan struct{}),
	}
}

// Async ставит fn в очередь; блокируется, пока в буфере нет места.
// После Close задача отбрасывается и Async возвращает false.
func (q *MainQueue) Async(fn func()) bool {
	select {
	case <-q.done:
		return false
	default:
	}

	select {
	case q.jobs <- fn:
		return true
	case <-q.done:
		return false
	}
}

// Jobs отдаёт канал задач для разбора в собственном select.
func (q *MainQueue) Jobs() <-chan func() {
	return q.jobs
}

// Close останавливает приём задач. Повторный вызов безопасен.
func (q *MainQueue) Close() {
	q.once.Do(func() { close(q.done) })
}

// Run выполняет задачи до отмены ctx, затем закрывает очередь.
func (q *MainQueue) Run(ctx context.Context) error {
	defer q.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job := <-q.jobs:
			job()
		}
	}
}

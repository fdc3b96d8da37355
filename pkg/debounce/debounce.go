package debounce

import (
	"sync"
	"time"
)

// Debouncer chạy action sau một khoảng lặng.
// Mỗi Trigger reset timer, chỉ action được arm cuối cùng chạy.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	fn    func()
	gen   uint64 // tăng mỗi lần arm/cancel, timer cũ so sánh gen để tự bỏ qua
}

func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger arm fn, thay thế action đang chờ (nếu có)
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.gen++
	gen := d.gen
	d.fn = fn
	d.timer = time.AfterFunc(d.delay, func() {
		d.fire(gen)
	})
}

// Cancel bỏ action đang chờ
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.gen++
	d.fn = nil
}

// Flush chạy action đang chờ ngay lập tức (đồng bộ), trả về false nếu không có gì
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	d.stopLocked()
	d.gen++
	fn := d.fn
	d.fn = nil
	d.mu.Unlock()

	if fn == nil {
		return false
	}
	fn()
	return true
}

// Pending: có action đang chờ chạy
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fn != nil
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.fn == nil {
		d.mu.Unlock()
		return
	}
	fn := d.fn
	d.fn = nil
	d.timer = nil
	d.mu.Unlock()

	fn()
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

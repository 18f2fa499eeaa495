package content

import "sync/atomic"

// Ticket 标记一次请求的先后顺序。
type Ticket uint64

// Sequencer 为请求分配单调递增的序号，只有最新请求的结果会被采纳。
type Sequencer struct {
	last atomic.Uint64
}

// Begin 开始一次新请求，之前发出的 Ticket 随之过期。
func (s *Sequencer) Begin() Ticket {
	return Ticket(s.last.Add(1))
}

// IsCurrent 判断 t 之后是否没有新的请求。
func (s *Sequencer) IsCurrent(t Ticket) bool {
	return uint64(t) == s.last.Load()
}

// Package bt 是一个按黑板类型参数化的最小行为树
package bt

type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
	StatusRunning
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	}
	return "running"
}

type Node[B any] interface {
	Tick(bb B) Status
}

// Selector 依次尝试子节点，直到某个不失败
type Selector[B any] struct {
	Children []Node[B]
}

func (s *Selector[B]) Tick(bb B) Status {
	for _, child := range s.Children {
		if st := child.Tick(bb); st != StatusFailure {
			return st
		}
	}
	return StatusFailure
}

// Sequence 依次执行子节点，直到某个不成功
type Sequence[B any] struct {
	Children []Node[B]
}

func (s *Sequence[B]) Tick(bb B) Status {
	for _, child := range s.Children {
		if st := child.Tick(bb); st != StatusSuccess {
			return st
		}
	}
	return StatusSuccess
}

type Condition[B any] struct {
	Check func(bb B) bool
}

func (c *Condition[B]) Tick(bb B) Status {
	if c.Check == nil || !c.Check(bb) {
		return StatusFailure
	}
	return StatusSuccess
}

type Action[B any] struct {
	Do func(bb B) Status
}

func (a *Action[B]) Tick(bb B) Status {
	if a.Do == nil {
		return StatusFailure
	}
	return a.Do(bb)
}

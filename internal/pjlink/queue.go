package pjlink

// Queue holds commands in submission order. The head is the command in
// flight once sending has begun; the session, not the queue, keeps more
// than one from being sent at a time.
type Queue struct {
	items []Command
}

// NewQueue returns a queue holding cmds in order.
func NewQueue(cmds ...Command) *Queue {
	q := &Queue{}
	for _, cmd := range cmds {
		q.Enqueue(cmd)
	}
	return q
}

// Enqueue appends cmd at the tail.
func (q *Queue) Enqueue(cmd Command) {
	q.items = append(q.items, cmd)
}

// Peek returns the oldest command without removing it.
func (q *Queue) Peek() (Command, bool) {
	if len(q.items) == 0 {
		return Command{}, false
	}
	return q.items[0], true
}

// Pop removes and returns the oldest command.
func (q *Queue) Pop() (Command, bool) {
	if len(q.items) == 0 {
		return Command{}, false
	}
	cmd := q.items[0]
	q.items[0] = Command{}
	q.items = q.items[1:]
	return cmd, true
}

func (q *Queue) Len() int {
	return len(q.items)
}

func (q *Queue) Empty() bool {
	return len(q.items) == 0
}

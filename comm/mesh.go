package comm

import "fmt"

// message is one tagged payload in flight between two workers.
type message struct {
	tag  int
	data []float32
}

// Mesh is an in-process communicator endpoint. All endpoints of one run
// share a matrix of buffered channels, one per ordered worker pair, so a
// send never blocks on its matching receive and the combined
// send/receive of the halo exchange cannot deadlock.
type Mesh struct {
	rank  int
	size  int
	links [][]chan message // links[from][to]
}

// NewMesh creates the connected endpoints for size in-process workers.
func NewMesh(size int) []*Mesh {
	if size <= 0 {
		panic("mesh size must be positive")
	}
	links := make([][]chan message, size)
	for from := 0; from != size; from++ {
		links[from] = make([]chan message, size)
		for to := 0; to != size; to++ {
			// Capacity covers every message one worker can queue for
			// another within a timestep: two tagged halo exchanges, a
			// reduce partial and a gather block.
			links[from][to] = make(chan message, 4)
		}
	}
	endpoints := make([]*Mesh, size)
	for rank := 0; rank != size; rank++ {
		endpoints[rank] = &Mesh{rank: rank, size: size, links: links}
	}
	return endpoints
}

func (m *Mesh) Rank() int { return m.rank }
func (m *Mesh) Size() int { return m.size }

func (m *Mesh) Send(to, tag int, data []float32) error {
	// Copy so the caller can reuse its buffer immediately.
	owned := make([]float32, len(data))
	copy(owned, data)
	m.links[m.rank][to] <- message{tag: tag, data: owned}
	return nil
}

func (m *Mesh) Recv(from, tag int, buf []float32) error {
	msg, ok := <-m.links[from][m.rank]
	if !ok {
		return fmt.Errorf("worker %d: link from %d closed", m.rank, from)
	}
	if msg.tag != tag {
		return fmt.Errorf("worker %d: expected tag %d from %d, got %d", m.rank, tag, from, msg.tag)
	}
	if len(msg.data) != len(buf) {
		return fmt.Errorf("worker %d: expected %d values from %d, got %d",
			m.rank, len(buf), from, len(msg.data))
	}
	copy(buf, msg.data)
	return nil
}

func (m *Mesh) Sendrecv(to, from, tag int, send, recv []float32) error {
	if err := m.Send(to, tag, send); err != nil {
		return err
	}
	return m.Recv(from, tag, recv)
}

func (m *Mesh) Close() error {
	for to := 0; to != m.size; to++ {
		close(m.links[m.rank][to])
	}
	return nil
}

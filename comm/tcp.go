package comm

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"
)

// dialAttempts bounds how long a starting worker waits for its peers.
const dialAttempts = 30

// peer is one TCP link to another worker. Writes are serialised by the
// mutex; a single reader goroutine demultiplexes incoming frames into the
// inbox.
type peer struct {
	conn  net.Conn
	w     *bufio.Writer
	mutex sync.Mutex
	inbox chan message
}

// Cluster is a worker's endpoint in a TCP mesh. Every worker listens on
// its own address from the shared address list and keeps one connection
// per peer, dialling every lower rank and accepting from every higher
// rank.
type Cluster struct {
	rank     int
	size     int
	listener net.Listener
	peers    []*peer // nil at the worker's own rank
}

// Dial joins the cluster described by addrs as the worker with the given
// rank. It returns once a connection to every peer is established.
func Dial(rank int, addrs []string) (*Cluster, error) {
	if rank < 0 || rank >= len(addrs) {
		return nil, fmt.Errorf("rank %d outside address list of %d workers", rank, len(addrs))
	}
	listener, err := net.Listen("tcp", addrs[rank])
	if err != nil {
		return nil, fmt.Errorf("worker %d listen: %w", rank, err)
	}

	c := &Cluster{
		rank:     rank,
		size:     len(addrs),
		listener: listener,
		peers:    make([]*peer, len(addrs)),
	}

	// Accept connections from higher-ranked workers. Each one opens with
	// a hello frame carrying its rank.
	accepted := make(chan error, 1)
	go func() {
		for n := c.size - 1 - rank; n != 0; n-- {
			conn, err := listener.Accept()
			if err != nil {
				accepted <- err
				return
			}
			var from uint32
			if err := binary.Read(conn, binary.LittleEndian, &from); err != nil {
				accepted <- fmt.Errorf("worker %d: bad hello: %w", rank, err)
				return
			}
			if int(from) <= rank || int(from) >= c.size || c.peers[from] != nil {
				accepted <- fmt.Errorf("worker %d: unexpected hello from rank %d", rank, from)
				return
			}
			c.peers[from] = newPeer(conn)
			log.Printf("Worker %d registered with worker %d", from, rank)
		}
		accepted <- nil
	}()

	// Dial every lower-ranked worker, retrying while it starts up.
	for to := 0; to != rank; to++ {
		conn, err := dialRetry(addrs[to])
		if err != nil {
			return nil, fmt.Errorf("worker %d dial %d: %w", rank, to, err)
		}
		if err := binary.Write(conn, binary.LittleEndian, uint32(rank)); err != nil {
			return nil, fmt.Errorf("worker %d hello to %d: %w", rank, to, err)
		}
		c.peers[to] = newPeer(conn)
		log.Printf("Worker %d registered with worker %d", rank, to)
	}

	if err := <-accepted; err != nil {
		return nil, err
	}
	for _, p := range c.peers {
		if p != nil {
			go p.monitor()
		}
	}
	return c, nil
}

func dialRetry(addr string) (net.Conn, error) {
	var err error
	for i := 0; i != dialAttempts; i++ {
		var conn net.Conn
		conn, err = net.Dial("tcp", addr)
		if err == nil {
			if tcp, ok := conn.(*net.TCPConn); ok {
				tcp.SetKeepAlive(true)
			}
			return conn, nil
		}
		time.Sleep(time.Second)
	}
	return nil, err
}

func newPeer(conn net.Conn) *peer {
	return &peer{
		conn:  conn,
		w:     bufio.NewWriter(conn),
		inbox: make(chan message, 4),
	}
}

// monitor repeatedly reads frames from the connection until it is closed
// by the peer.
func (p *peer) monitor() {
	defer close(p.inbox)
	r := bufio.NewReader(p.conn)
	for {
		var header [5]byte
		if _, err := io.ReadFull(r, header[:]); err != nil {
			return // connection closed
		}
		tag := int(header[0])
		count := binary.LittleEndian.Uint32(header[1:])
		data := make([]float32, count)
		if err := binary.Read(r, binary.LittleEndian, data); err != nil {
			return
		}
		p.inbox <- message{tag: tag, data: data}
	}
}

// write sends one tagged frame: tag byte, value count, payload.
func (p *peer) write(tag int, data []float32) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	var header [5]byte
	header[0] = byte(tag)
	binary.LittleEndian.PutUint32(header[1:], uint32(len(data)))
	if _, err := p.w.Write(header[:]); err != nil {
		return err
	}
	if err := binary.Write(p.w, binary.LittleEndian, data); err != nil {
		return err
	}
	return p.w.Flush()
}

func (c *Cluster) Rank() int { return c.rank }
func (c *Cluster) Size() int { return c.size }

func (c *Cluster) Send(to, tag int, data []float32) error {
	return c.peers[to].write(tag, data)
}

func (c *Cluster) Recv(from, tag int, buf []float32) error {
	msg, ok := <-c.peers[from].inbox
	if !ok {
		return fmt.Errorf("worker %d: connection to %d lost", c.rank, from)
	}
	if msg.tag != tag {
		return fmt.Errorf("worker %d: expected tag %d from %d, got %d", c.rank, tag, from, msg.tag)
	}
	if len(msg.data) != len(buf) {
		return fmt.Errorf("worker %d: expected %d values from %d, got %d",
			c.rank, len(buf), from, len(msg.data))
	}
	copy(buf, msg.data)
	return nil
}

// Sendrecv runs the send concurrently with the receive so both sides of
// an exchange can be mid-transfer at once.
func (c *Cluster) Sendrecv(to, from, tag int, send, recv []float32) error {
	sent := make(chan error, 1)
	go func() { sent <- c.Send(to, tag, send) }()
	if err := c.Recv(from, tag, recv); err != nil {
		<-sent
		return err
	}
	return <-sent
}

func (c *Cluster) Close() error {
	err := c.listener.Close()
	for _, p := range c.peers {
		if p == nil {
			continue
		}
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

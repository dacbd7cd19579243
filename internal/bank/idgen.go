package bank

import (
	"fmt"
	"sync/atomic"

	"github.com/bwmarrin/snowflake"
)

// IDGenerator hands out process-unique, monotonically increasing ids for
// accounts and transaction records
type IDGenerator interface {
	NextID() int64
}

// Sequence is an in-process counter. The first id is start+1.
type Sequence struct {
	last atomic.Int64
}

// NewSequence creates a Sequence whose first id is start+1
func NewSequence(start int64) *Sequence {
	s := &Sequence{}
	s.last.Store(start)
	return s
}

// NextID returns the next id in the sequence
func (s *Sequence) NextID() int64 {
	return s.last.Add(1)
}

// Observe moves the sequence past id so restored ids are never reissued
func (s *Sequence) Observe(id int64) {
	for {
		cur := s.last.Load()
		if id <= cur || s.last.CompareAndSwap(cur, id) {
			return
		}
	}
}

// SnowflakeGenerator issues time-ordered snowflake ids, so ids keep growing
// across process restarts without any state being carried over
type SnowflakeGenerator struct {
	node *snowflake.Node
}

// NewSnowflakeGenerator creates a generator for the given node number (0-1023)
func NewSnowflakeGenerator(nodeID int64) (*SnowflakeGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node %d: %w", nodeID, err)
	}
	return &SnowflakeGenerator{node: node}, nil
}

// NextID returns a new snowflake id
func (g *SnowflakeGenerator) NextID() int64 {
	return g.node.Generate().Int64()
}

// observer is implemented by generators that must skip ids already in use
type observer interface {
	Observe(id int64)
}

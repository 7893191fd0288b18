package extract

import (
	"encoding/json"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/google/uuid"

	"github.com/matzehuels/moonlayout/pkg/ecs"
	"github.com/matzehuels/moonlayout/pkg/errors"
	"github.com/matzehuels/moonlayout/pkg/stack"
)

type stackJSON struct {
	Visible  *bitset.BitSet `json:"visible"`
	Roots    []ecs.Entity   `json:"roots"`
	Entities []ecs.Entity   `json:"entities"`
	Ranges   []stack.Range  `json:"ranges"`
}

type snapshotJSON struct {
	ID        uuid.UUID                `json:"id"`
	Scene     string                   `json:"scene"`
	Frame     uint64                   `json:"frame"`
	CreatedAt time.Time                `json:"created_at"`
	Stacks    map[ecs.Entity]stackJSON `json:"stacks"`
	Nodes     []NodeState              `json:"nodes"`
}

// MarshalJSON encodes the snapshot with nodes in ascending entity order.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	out := snapshotJSON{
		ID:        s.ID,
		Scene:     s.Scene,
		Frame:     s.Frame,
		CreatedAt: s.CreatedAt,
		Stacks:    make(map[ecs.Entity]stackJSON),
	}
	if s.Stacks != nil {
		for _, cam := range s.Stacks.Cameras() {
			st, _ := s.Stacks.Get(cam)
			out.Stacks[cam] = stackJSON{
				Visible:  st.Visible,
				Roots:    st.Roots,
				Entities: st.Entities,
				Ranges:   st.Ranges,
			}
		}
	}
	for _, e := range s.Entities() {
		out.Nodes = append(out.Nodes, s.Nodes[e])
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a snapshot into a fresh, unshared stack map.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var in snapshotJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	m := stack.NewMap()
	stacks := m.Mut()
	for cam, sj := range in.Stacks {
		visible := sj.Visible
		if visible == nil {
			visible = bitset.New(0)
		}
		stacks[cam] = &stack.Stack{
			Visible:  visible,
			Roots:    sj.Roots,
			Entities: sj.Entities,
			Ranges:   sj.Ranges,
		}
	}
	nodes := make(map[ecs.Entity]NodeState, len(in.Nodes))
	for _, n := range in.Nodes {
		nodes[n.Entity] = n
	}
	*s = Snapshot{
		ID:        in.ID,
		Scene:     in.Scene,
		Frame:     in.Frame,
		CreatedAt: in.CreatedAt,
		Stacks:    m,
		Nodes:     nodes,
	}
	return nil
}

// Encode returns the JSON encoding of s.
func Encode(s *Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode snapshot %d", s.Frame)
	}
	return data, nil
}

// Decode parses a snapshot produced by Encode.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode snapshot")
	}
	return &s, nil
}

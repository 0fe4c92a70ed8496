package filter

import (
	"fmt"

	"github.com/robert-malhotra/h5shard/internal/message"
)

// Pipeline decodes chunk data through the filters of a dataset.
type Pipeline struct {
	filters []Filter
}

// NewPipeline creates a pipeline from a FilterPipeline message. A nil
// message gives an empty pipeline.
func NewPipeline(fp *message.FilterPipeline, elemSize int) *Pipeline {
	p := &Pipeline{}
	if fp == nil {
		return p
	}
	for _, info := range fp.Filters {
		p.filters = append(p.filters, New(info, elemSize))
	}
	return p
}

// Decode applies the pipeline to encoded data. Bit i of mask set means
// filter i was skipped when the chunk was written.
func (p *Pipeline) Decode(input []byte, mask uint32) ([]byte, error) {
	data := input
	for i := len(p.filters) - 1; i >= 0; i-- {
		if i < 32 && mask&(1<<uint(i)) != 0 {
			continue
		}
		var err error
		data, err = p.filters[i].Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", Name(p.filters[i].ID()), err)
		}
	}
	return data, nil
}

// Empty returns true if the pipeline has no filters.
func (p *Pipeline) Empty() bool { return len(p.filters) == 0 }

// Len returns the number of filters in the pipeline.
func (p *Pipeline) Len() int { return len(p.filters) }

package shard

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/robert-malhotra/h5shard/fileset"
	"github.com/robert-malhotra/h5shard/internal/h5test"
	"github.com/robert-malhotra/h5shard/ndarray"
)

func TestInspectFake(t *testing.T) {
	o := &fakeOpener{}
	paths := o.add(2)
	f0 := o.file(paths[0])
	f0.groups["/"] = []string{"pos", "meta"}
	f0.groups["/meta"] = []string{"b", "a"}
	f0.datasets["/pos"] = array(t, []int8{1})
	f0.attrs["/pos"] = map[string]any{"units": "m", "scale": 2.5}
	o.file(paths[1]).groups["/"] = []string{"only-in-second"}
	r := newReader(t, o, paths)

	names, err := r.ListEntries("", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"meta", "pos"}, names)

	names, err = r.ListEntries("meta", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	names, err = r.ListEntries("/", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"only-in-second"}, names)

	names, err = r.ListAttributes("pos", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"scale", "units"}, names)

	v, err := r.GetAttribute("/pos", "scale", 0)
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	assert.EqualValues(t, 0, o.reads.Load(), "inspection must not read datasets")
	assert.Equal(t, o.opens.Load(), o.closes.Load())
}

func TestInspectErrors(t *testing.T) {
	o := &fakeOpener{}
	paths := o.add(1)
	o.file(paths[0]).datasets["/pos"] = array(t, []int8{1})
	r := newReader(t, o, paths)

	_, err := r.ListEntries("/", 1)
	assert.True(t, errors.Is(err, ErrFileIndex), "got %v", err)
	_, err = r.ListAttributes("pos", -1)
	assert.True(t, errors.Is(err, ErrFileIndex), "got %v", err)

	var nf *NotFoundError
	_, err = r.ListEntries("nope", 0)
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Equal(t, NotFoundError{Path: paths[0], Object: "/nope"}, *nf)

	_, err = r.GetAttribute("pos", "units", 0)
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Equal(t, NotFoundError{Path: paths[0], Object: "/pos", Attribute: "units"}, *nf)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = r.GetAttribute("ghost", "units", 0)
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Equal(t, NotFoundError{Path: paths[0], Object: "/ghost"}, *nf)
}

// HDF5Suite runs the reader over real files written by h5test.
type HDF5Suite struct {
	suite.Suite
	paths []string
	r     *Reader
}

func TestHDF5Suite(t *testing.T) {
	suite.Run(t, new(HDF5Suite))
}

func (s *HDF5Suite) SetupTest() {
	s.paths = nil
	for i := range 3 {
		b := h5test.New()
		b.Root().Attr("shard", int64(i)).Attr("producer", "h5test")
		b.Dataset("particles/pos", seq(i*10, 2*3), 2, 3).Chunked(1, 3).Deflate(4).Attr("units", "m")
		if i != 1 {
			b.Dataset("particles/id", []int32{int32(i), int32(i + 100)})
		}
		b.Group("empty")
		s.paths = append(s.paths, b.Temp(s.T(), "part.h5"))
	}
	r, err := New(fileset.Explicit(s.paths...), WithProgress(false))
	s.Require().NoError(err)
	s.r = r
}

func (s *HDF5Suite) TearDownTest() {
	s.Require().NoError(s.r.Close())
}

func (s *HDF5Suite) TestGet() {
	pos, err := s.r.Get(context.Background(), "particles/pos")
	s.Require().NoError(err)
	s.Equal([]int{6, 3}, pos.Shape())
	values, err := pos.Float64s()
	s.Require().NoError(err)
	var want []float64
	for i := range 3 {
		want = append(want, seq(i*10, 6)...)
	}
	s.Equal(want, values)
}

func (s *HDF5Suite) TestPartialPresence() {
	ids, err := s.r.LoadSerial(context.Background(), "/particles/id")
	s.Require().NoError(err)
	got, err := ndarray.Values[int32](ids)
	s.Require().NoError(err)
	s.Equal([]int32{0, 100, 2, 102}, got)
}

func (s *HDF5Suite) TestGroupAndMissing() {
	_, err := s.r.Get(context.Background(), "particles")
	s.True(errors.Is(err, ErrDatasetNotFound), "got %v", err)
	_, err = s.r.Get(context.Background(), "particles/vel")
	s.True(errors.Is(err, ErrDatasetNotFound), "got %v", err)

	shard, err := s.r.ReadShard(s.paths[0], "empty")
	s.Require().NoError(err)
	s.False(shard.IsPresent())
}

func (s *HDF5Suite) TestInspect() {
	names, err := s.r.ListEntries("/", 0)
	s.Require().NoError(err)
	s.Equal([]string{"empty", "particles"}, names)

	names, err = s.r.ListEntries("particles", 1)
	s.Require().NoError(err)
	s.Equal([]string{"pos"}, names)

	names, err = s.r.ListAttributes("/", 0)
	s.Require().NoError(err)
	s.Equal([]string{"producer", "shard"}, names)

	v, err := s.r.GetAttribute("/", "shard", 2)
	s.Require().NoError(err)
	s.Equal(int64(2), v)

	v, err = s.r.GetAttribute("particles/pos", "units", 0)
	s.Require().NoError(err)
	s.Equal("m", v)

	_, err = s.r.ListEntries("particles/pos", 0)
	s.True(errors.Is(err, ErrNotFound), "listing a dataset got %v", err)

	_, err = s.r.GetAttribute("particles/pos", "nope", 0)
	var nf *NotFoundError
	s.Require().True(errors.As(err, &nf))
	s.Equal("nope", nf.Attribute)
}

func (s *HDF5Suite) TestDescribe() {
	info, err := s.r.Describe(context.Background(), "particles/id")
	s.Require().NoError(err)
	s.Equal(ndarray.Int32, info.Kind)
	s.Equal([]int{4}, info.Shape)
	s.Equal([]int{0, 2}, info.Files)
}

func (s *HDF5Suite) TestMissingFile() {
	paths := append(append([]string{}, s.paths...), s.paths[0]+".missing")
	r, err := New(fileset.Explicit(paths...), WithProgress(false))
	s.Require().NoError(err)
	defer r.Close()

	_, err = r.Get(context.Background(), "particles/pos")
	var ioErr *IOError
	s.Require().True(errors.As(err, &ioErr), "got %v", err)
	s.Equal(paths[3], ioErr.Path)
}

package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAppendWithNoInputsReturnsCurrent(t *testing.T) {
	m := Matcher{}
	current := []string{"a", "b", "c"}

	res, err := m.Resolve(current, nil, nil, false, ModeAppend, nil)
	require.NoError(t, err)
	assert.Equal(t, current, res.Candidate)
	assert.Empty(t, res.Removed)
}

func TestResolveReplaceAllWithUploadIgnoresCurrent(t *testing.T) {
	m := Matcher{}
	res, err := m.Resolve([]string{"a", "b"}, []string{"u"}, nil, false, ModeReplaceAll, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"u"}, res.Candidate)
	assert.ElementsMatch(t, []string{"a", "b"}, res.Removed)
}

func TestResolveAppendMergesUploadsAndClientURLs(t *testing.T) {
	m := Matcher{}
	res, err := m.Resolve(
		[]string{"a", "b"},
		[]string{"u1"},
		[]string{"https://ext/y.jpg"}, true,
		ModeAppend, nil,
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "u1", "https://ext/y.jpg"}, res.Candidate)
	assert.Empty(t, res.Removed)
}

func TestResolveReplaceAllClientListReplacesWholesale(t *testing.T) {
	m := Matcher{}
	res, err := m.Resolve(
		[]string{"a", "b"},
		nil,
		[]string{"x", "y"}, true,
		ModeReplaceAll, nil,
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, res.Candidate)
	assert.ElementsMatch(t, []string{"a", "b"}, res.Removed)
}

func TestResolveReplaceAllUploadsTakePrecedenceOverClientList(t *testing.T) {
	m := Matcher{}
	res, err := m.Resolve(
		[]string{"a"},
		[]string{"u1", "u2"},
		[]string{"x"}, true,
		ModeReplaceAll, nil,
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2", "x"}, res.Candidate)
	assert.Equal(t, []string{"a"}, res.Removed)
}

func TestResolveRemoveExact(t *testing.T) {
	m := Matcher{}
	res, err := m.Resolve(
		[]string{"a", "b"},
		nil, nil, false,
		ModeAppend,
		[]Removal{{Ref: "a", Exact: true}},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, res.Candidate)
	assert.Equal(t, []string{"a"}, res.Removed)
}

func TestResolveRemoveLastImageFailsGuard(t *testing.T) {
	m := Matcher{}
	res, err := m.Resolve(
		[]string{"a"},
		nil, nil, false,
		ModeAppend,
		[]Removal{{Ref: "a", Exact: true}},
	)
	require.NoError(t, err)
	assert.Empty(t, res.Candidate)

	_, err = Guard(Dedupe(res.Candidate))
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestResolveRemoveNormalizedVolatileQueryFallback(t *testing.T) {
	m := Matcher{VolatileHosts: []string{"cdn.example"}}
	res, err := m.Resolve(
		[]string{"https://cdn.example/x.jpg?sig=111"},
		nil, nil, false,
		ModeAppend,
		[]Removal{{Ref: "https://cdn.example/x.jpg?sig=222"}},
	)
	require.NoError(t, err)
	assert.Empty(t, res.Candidate)
	assert.Equal(t, []string{"https://cdn.example/x.jpg?sig=111"}, res.Removed)

	_, err = Guard(res.Candidate)
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestResolveUnmatchedRemovalFailsWholeCall(t *testing.T) {
	m := Matcher{}
	_, err := m.Resolve(
		[]string{"a", "b"},
		[]string{"u"}, nil, false,
		ModeAppend,
		[]Removal{{Ref: "missing"}},
	)
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestResolveRemovalTargetsPreCallState(t *testing.T) {
	// the directive matches an entry of the stored list even though the
	// request also replaces everything; the match never consults uploads
	m := Matcher{}
	_, err := m.Resolve(
		[]string{"a"},
		[]string{"u"}, nil, false,
		ModeReplaceAll,
		[]Removal{{Ref: "u", Exact: true}},
	)
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestResolveRemovalAppliesToWorkingList(t *testing.T) {
	m := Matcher{}
	res, err := m.Resolve(
		[]string{"a", "b"},
		[]string{"u"}, nil, false,
		ModeAppend,
		[]Removal{{Ref: "b", Exact: true}},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "u"}, res.Candidate)
	assert.Equal(t, []string{"b"}, res.Removed)
}

func TestResolveDoesNotMutateCurrent(t *testing.T) {
	m := Matcher{}
	current := []string{"a", "b"}
	_, err := m.Resolve(current, []string{"u"}, nil, false, ModeAppend, []Removal{{Ref: "a", Exact: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, current)
}

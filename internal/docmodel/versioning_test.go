package docmodel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevertToVersion(t *testing.T) {
	doc := NewDocument("Chemistry")
	vc := NewVersionControl(doc)

	var saved [][]byte
	for _, title := range []string{"one", "two", "three"} {
		doc.AddSection(NewSection(title))
		_, err := vc.SaveVersion()
		require.NoError(t, err)
		state, err := json.Marshal(doc)
		require.NoError(t, err)
		saved = append(saved, state)
	}
	assert.Equal(t, 3, vc.Len())

	require.True(t, vc.RevertToVersion(1))
	state, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, string(saved[1]), string(state))
	assert.Len(t, doc.Sections(), 2)
	assert.Equal(t, 3, doc.Version())
	assert.Equal(t, 3, vc.Len())
}

func TestRevertOutOfRangeLeavesDocument(t *testing.T) {
	doc := NewDocument("Chemistry")
	vc := NewVersionControl(doc)
	for i := 0; i < 3; i++ {
		_, err := vc.SaveVersion()
		require.NoError(t, err)
	}
	doc.AddSection(NewSection("unsaved"))
	before, err := json.Marshal(doc)
	require.NoError(t, err)

	assert.False(t, vc.RevertToVersion(5))
	assert.False(t, vc.RevertToVersion(-1))

	after, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestRevertReplacesWholeGraph(t *testing.T) {
	doc := NewDocument("Chemistry")
	section := NewSection("bonds")
	text := NewText("ionic", 0)
	section.Add(text)
	doc.AddSection(section)
	vc := NewVersionControl(doc)
	_, err := vc.SaveVersion()
	require.NoError(t, err)

	text.Content = "covalent"
	doc.AddTag("later")

	require.True(t, vc.RevertToVersion(0))
	restored := doc.Sections()[0].Elements()[0].(*Text)
	assert.Equal(t, "ionic", restored.Content)
	assert.NotSame(t, text, restored)
	assert.Empty(t, doc.Tags())
}

func TestRestoreHistory(t *testing.T) {
	source := NewDocument("Chemistry")
	source.AddSection(NewSection("one"))
	snapshot, err := json.Marshal(source)
	require.NoError(t, err)

	target := NewDocument("Blank")
	vc := NewVersionControl(target)
	vc.RestoreHistory([][]byte{snapshot})

	got, ok := vc.Snapshot(0)
	require.True(t, ok)
	assert.Equal(t, snapshot, got)
	_, ok = vc.Snapshot(1)
	assert.False(t, ok)

	require.True(t, vc.RevertToVersion(0))
	assert.Equal(t, "Chemistry", target.Title())
}

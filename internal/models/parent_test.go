package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseParentID(t *testing.T) {
	id := primitive.NewObjectID()

	tests := []struct {
		in       string
		wantRoot bool
		wantErr  bool
	}{
		{in: "", wantRoot: true},
		{in: "0", wantRoot: true},
		{in: id.Hex()},
		{in: "not-an-id", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			p, err := ParseParentID(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParentID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantRoot, p.IsRoot())
			if !tc.wantRoot {
				got, ok := p.FolderID()
				assert.True(t, ok)
				assert.Equal(t, id, got)
			}
		})
	}
}

func TestParentID_ZeroValueIsRoot(t *testing.T) {
	var p ParentID
	assert.True(t, p.IsRoot())
	assert.Equal(t, Root(), p)
	assert.Equal(t, "0", p.String())
}

func TestFile_BSONParentID(t *testing.T) {
	folder := primitive.NewObjectID()

	for _, parent := range []ParentID{Root(), Folder(folder)} {
		f := File{ID: primitive.NewObjectID(), Name: "a.txt", Type: FileTypeFile, ParentID: parent}
		raw, err := bson.Marshal(f)
		require.NoError(t, err)

		var got File
		require.NoError(t, bson.Unmarshal(raw, &got))
		assert.Equal(t, parent, got.ParentID)
	}
}

func TestFile_BSONRootStoredAsZero(t *testing.T) {
	raw, err := bson.Marshal(File{Name: "docs", Type: FileTypeFolder})
	require.NoError(t, err)

	v := bson.Raw(raw).Lookup("parentId")
	n, ok := v.Int32OK()
	require.True(t, ok)
	assert.Equal(t, int32(0), n)
}

func TestParentID_JSON(t *testing.T) {
	folder := primitive.NewObjectID()

	b, err := json.Marshal(Root())
	require.NoError(t, err)
	assert.Equal(t, "0", string(b))

	b, err = json.Marshal(Folder(folder))
	require.NoError(t, err)
	assert.Equal(t, `"`+folder.Hex()+`"`, string(b))

	var p ParentID
	require.NoError(t, json.Unmarshal([]byte(`0`), &p))
	assert.True(t, p.IsRoot())
	require.NoError(t, json.Unmarshal([]byte(`"`+folder.Hex()+`"`), &p))
	assert.Equal(t, Folder(folder), p)
	assert.Error(t, json.Unmarshal([]byte(`7`), &p))
}

func TestFile_BSONNumericParent(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		wantErr bool
	}{
		{name: "int32 zero", value: int32(0)},
		{name: "int64 zero", value: int64(0)},
		{name: "double zero", value: 0.0},
		{name: "int32 non-zero", value: int32(5), wantErr: true},
		{name: "int64 non-zero", value: int64(5), wantErr: true},
		{name: "double non-zero", value: 1.5, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := bson.Marshal(bson.M{"name": "x", "type": "file", "parentId": tc.value})
			require.NoError(t, err)

			var got File
			err = bson.Unmarshal(raw, &got)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParentID)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.ParentID.IsRoot())
		})
	}
}

package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidParentID = errors.New("invalid parent id")

// ParentID is either the account root or a folder id. The zero value is Root.
// On the wire (BSON and JSON) the root is written as 0, matching the stored
// documents, but in Go it never aliases a real ObjectID.
type ParentID struct {
	folder primitive.ObjectID
	set    bool
}

func Root() ParentID { return ParentID{} }

func Folder(id primitive.ObjectID) ParentID { return ParentID{folder: id, set: true} }

func (p ParentID) IsRoot() bool { return !p.set }

// FolderID returns the parent folder id, or false for the root.
func (p ParentID) FolderID() (primitive.ObjectID, bool) {
	return p.folder, p.set
}

func (p ParentID) String() string {
	if !p.set {
		return "0"
	}
	return p.folder.Hex()
}

// ParseParentID accepts "", "0" (root) or a hex ObjectID.
func ParseParentID(s string) (ParentID, error) {
	if s == "" || s == "0" {
		return Root(), nil
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return ParentID{}, fmt.Errorf("%w: %q", ErrInvalidParentID, s)
	}
	return Folder(id), nil
}

func (p ParentID) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if !p.set {
		return bson.MarshalValue(int32(0))
	}
	return bson.MarshalValue(p.folder)
}

func (p *ParentID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bson.TypeObjectID:
		*p = Folder(raw.ObjectID())
	case bson.TypeString:
		parsed, err := ParseParentID(raw.StringValue())
		if err != nil {
			return err
		}
		*p = parsed
	case bson.TypeNull:
		*p = Root()
	case bson.TypeInt32, bson.TypeInt64, bson.TypeDouble:
		if !zeroNumber(raw) {
			return fmt.Errorf("%w: non-zero number %s", ErrInvalidParentID, raw)
		}
		*p = Root()
	default:
		return fmt.Errorf("%w: unexpected bson type %s", ErrInvalidParentID, t)
	}
	return nil
}

func zeroNumber(raw bson.RawValue) bool {
	switch raw.Type {
	case bson.TypeInt32:
		return raw.Int32() == 0
	case bson.TypeInt64:
		return raw.Int64() == 0
	default:
		return raw.Double() == 0
	}
}

func (p ParentID) MarshalJSON() ([]byte, error) {
	if !p.set {
		return []byte("0"), nil
	}
	return json.Marshal(p.folder.Hex())
}

func (p *ParentID) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*p = Root()
	case float64:
		if x != 0 {
			return fmt.Errorf("%w: %v", ErrInvalidParentID, x)
		}
		*p = Root()
	case string:
		parsed, err := ParseParentID(x)
		if err != nil {
			return err
		}
		*p = parsed
	default:
		return fmt.Errorf("%w: %s", ErrInvalidParentID, string(b))
	}
	return nil
}

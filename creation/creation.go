// Package creation defines the append-only record of successful generations.
package creation

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"go.jetify.com/typeid/v2"
)

// Type is the kind of content a Creation holds.
type Type string

const (
	TypeArticle Type = "article"
	TypeImage   Type = "image"
)

// Valid reports whether t is a known type.
func (t Type) Valid() bool { return t == TypeArticle || t == TypeImage }

// Creation is one persisted generation. It is written once and never updated.
type Creation struct {
	ID        ID        `json:"id"`
	UserID    string    `json:"user_id"`
	Prompt    string    `json:"prompt"`
	Content   string    `json:"content"`
	Type      Type      `json:"type"`
	Publish   bool      `json:"publish"`
	CreatedAt time.Time `json:"created_at"`
}

// New fills in ID and CreatedAt.
func New(userID, prompt, content string, typ Type, publish bool) *Creation {
	return &Creation{
		ID:        NewID(),
		UserID:    userID,
		Prompt:    prompt,
		Content:   content,
		Type:      typ,
		Publish:   publish,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks the fields every store relies on.
func (c *Creation) Validate() error {
	if c.UserID == "" {
		return errors.New("creation: user_id required")
	}
	if !c.Type.Valid() {
		return fmt.Errorf("creation: invalid type %q", c.Type)
	}
	if c.ID.IsNil() {
		return errors.New("creation: id required")
	}
	return nil
}

// ListOpts bounds listing queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// DefaultListLimit applies when ListOpts.Limit is zero.
const DefaultListLimit = 50

// Normalize clamps opts to sane values.
func (o ListOpts) Normalize() ListOpts {
	if o.Limit <= 0 || o.Limit > 200 {
		o.Limit = DefaultListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// Store persists creations. Insert is the only write.
type Store interface {
	Insert(ctx context.Context, c *Creation) error
	// ListByUser returns userID's creations, newest first.
	ListByUser(ctx context.Context, userID string, opts ListOpts) ([]*Creation, error)
	// ListPublished returns published creations of every user, newest first.
	ListPublished(ctx context.Context, opts ListOpts) ([]*Creation, error)
}

// Prefix is the TypeID prefix of creation ids.
const Prefix = "crt"

// ID is a K-sortable creation identifier of the form "crt_<suffix>".
//
//nolint:recvcheck // pointer receivers only where the value is written.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// NilID is the zero ID.
var NilID ID

// NewID generates a fresh creation id.
func NewID() ID {
	tid, err := typeid.Generate(Prefix)
	if err != nil {
		panic(fmt.Sprintf("creation: generate id: %v", err))
	}
	return ID{inner: tid, valid: true}
}

// ParseID parses s and checks the prefix.
func ParseID(s string) (ID, error) {
	if s == "" {
		return NilID, errors.New("creation: parse id: empty string")
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return NilID, fmt.Errorf("creation: parse id %q: %w", s, err)
	}
	if tid.Prefix() != Prefix {
		return NilID, fmt.Errorf("creation: expected prefix %q, got %q", Prefix, tid.Prefix())
	}
	return ID{inner: tid, valid: true}, nil
}

// IsNil reports whether i is the zero ID.
func (i ID) IsNil() bool { return !i.valid }

func (i ID) String() string {
	if !i.valid {
		return ""
	}
	return i.inner.String()
}

func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *ID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*i = NilID
		return nil
	}
	parsed, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Value implements driver.Valuer.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil
	}
	return i.inner.String(), nil
}

// Scan implements sql.Scanner.
func (i *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = NilID
		return nil
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("creation: cannot scan %T into ID", src)
	}
}

package documents

import (
	"errors"
	"fmt"
	"strings"

	"github.com/speps/go-hashids/v2"
)

const (
	referencePrefix   = "BRGY-"
	referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var ErrBadReference = errors.New("invalid document reference")

// References turns request ids into the short codes printed on issued
// documents and back.
type References struct {
	h *hashids.HashID
}

func NewReferences(salt string) (*References, error) {
	hd := hashids.NewData()
	hd.Alphabet = referenceAlphabet
	hd.Salt = salt
	hd.MinLength = 8

	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("reference encoder: %w", err)
	}
	return &References{h: h}, nil
}

func (r *References) Encode(id int64) string {
	code, err := r.h.EncodeInt64([]int64{id})
	if err != nil {
		// only negative ids fail to encode
		return ""
	}
	return referencePrefix + code
}

// Decode accepts the code with or without its prefix, in any case.
func (r *References) Decode(ref string) (int64, error) {
	code := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(ref)), referencePrefix)
	if code == "" {
		return 0, ErrBadReference
	}
	ids, err := r.h.DecodeInt64WithError(code)
	if err != nil || len(ids) != 1 {
		return 0, ErrBadReference
	}
	return ids[0], nil
}

// Stamp fills Reference on each request.
func (r *References) Stamp(reqs ...*Request) {
	for _, dr := range reqs {
		if dr != nil {
			dr.Reference = r.Encode(dr.ID)
		}
	}
}

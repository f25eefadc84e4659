package ecs

// Id is a packed 32-bit entity identifier.
//
// Layout, most to least significant bit:
//
//	[1-bit pair flag][3-bit kind tag][20-bit raw id][8-bit meta]
//
// For a non-pair id the kind tag names the id's own Kind, the raw field is
// that kind's raw id, and meta holds the Entity generation (zero for every
// other kind). For a pair id the kind tag names the *target's* Kind, the
// raw field holds the target's raw id, and meta holds the relation's raw
// id — which is why relation raw ids are bounded to one byte even though
// Entity/Tag/Component raw ids get 20 bits.
type Id uint32

// Kind distinguishes the four identifier roles a packed Id can play.
type Kind uint8

const (
	KindEntity Kind = iota
	KindTag
	KindComponent
	KindRelation
)

func (k Kind) String() string {
	switch k {
	case KindEntity:
		return "entity"
	case KindTag:
		return "tag"
	case KindComponent:
		return "component"
	case KindRelation:
		return "relation"
	default:
		return "invalid"
	}
}

const (
	pairBit    = uint32(1) << 31
	kindShift  = 28
	kindBits   = 0x7
	rawShift   = 8
	rawBits    = 0xFFFFF // 20 bits
	metaBits   = 0xFF    // 8 bits
	MaxRawID   = rawBits // 2^20 - 1, entity/tag/component raw id bound
	MaxRelID   = metaBits
	MaxGen     = metaBits
	relMaxByte = 0xFF
)

// Wildcard is the reserved relation id (raw id 0) that matches "any" in a
// pair term: Pair(Wildcard, t) means "any relation to t", Pair(r, Wildcard)
// means "any target for r".
var Wildcard = mustRelation(0)

func mustRelation(raw uint32) Id {
	id, err := NewRelationID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

func pack(pair bool, kind Kind, raw uint32, meta uint8) Id {
	v := uint32(kind&kindBits) << kindShift
	v |= (raw & rawBits) << rawShift
	v |= uint32(meta)
	if pair {
		v |= pairBit
	}
	return Id(v)
}

// NewEntityID packs a plain Entity id from a raw id and generation.
func NewEntityID(raw uint32, gen uint8) (Id, error) {
	if raw > MaxRawID {
		return 0, limitExceeded("NewEntityID", "raw id %d exceeds %d-bit entity space", raw, 20)
	}
	return pack(false, KindEntity, raw, gen), nil
}

// NewTagID packs a plain Tag id.
func NewTagID(raw uint32) (Id, error) {
	if raw > MaxRawID {
		return 0, limitExceeded("NewTagID", "raw id %d exceeds %d-bit tag space", raw, 20)
	}
	return pack(false, KindTag, raw, 0), nil
}

// NewComponentID packs a plain Component id.
func NewComponentID(raw uint32) (Id, error) {
	if raw > MaxRawID {
		return 0, limitExceeded("NewComponentID", "raw id %d exceeds %d-bit component space", raw, 20)
	}
	return pack(false, KindComponent, raw, 0), nil
}

// NewRelationID packs a plain Relation id. Relation raw ids are bounded to
// one byte because they must also fit in a pair's meta field.
func NewRelationID(raw uint32) (Id, error) {
	if raw > MaxRelID {
		return 0, limitExceeded("NewRelationID", "raw id %d exceeds %d-bit relation space", raw, 8)
	}
	return pack(false, KindRelation, raw, 0), nil
}

// Pair composes a relation and a non-pair target into a pair id, itself a
// valid component id. Pairs cannot target another pair or a relation,
// except for the reserved Wildcard relation itself, which doubles as the
// target half of the (R, Wildcard) "any target for R" companion id.
func Pair(relation, target Id) (Id, error) {
	if relation.IsPair() || relation.Kind() != KindRelation {
		return 0, invalidArgument("Pair", "relation %v is not a plain relation id", relation)
	}
	if target.IsPair() {
		return 0, invalidArgument("Pair", "target %v cannot be a pair", target)
	}
	if target.Kind() == KindRelation && target != Wildcard {
		return 0, invalidArgument("Pair", "target %v cannot be a relation", target)
	}
	return pack(true, target.Kind(), target.RawID(), uint8(relation.RawID())), nil
}

// IsPair reports whether id encodes a (relation, target) pair.
func (id Id) IsPair() bool {
	return uint32(id)&pairBit != 0
}

// Kind returns the id's own kind for a non-pair id, or the target's kind
// for a pair id (the bits mean different things; callers should check
// IsPair first when the distinction matters).
func (id Id) Kind() Kind {
	return Kind((uint32(id) >> kindShift) & kindBits)
}

// RawID returns the 20-bit raw id field: the id's own raw id for a
// non-pair id, or the target's raw id for a pair id.
func (id Id) RawID() uint32 {
	return (uint32(id) >> rawShift) & rawBits
}

// Meta returns the raw 8-bit meta field.
func (id Id) Meta() uint8 {
	return uint8(uint32(id) & metaBits)
}

// Generation returns the meta field interpreted as a generation counter.
// Only meaningful for a non-pair Entity id.
func (id Id) Generation() uint8 {
	return id.Meta()
}

// Relation extracts the relation id out of a pair id.
func (id Id) Relation() (Id, error) {
	if !id.IsPair() {
		return 0, invalidArgument("Relation", "id %v is not a pair", id)
	}
	return NewRelationID(uint32(id.Meta()))
}

// Decode validates a raw uint32 and reports whether it is a well-formed Id:
// for a pair id, the target-kind bits must be Entity, Tag, or Component,
// or Relation with raw id 0 (the Wildcard target of an (R, Wildcard)
// companion id) — not a nested pair, which the pair-flag already rules
// out structurally.
func Decode(raw uint32) (Id, error) {
	id := Id(raw)
	if id.IsPair() {
		switch id.Kind() {
		case KindEntity, KindTag, KindComponent:
		case KindRelation:
			if id.RawID() != 0 {
				return 0, invalidState("Decode", "pair id %#x targets a non-wildcard relation", raw)
			}
		default:
			return 0, invalidState("Decode", "pair id %#x has invalid target-kind bits", raw)
		}
		return id, nil
	}
	switch id.Kind() {
	case KindEntity, KindTag, KindComponent, KindRelation:
		return id, nil
	default:
		return 0, invalidState("Decode", "id %#x has invalid kind bits", raw)
	}
}

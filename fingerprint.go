package fetchsql

import (
	"encoding/binary"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint returns a stable structural hash of the document. Two documents
// that would generate the same SQL for the same clock share a fingerprint, so
// callers can key preview caches without owning a serialization of the model.
func (d *QueryDocument) Fingerprint() uint64 {
	h := xxhash.New()
	hashString(h, d.Collection)
	hashString(h, strconv.Itoa(d.Top))
	hashBool(h, d.Distinct)
	hashAttrs(h, d.Attributes)
	hashGroup(h, d.Filter)
	hashLinks(h, d.Links)
	for _, order := range d.Orders {
		hashString(h, order.Attribute)
		hashBool(h, order.Descending)
	}
	return h.Sum64()
}

func hashString(h *xxhash.Digest, s string) {
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(s)))
	_, _ = h.Write(n[:])
	_, _ = h.WriteString(s)
}

func hashBool(h *xxhash.Digest, b bool) {
	if b {
		_, _ = h.Write([]byte{1})
		return
	}
	_, _ = h.Write([]byte{0})
}

func hashAttrs(h *xxhash.Digest, attrs []*AttributeSpec) {
	for _, attr := range attrs {
		hashString(h, attr.Name)
		hashString(h, attr.Alias)
		hashString(h, string(attr.Aggregate))
		hashBool(h, attr.GroupBy)
	}
}

func hashGroup(h *xxhash.Digest, group *FilterGroup) {
	if group == nil {
		hashString(h, "")
		return
	}
	hashString(h, string(group.Combinator))
	for _, item := range group.Items {
		switch node := item.(type) {
		case *Condition:
			hashString(h, "c")
			hashString(h, node.Attribute)
			hashString(h, string(node.Operator))
			for _, v := range node.Values {
				hashString(h, v)
			}
		case *FilterGroup:
			hashString(h, "g")
			hashGroup(h, node)
		}
	}
}

func hashLinks(h *xxhash.Digest, links []*LinkedEntity) {
	for _, link := range links {
		hashString(h, link.Name)
		hashString(h, link.From)
		hashString(h, link.To)
		hashString(h, string(link.Kind))
		hashString(h, link.Alias)
		hashAttrs(h, link.Attributes)
		hashGroup(h, link.Filter)
		hashLinks(h, link.Links)
	}
}

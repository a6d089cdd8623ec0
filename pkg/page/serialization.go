package page

import (
	"fmt"

	"treestore/pkg/encoding"
)

// SerializationType selects the codec variant a page is written with.
// Regular storage and the transaction intent log version their formats
// independently, so the type travels with every serialize call.
type SerializationType byte

const (
	// Data is the regular storage format.
	Data SerializationType = iota

	// TransactionIntentLog is the format of uncommitted pages in the
	// intent log.
	TransactionIntentLog
)

// SerializeBitSet writes a sparse slot bitmap: the word count as a
// varlong, then the 64-bit words with trailing zero words trimmed.
func (t SerializationType) SerializeBitSet(w *encoding.Writer, b *encoding.BitSet) error {
	words := b.Words()
	if err := w.WriteVarLong(uint64(len(words))); err != nil {
		return err
	}
	for _, word := range words {
		if err := w.WriteInt64(int64(word)); err != nil {
			return err
		}
	}
	return nil
}

// DeserializeBitSet reads a bitmap written by SerializeBitSet.
func (t SerializationType) DeserializeBitSet(r *encoding.Reader) (*encoding.BitSet, error) {
	count, err := r.ReadVarLong()
	if err != nil {
		return nil, err
	}
	if count > SlotsPerPage/64+1 {
		return nil, fmt.Errorf("bitmap of %d words exceeds page capacity", count)
	}
	words := make([]uint64, count)
	for i := range words {
		word, err := r.ReadInt64()
		if err != nil {
			return nil, err
		}
		words[i] = uint64(word)
	}
	return encoding.BitSetFromWords(words), nil
}

// Package logreader extracts typed values from raw EVM event logs following
// the 32-byte word layout of the ABI encoding.
package logreader

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"

	"daoTracker/internal/model"
)

const wordSize = 32

// Variable marks a data section whose length is not fixed.
const Variable = -1

var (
	ErrShapeMismatch = errors.New("logreader: shape mismatch")
	ErrOutOfBounds   = errors.New("logreader: out of bounds")
	ErrInvalidText   = errors.New("logreader: invalid utf-8 text")
)

// Reader consumes indexed topics first, then data words, in declaration order.
type Reader struct {
	log    RawLog
	topics int
	words  int

	nextTopic int
	nextWord  int
}

// New builds a Reader for a log declared with the given number of indexed
// parameters and data words. words may be Variable.
func New(log RawLog, topics int, words int) (*Reader, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("%w: missing topic0", ErrShapeMismatch)
	}
	if got := len(log.Topics) - 1; got < topics {
		return nil, fmt.Errorf("%w: expected %d indexed topics, got %d", ErrShapeMismatch, topics, got)
	}
	if words != Variable && len(log.Data) < words*wordSize {
		return nil, fmt.Errorf("%w: expected %d data words, got %d bytes", ErrShapeMismatch, words, len(log.Data))
	}
	return &Reader{log: log, topics: topics, words: words}, nil
}

// next returns the next unread topic, or the next data word once topics are exhausted.
func (r *Reader) next() ([]byte, error) {
	if r.nextTopic < r.topics {
		r.nextTopic++
		return r.log.Topics[r.nextTopic].Bytes(), nil
	}
	return r.nextDataWord()
}

func (r *Reader) nextDataWord() ([]byte, error) {
	if r.words != Variable && r.nextWord >= r.words {
		return nil, fmt.Errorf("%w: data word %d beyond declared %d", ErrShapeMismatch, r.nextWord, r.words)
	}
	word, err := r.wordAt(r.nextWord * wordSize)
	if err != nil {
		return nil, err
	}
	r.nextWord++
	return word, nil
}

func (r *Reader) wordAt(offset int) ([]byte, error) {
	if offset < 0 || offset+wordSize > len(r.log.Data) {
		return nil, fmt.Errorf("%w: word at %d, data is %d bytes", ErrOutOfBounds, offset, len(r.log.Data))
	}
	return r.log.Data[offset : offset+wordSize], nil
}

// Address reads a right-aligned 20-byte address.
func (r *Reader) Address() (common.Address, error) {
	word, err := r.next()
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(word[wordSize-common.AddressLength:]), nil
}

// Value reads a 256-bit unsigned integer.
func (r *Reader) Value() (model.Amount, error) {
	word, err := r.next()
	if err != nil {
		return model.Amount{}, err
	}
	return model.AmountFromBytes(word), nil
}

// Bool reads a word, nonzero meaning true.
func (r *Reader) Bool() (bool, error) {
	word, err := r.next()
	if err != nil {
		return false, err
	}
	for _, b := range word {
		if b != 0 {
			return true, nil
		}
	}
	return false, nil
}

// Text reads a dynamic string located through an offset word.
func (r *Reader) Text() (string, error) {
	start, length, err := r.dynamic(1)
	if err != nil {
		return "", err
	}
	raw := r.log.Data[start : start+length]
	if !utf8.Valid(raw) {
		return "", ErrInvalidText
	}
	return string(raw), nil
}

// Addresses reads a dynamic array of right-aligned addresses.
func (r *Reader) Addresses() ([]common.Address, error) {
	start, count, err := r.dynamic(wordSize)
	if err != nil {
		return nil, err
	}
	out := make([]common.Address, 0, count)
	for i := 0; i < count; i++ {
		word := r.log.Data[start+i*wordSize : start+(i+1)*wordSize]
		out = append(out, common.BytesToAddress(word[wordSize-common.AddressLength:]))
	}
	return out, nil
}

// dynamic resolves the offset word and the length prefix of a dynamic value.
// The returned region of length*elemSize bytes lies inside the log data.
func (r *Reader) dynamic(elemSize int) (int, int, error) {
	word, err := r.nextDataWord()
	if err != nil {
		return 0, 0, err
	}
	offset, err := wordToInt(word)
	if err != nil {
		return 0, 0, err
	}
	lengthWord, err := r.wordAt(offset)
	if err != nil {
		return 0, 0, err
	}
	length, err := wordToInt(lengthWord)
	if err != nil {
		return 0, 0, err
	}
	start := offset + wordSize
	if length > (len(r.log.Data)-start)/elemSize {
		return 0, 0, fmt.Errorf("%w: dynamic length %d at %d, data is %d bytes", ErrOutOfBounds, length, start, len(r.log.Data))
	}
	return start, length, nil
}

func wordToInt(word []byte) (int, error) {
	v, ok := model.AmountFromBytes(word).Uint64()
	if !ok || v > math.MaxInt32 {
		return 0, fmt.Errorf("%w: word does not fit an offset", ErrOutOfBounds)
	}
	return int(v), nil
}

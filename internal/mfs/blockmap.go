package mfs

import "fmt"

const (
	// first allocation block number; blocks 0 and 1 do not exist on MFS
	firstBlock = 2

	blockFree = 0
	blockLast = 1
)

// blockMap holds the 12-bit allocation block map entries, indexed by block-2
type blockMap []uint16

func parseBlockMap(buf []byte, count int) (blockMap, error) {
	need := (count*12 + 7) / 8
	if len(buf) < need {
		return nil, fmt.Errorf("allocation block map truncated: %w", ErrCorrupt)
	}
	m := make(blockMap, count)
	for i := 0; i < count; i++ {
		o := i * 3 / 2
		if i%2 == 0 {
			m[i] = uint16(buf[o])<<4 | uint16(buf[o+1])>>4
		} else {
			m[i] = uint16(buf[o]&0x0F)<<8 | uint16(buf[o+1])
		}
	}
	return m, nil
}

func (m blockMap) next(block uint16) (uint16, error) {
	i := int(block) - firstBlock
	if i < 0 || i >= len(m) {
		return 0, fmt.Errorf("allocation block %d out of range: %w", block, ErrCorrupt)
	}
	return m[i], nil
}

// chain follows the map from start and returns the blocks holding length bytes.
func (m blockMap) chain(start uint16, length int64, blockSize uint32) ([]uint16, error) {
	if length <= 0 {
		return nil, nil
	}
	want := int((length + int64(blockSize) - 1) / int64(blockSize))
	if want > len(m) {
		return nil, fmt.Errorf("fork of %d bytes larger than volume: %w", length, ErrCorrupt)
	}
	blocks := make([]uint16, 0, want)
	block := start
	for len(blocks) < want {
		if block < firstBlock {
			return nil, fmt.Errorf("allocation chain ends after %d of %d blocks: %w", len(blocks), want, ErrCorrupt)
		}
		blocks = append(blocks, block)
		next, err := m.next(block)
		if err != nil {
			return nil, err
		}
		if next == blockFree {
			return nil, fmt.Errorf("allocation chain reaches free block after %d: %w", block, ErrCorrupt)
		}
		block = next
	}
	return blocks, nil
}

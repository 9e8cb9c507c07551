package mfs

import (
	"encoding/binary"
	"fmt"
)

const (
	resourceHeaderSize = 16

	// offsets inside the resource map
	resourceMapTypeList = 24
	resourceMapNameList = 26

	resourceTypeEntrySize = 8
	resourceRefEntrySize  = 12
)

// resource is a single entry of a resource fork
type resource struct {
	ID   int16
	Name string
	Data []byte
}

// parseResources returns every resource of the given type in map order.
func parseResources(fork []byte, typ string) ([]resource, error) {
	if len(fork) < resourceHeaderSize {
		return nil, nil
	}
	be := binary.BigEndian
	dataOff := int(be.Uint32(fork[0:]))
	mapOff := int(be.Uint32(fork[4:]))
	if mapOff+resourceMapNameList+2 > len(fork) || dataOff > len(fork) {
		return nil, fmt.Errorf("resource map outside fork: %w", ErrCorrupt)
	}
	typeList := mapOff + int(be.Uint16(fork[mapOff+resourceMapTypeList:]))
	nameList := mapOff + int(be.Uint16(fork[mapOff+resourceMapNameList:]))
	if typeList+2 > len(fork) {
		return nil, fmt.Errorf("resource type list outside fork: %w", ErrCorrupt)
	}
	// the stored count is one less than the number of types
	nTypes := (int(be.Uint16(fork[typeList:])) + 1) & 0xFFFF

	var out []resource
	for i := 0; i < nTypes; i++ {
		entry := typeList + 2 + i*resourceTypeEntrySize
		if entry+resourceTypeEntrySize > len(fork) {
			return nil, fmt.Errorf("resource type entry %d outside fork: %w", i, ErrCorrupt)
		}
		if string(fork[entry:entry+4]) != typ {
			continue
		}
		count := int(be.Uint16(fork[entry+4:])) + 1
		refs := typeList + int(be.Uint16(fork[entry+6:]))
		for j := 0; j < count; j++ {
			ref := refs + j*resourceRefEntrySize
			if ref+resourceRefEntrySize > len(fork) {
				return nil, fmt.Errorf("resource reference %d outside fork: %w", j, ErrCorrupt)
			}
			res := resource{ID: int16(be.Uint16(fork[ref:]))}
			if nameOff := int16(be.Uint16(fork[ref+2:])); nameOff >= 0 {
				at := nameList + int(nameOff)
				if at >= len(fork) || at+1+int(fork[at]) > len(fork) {
					return nil, fmt.Errorf("resource %d name outside fork: %w", res.ID, ErrCorrupt)
				}
				res.Name = string(fork[at+1 : at+1+int(fork[at])])
			}
			at := dataOff + int(be.Uint32(fork[ref+4:])&0x00FFFFFF)
			if at+4 > len(fork) {
				return nil, fmt.Errorf("resource %d data outside fork: %w", res.ID, ErrCorrupt)
			}
			n := int(be.Uint32(fork[at:]))
			if at+4+n > len(fork) {
				return nil, fmt.Errorf("resource %d data overruns fork: %w", res.ID, ErrCorrupt)
			}
			res.Data = fork[at+4 : at+4+n]
			out = append(out, res)
		}
	}
	return out, nil
}

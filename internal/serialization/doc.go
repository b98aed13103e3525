// Package serialization reads and writes label maps and other tensors in the
// SafeTensors format:
//
//	[8 bytes: header size (uint64 LE)]
//	[header: JSON, tensor name -> {dtype, shape, data_offsets}, plus __metadata__]
//	[tensor data: raw little-endian bytes]
//
// Files written by this package carry a SHA-256 checksum of the data section in
// their metadata; ReadSafeTensors verifies it when present.
//
// Example usage:
//
//	err := serialization.WriteSafeTensors("seg.safetensors",
//	    map[string]*tensor.RawTensor{"seg": seg}, nil)
//
//	tensors, metadata, err := serialization.ReadSafeTensors("seg.safetensors")
package serialization

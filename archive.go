package huffman

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/nemuru-pigeon/huffman/bitstream"
)

const (
	archiveMagic   = "HUFA"
	archiveVersion = uint16(1)

	stageFrequencies = "frequencies"
	stageBitstream   = "bitstream"

	stageBitstreamParamRaw   = uint8(1) // uvarint bit length + packed bits
	stageBitstreamParamFlate = uint8(2) // flate(raw payload)

	maxArchiveStages     = 64
	maxStagePayloadBytes = 1 << 30 // 1 GiB
)

// Wire format (version 1):
//
//	magic[4] = "HUFA"
//	version  = uint16 little-endian
//	stageCnt = uint16 little-endian
//	repeat stageCnt times:
//	  nameLen  = uint8
//	  paramLen = uint16 little-endian
//	  dataLen  = uint32 little-endian
//	  name     = nameLen bytes
//	  params   = paramLen bytes
//	  payload  = dataLen bytes
//
// Required stage names:
//
//	frequencies, bitstream
//
// Unknown stages are skipped via dataLen framing.
type wireStageHeader struct {
	name     string
	paramLen uint16
	dataLen  uint32
}

// ErrInvalidArchive indicates an archive that is incomplete or malformed.
var ErrInvalidArchive = errors.New("invalid archive")

// writeAll writes parts in order and reports the bytes written.
func writeAll(w io.Writer, parts ...[]byte) (int64, error) {
	var total int64
	for _, p := range parts {
		n, err := w.Write(p)
		total += int64(n)
		if err == nil && n < len(p) {
			err = io.ErrShortWrite
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func writeStage(w io.Writer, name string, params []byte, payload []byte) (int64, error) {
	if len(name) == 0 || len(name) > 255 {
		return 0, fmt.Errorf("invalid stage name length: %d", len(name))
	}
	if len(params) > int(^uint16(0)) {
		return 0, fmt.Errorf("stage params too large for %q: %d", name, len(params))
	}
	if len(payload) > maxStagePayloadBytes {
		return 0, fmt.Errorf("stage payload too large for %q: %d", name, len(payload))
	}

	var hdr [7]byte
	hdr[0] = uint8(len(name))
	binary.LittleEndian.PutUint16(hdr[1:3], uint16(len(params)))
	binary.LittleEndian.PutUint32(hdr[3:7], uint32(len(payload)))

	return writeAll(w, hdr[:], []byte(name), params, payload)
}

func readStageHeader(r io.Reader) (wireStageHeader, int64, error) {
	var hdr [7]byte
	n, err := io.ReadFull(r, hdr[:])
	total := int64(n)
	if err != nil {
		return wireStageHeader{}, total, err
	}
	nameLen := int(hdr[0])
	if nameLen == 0 {
		return wireStageHeader{}, total, fmt.Errorf("stage name length must be > 0")
	}
	dataLen := binary.LittleEndian.Uint32(hdr[3:7])
	if dataLen > uint32(maxStagePayloadBytes) {
		return wireStageHeader{}, total, fmt.Errorf("stage payload too large: %d", dataLen)
	}

	name := make([]byte, nameLen)
	n, err = io.ReadFull(r, name)
	total += int64(n)
	if err != nil {
		return wireStageHeader{}, total, err
	}

	return wireStageHeader{
		name:     string(name),
		paramLen: binary.LittleEndian.Uint16(hdr[1:3]),
		dataLen:  dataLen,
	}, total, nil
}

// Archive holds an encoded bitstream together with the frequency table its
// code was built from. The table is enough to rebuild the identical tree.
type Archive[S comparable] struct {
	Frequencies *FrequencyTable[S]
	Bits        *bitstream.Bitstream

	codec SymbolCodec[S]
}

// NewArchive returns an empty archive that serializes symbols with codec,
// ready for ReadFrom.
func NewArchive[S comparable](codec SymbolCodec[S]) *Archive[S] {
	return &Archive[S]{codec: codec}
}

// EncodeArchive encodes seq with the model and packages the result with the
// model's frequency table.
func (m *Model[S]) EncodeArchive(seq []S, codec SymbolCodec[S]) (*Archive[S], error) {
	bits, err := m.Encode(seq)
	if err != nil {
		return nil, err
	}
	return &Archive[S]{Frequencies: m.table.Clone(), Bits: bits, codec: codec}, nil
}

// Model rebuilds the model the archive was encoded with.
func (a *Archive[S]) Model() (*Model[S], error) {
	if a.Frequencies == nil {
		return nil, fmt.Errorf("%w: missing frequency table", ErrInvalidArchive)
	}
	return ModelFromTable(a.Frequencies)
}

// Decode rebuilds the tree from the stored table and decodes the bitstream.
func (a *Archive[S]) Decode() ([]S, error) {
	m, err := a.Model()
	if err != nil {
		return nil, err
	}
	return m.Decode(a.Bits)
}

// SpaceUsed returns the serialized size of the archive in bytes.
func (a *Archive[S]) SpaceUsed() (int64, error) {
	return a.WriteTo(io.Discard)
}

func validateArchive[S comparable](a *Archive[S]) error {
	if a.codec == nil {
		return errors.New("missing symbol codec")
	}
	if a.Frequencies.Len() == 0 {
		return fmt.Errorf("frequency table: %w", ErrEmptyAlphabet)
	}
	if a.Bits == nil {
		return errors.New("missing bitstream")
	}
	return nil
}

func encodeBitstreamStage(bits *bitstream.Bitstream) ([]byte, uint8, error) {
	var raw bytes.Buffer
	if _, err := bits.WriteTo(&raw); err != nil {
		return nil, 0, err
	}
	if raw.Len() > maxStagePayloadBytes {
		return nil, 0, fmt.Errorf("bitstream too large: %d bytes", raw.Len())
	}

	compressed, err := deflate(raw.Bytes())
	if err != nil {
		return nil, 0, err
	}
	if len(compressed) < raw.Len() {
		return compressed, stageBitstreamParamFlate, nil
	}
	return raw.Bytes(), stageBitstreamParamRaw, nil
}

func deflate(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil, err
	}
	_, err = zw.Write(raw)
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	return buf.Bytes(), err
}

// inflate decompresses payload, failing once the output exceeds limit bytes.
func inflate(payload []byte, limit int64) ([]byte, error) {
	zr := flate.NewReader(bytes.NewReader(payload))
	defer zr.Close()

	raw, err := io.ReadAll(io.LimitReader(zr, limit+1))
	switch {
	case err != nil:
		return nil, fmt.Errorf("inflate bitstream: %w", err)
	case int64(len(raw)) > limit:
		return nil, fmt.Errorf("inflated bitstream exceeds %d bytes", limit)
	}
	return raw, nil
}

func decodeBitstreamStage(params []byte, payload []byte) (*bitstream.Bitstream, error) {
	if len(params) != 1 {
		return nil, fmt.Errorf("invalid params length: %d", len(params))
	}
	raw := payload
	switch params[0] {
	case stageBitstreamParamRaw:
	case stageBitstreamParamFlate:
		var err error
		if raw, err = inflate(payload, maxStagePayloadBytes); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported bitstream encoding: %d", params[0])
	}

	// the declared length must fit the payload before anything is allocated
	nbits, k := binary.Uvarint(raw)
	if k <= 0 {
		return nil, fmt.Errorf("%w: bad bit length", bitstream.ErrInvalidLength)
	}
	if nbits > uint64(len(raw)-k)*8 {
		return nil, fmt.Errorf("%w: %d bits in %d payload bytes", bitstream.ErrInvalidLength, nbits, len(raw)-k)
	}

	bits := &bitstream.Bitstream{}
	n, err := bits.ReadFrom(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	if n != int64(len(raw)) {
		return nil, fmt.Errorf("%d trailing bytes after bitstream", int64(len(raw))-n)
	}
	return bits, nil
}

// WriteTo serializes the archive.
func (a *Archive[S]) WriteTo(w io.Writer) (int64, error) {
	if err := validateArchive(a); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidArchive, err)
	}

	bitsPayload, bitsParam, err := encodeBitstreamStage(a.Bits)
	if err != nil {
		return 0, err
	}
	freqPayload := AppendFrequencies(nil, a.Frequencies, a.codec)

	stages := []struct {
		name    string
		params  []byte
		payload []byte
	}{
		{name: stageFrequencies, payload: freqPayload},
		{name: stageBitstream, params: []byte{bitsParam}, payload: bitsPayload},
	}

	var hdr [8]byte
	copy(hdr[:4], archiveMagic)
	binary.LittleEndian.PutUint16(hdr[4:6], archiveVersion)
	binary.LittleEndian.PutUint16(hdr[6:8], uint16(len(stages)))
	total, err := writeAll(w, hdr[:])
	if err != nil {
		return total, err
	}

	for _, stage := range stages {
		n, err := writeStage(w, stage.name, stage.params, stage.payload)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ReadFrom deserializes an archive, replacing the contents of a.
// The archive must have been created with NewArchive or EncodeArchive.
func (a *Archive[S]) ReadFrom(r io.Reader) (int64, error) {
	if a.codec == nil {
		return 0, fmt.Errorf("%w: missing symbol codec", ErrInvalidArchive)
	}

	var hdr [8]byte
	n, err := io.ReadFull(r, hdr[:])
	total := int64(n)
	if err != nil {
		return total, fmt.Errorf("read archive header at offset 0: %w", err)
	}
	if string(hdr[:4]) != archiveMagic {
		return total, fmt.Errorf("%w: bad magic %q", ErrInvalidArchive, string(hdr[:4]))
	}
	if version := binary.LittleEndian.Uint16(hdr[4:6]); version != archiveVersion {
		return total, fmt.Errorf("%w: unsupported version %d", ErrInvalidArchive, version)
	}
	stageCount := binary.LittleEndian.Uint16(hdr[6:8])
	if stageCount == 0 || stageCount > maxArchiveStages {
		return total, fmt.Errorf("%w: invalid stage count %d", ErrInvalidArchive, stageCount)
	}

	tmp := Archive[S]{codec: a.codec}
	seen := make(map[string]bool, stageCount)
	for i := 0; i < int(stageCount); i++ {
		headerOffset := total
		header, n, err := readStageHeader(r)
		total += n
		if err != nil {
			return total, fmt.Errorf("read stage header at offset %d (stage index %d): %w", headerOffset, i, err)
		}
		if seen[header.name] {
			return total, fmt.Errorf("%w: duplicate stage %q at stage index %d", ErrInvalidArchive, header.name, i)
		}

		params := make([]byte, header.paramLen)
		nParams, err := io.ReadFull(r, params)
		total += int64(nParams)
		if err != nil {
			return total, fmt.Errorf("read stage %q params (stage index %d): %w", header.name, i, err)
		}

		switch header.name {
		case stageFrequencies, stageBitstream:
			payloadOffset := total
			payload := make([]byte, header.dataLen)
			nPayload, err := io.ReadFull(r, payload)
			total += int64(nPayload)
			if err != nil {
				return total, fmt.Errorf("read stage %q payload at offset %d (stage index %d): %w", header.name, payloadOffset, i, err)
			}

			if header.name == stageFrequencies {
				tmp.Frequencies, err = DecodeFrequencies(payload, a.codec)
			} else {
				tmp.Bits, err = decodeBitstreamStage(params, payload)
			}
			if err != nil {
				return total, fmt.Errorf("decode stage %q at offset %d (stage index %d): %w", header.name, payloadOffset, i, err)
			}
			seen[header.name] = true

		default:
			skipped, err := io.CopyN(io.Discard, r, int64(header.dataLen))
			total += skipped
			if err != nil {
				return total, fmt.Errorf("skip unknown stage %q (stage index %d): %w", header.name, i, err)
			}
		}
	}

	for _, name := range []string{stageFrequencies, stageBitstream} {
		if !seen[name] {
			return total, fmt.Errorf("%w: missing required stage %q", ErrInvalidArchive, name)
		}
	}
	if err := validateArchive(&tmp); err != nil {
		return total, fmt.Errorf("%w: %w", ErrInvalidArchive, err)
	}

	*a = tmp
	return total, nil
}

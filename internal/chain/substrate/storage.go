package substrate

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/Apillon/apillon-services-sub004/internal/domain/model"
	"github.com/cespare/xxhash/v2"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

var (
	ErrInvalidAddress = errors.New("invalid ss58 address")

	ss58Prefix = []byte("SS58PRE")
)

// DecodeSS58 returns the network prefix and 32-byte public key of an SS58
// address, verifying the 2-byte checksum.
func DecodeSS58(address string) (uint16, []byte, error) {
	raw, err := base58.Decode(strings.TrimSpace(address))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	var prefix uint16
	var prefixLen int
	switch {
	case len(raw) == 0:
		return 0, nil, ErrInvalidAddress
	case raw[0] < 64:
		prefix, prefixLen = uint16(raw[0]), 1
	case raw[0] < 128:
		if len(raw) < 2 {
			return 0, nil, ErrInvalidAddress
		}
		lower := (raw[0] << 2) | (raw[1] >> 6)
		upper := raw[1] & 0x3f
		prefix, prefixLen = uint16(lower)|uint16(upper)<<8, 2
	default:
		return 0, nil, fmt.Errorf("%w: reserved prefix byte %d", ErrInvalidAddress, raw[0])
	}

	if len(raw) != prefixLen+32+2 {
		return 0, nil, fmt.Errorf("%w: length %d", ErrInvalidAddress, len(raw))
	}
	body := raw[:prefixLen+32]
	sum := blake2b.Sum512(append(append([]byte{}, ss58Prefix...), body...))
	if sum[0] != raw[len(raw)-2] || sum[1] != raw[len(raw)-1] {
		return 0, nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidAddress)
	}
	return prefix, append([]byte{}, raw[prefixLen:prefixLen+32]...), nil
}

// twox128 is the 128-bit xxhash storage hasher: two xxh64 digests with
// seeds 0 and 1, little-endian.
func twox128(data []byte) []byte {
	out := make([]byte, 16)
	for seed := uint64(0); seed < 2; seed++ {
		d := xxhash.NewWithSeed(seed)
		_, _ = d.Write(data)
		binary.LittleEndian.PutUint64(out[seed*8:], d.Sum64())
	}
	return out
}

func blake2128Concat(data []byte) []byte {
	h, _ := blake2b.New(16, nil)
	_, _ = h.Write(data)
	return append(h.Sum(nil), data...)
}

// SystemAccountKey returns the hex storage key of System.Account for pubkey.
func SystemAccountKey(pubkey []byte) string {
	key := make([]byte, 0, 32+16+len(pubkey))
	key = append(key, twox128([]byte("System"))...)
	key = append(key, twox128([]byte("Account"))...)
	key = append(key, blake2128Concat(pubkey)...)
	return "0x" + hex.EncodeToString(key)
}

// DecodeFreeBalance extracts data.free from a SCALE-encoded AccountInfo:
// nonce, consumers, providers and sufficients (u32 each) precede the u128
// free balance.
func DecodeFreeBalance(storageHex string) (model.Amount, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(storageHex, "0x"))
	if err != nil {
		return model.Amount{}, fmt.Errorf("decode account info: %w", err)
	}
	if len(raw) < 32 {
		return model.Amount{}, fmt.Errorf("decode account info: short value (%d bytes)", len(raw))
	}
	le := raw[16:32]
	be := make([]byte, len(le))
	for i := range le {
		be[len(le)-1-i] = le[i]
	}
	return model.AmountFromBig(new(big.Int).SetBytes(be))
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mactalk

import (
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := time.Now().UnixNano()
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if s, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			seed = s
		}
	}
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

func TestFuzz_ReadResponseRoundTrip(t *testing.T) {
	rng := newFuzzRng(t)
	for round := 0; round < getFuzzRounds(); round++ {
		register := uint8(rng.Intn(256))
		var data [4]byte
		rng.Read(data[:])

		out, err := DecodeReadResponse(EncodeReadResponse(register, data), register)
		if err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		if out != data {
			t.Fatalf("round %d: got % X, want % X", round, out, data)
		}
	}
}

func TestFuzz_RandomBytesNeverPanic(t *testing.T) {
	rng := newFuzzRng(t)
	for round := 0; round < getFuzzRounds(); round++ {
		frame := make([]byte, rng.Intn(2*ReadResponseSize))
		rng.Read(frame)

		// The result does not matter, only that random input is rejected cleanly.
		_, err := DecodeReadResponse(frame, uint8(rng.Intn(256)))
		if err != nil && KindOf(err) == KindUnknown {
			t.Fatalf("round %d: untyped error %v", round, err)
		}
		_ = DecodeWriteResponse(frame)
		_ = DescribeFrame(frame)
	}
}

func TestFuzz_CorruptedComplementDetected(t *testing.T) {
	rng := newFuzzRng(t)
	for round := 0; round < getFuzzRounds(); round++ {
		var data [4]byte
		rng.Read(data[:])
		frame := EncodeReadResponse(0x10, data)

		// Corrupt one byte of the data section with a non-zero mask.
		idx := 9 + rng.Intn(8)
		frame[idx] ^= byte(1 + rng.Intn(255))

		_, err := DecodeReadResponse(frame, 0x10)
		if KindOf(err) != KindInvalidComplement {
			t.Fatalf("round %d: byte %d corruption gave %v", round, idx, err)
		}
	}
}

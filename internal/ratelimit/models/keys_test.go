package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateKey(t *testing.T) {
	t.Run("layout", func(t *testing.T) {
		assert.Equal(t, "rate:u1:202503151004", RateKey("u1", "202503151004"))
	})

	t.Run("client partitions are independent of user partitions", func(t *testing.T) {
		assert.NotEqual(t, RateKey("client-a", "20250315"), RateKey("user-a", "20250315"))
	})

	t.Run("colon in partition cannot forge a window segment", func(t *testing.T) {
		// Without sanitization these two would collide.
		forged := RateKey("u1:202503151004", "x")
		honest := RateKey("u1", "202503151004:x")
		assert.NotEqual(t, forged, honest)
	})

	t.Run("underscore escaping keeps distinct inputs distinct", func(t *testing.T) {
		assert.NotEqual(t, RateKey("u_:1", "w"), RateKey("u__c1", "w"))
	})
}

func TestGuardKey(t *testing.T) {
	t.Run("layout", func(t *testing.T) {
		assert.Equal(t, "auth:limit:203.0.113.7", GuardKey("203.0.113.7"))
	})

	t.Run("ipv6 colons are escaped", func(t *testing.T) {
		assert.Equal(t, "auth:limit:2001_cdb8_c_c1", GuardKey("2001:db8::1"))
	})
}

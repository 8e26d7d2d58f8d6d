package chain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	t.Run("reads the flag from an ActionError", func(t *testing.T) {
		assert.True(t, IsTransient(NewTransient("swap", errors.New("таймаут"))))
		assert.False(t, IsTransient(NewPermanent("swap", errors.New("отказ"))))
	})

	t.Run("wrapped errors keep their classification", func(t *testing.T) {
		inner := NewPermanent("mint", errors.New("отказ"))
		wrapped := fmt.Errorf("попытка 3: %w", inner)
		assert.False(t, IsTransient(wrapped))
	})

	t.Run("unknown errors count as transient", func(t *testing.T) {
		assert.True(t, IsTransient(errors.New("что-то пошло не так")))
	})
}

func TestActionErrorUnwrap(t *testing.T) {
	inner := errors.New("недостаточно средств")
	err := NewPermanent("transfer", inner)

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "transfer")
}

func TestClassifySendErr(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		transient bool
	}{
		{"insufficient funds is permanent", errors.New("insufficient funds for gas * price + value"), false},
		{"execution reverted is permanent", errors.New("execution reverted: ERC20: transfer amount exceeds balance"), false},
		{"invalid address is permanent", errors.New("invalid address in call"), false},
		{"connection refused is transient", errors.New("dial tcp: connection refused"), true},
		{"nonce too low is transient", errors.New("nonce too low"), true},
		{"timeout is transient", errors.New("context deadline exceeded"), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			classified := classifySendErr("swap", tc.err)
			assert.Equal(t, tc.transient, IsTransient(classified))
			assert.ErrorIs(t, classified, tc.err)
		})
	}
}

package message

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tradeID, userID := uuid.New(), uuid.New()
	m := New(tradeID, userID, "hola")

	require.NotNil(t, m)
	assert.NotEqual(t, uuid.Nil, m.ID)
	assert.Equal(t, tradeID, m.TradeID)
	assert.Equal(t, userID, m.UserID)
	assert.Equal(t, "hola", m.Content)
}

func TestValidateContent(t *testing.T) {
	assert.NoError(t, ValidateContent("hola"))
	assert.Error(t, ValidateContent(""))
	assert.Error(t, ValidateContent("   "))
	assert.Error(t, ValidateContent(strings.Repeat("a", 2001)))

	// limit counts characters, not bytes
	assert.NoError(t, ValidateContent(strings.Repeat("ñ", 2000)))
	assert.Error(t, ValidateContent(strings.Repeat("ñ", 2001)))
}

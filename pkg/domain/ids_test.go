package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "baranex/pkg/domain"
	dErrors "baranex/pkg/domain-errors"
)

func TestParseBarangayID(t *testing.T) {
	t.Run("valid uuid parses", func(t *testing.T) {
		want := id.NewBarangayID()
		got, err := id.ParseBarangayID(want.String())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("empty input is invalid", func(t *testing.T) {
		_, err := id.ParseBarangayID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("garbage is invalid", func(t *testing.T) {
		_, err := id.ParseBarangayID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("nil uuid is rejected", func(t *testing.T) {
		_, err := id.ParseBarangayID("00000000-0000-0000-0000-000000000000")
		require.Error(t, err)
	})
}

func TestIDsAreDistinctTypes(t *testing.T) {
	barangayID := id.NewBarangayID()
	userID := id.NewUserID()
	assert.NotEqual(t, barangayID.String(), userID.String())
	assert.False(t, barangayID.IsNil())
	assert.True(t, id.BarangayID{}.IsNil())
}

func TestJSONRoundTrip(t *testing.T) {
	type payload struct {
		Request id.RequestID  `json:"request"`
		Items   []id.RecordID `json:"items"`
	}
	in := payload{
		Request: id.NewRequestID(),
		Items:   []id.RecordID{id.NewRecordID(), id.NewRecordID()},
	}

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), in.Request.String(), "ids serialize as canonical uuid strings")

	var out payload
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}

func TestUnmarshalRejectsInvalid(t *testing.T) {
	var rid id.RequestID
	err := json.Unmarshal([]byte(`"bogus"`), &rid)
	require.Error(t, err)
}

package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabels_Decode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Labels
	}{
		{name: "array", in: `["bug","api"]`, want: Labels{"bug", "api"}},
		{name: "null", in: `null`, want: nil},
		{name: "encoded array string", in: `"[\"bug\",\"urgent\"]"`, want: Labels{"bug", "urgent"}},
		{name: "comma separated", in: `"bug, api ,,design"`, want: Labels{"bug", "api", "design"}},
		{name: "empty string", in: `""`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Labels
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLabels_EncodeIsAlwaysArray(t *testing.T) {
	data, err := json.Marshal(Labels{"bug"})
	require.NoError(t, err)
	assert.JSONEq(t, `["bug"]`, string(data))

	data, err = json.Marshal(Labels(nil))
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestPosition_AcceptsNumberAndString(t *testing.T) {
	var card struct {
		A Position `json:"a"`
		B Position `json:"b"`
		C Position `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 3, "b": "1.5", "c": null}`), &card))
	assert.Equal(t, Position(3), card.A)
	assert.Equal(t, Position(1.5), card.B)
	assert.Equal(t, Position(0), card.C)

	var bad Position
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &bad))
}

func TestPosition_RejectsNonFinite(t *testing.T) {
	for _, in := range []string{`"NaN"`, `"nan"`, `"Inf"`, `"-Inf"`, `"+infinity"`} {
		var p Position
		assert.Error(t, json.Unmarshal([]byte(in), &p), in)
	}

	var huge Position
	assert.Error(t, json.Unmarshal([]byte(`"1e999"`), &huge), "out of range")
}

func TestCard_DecodesLegacyBoardPayload(t *testing.T) {
	payload := `{
		"id": "c1",
		"title": "Write docs",
		"description": null,
		"position": "2",
		"column_id": "col1",
		"due_date": "2025-03-01",
		"labels": "[\"documentation\"]",
		"checklist": null,
		"attachments": null,
		"inserted_at": "2025-01-01T10:00:00",
		"updated_at": "2025-01-02T10:00:00Z"
	}`

	var c Card
	require.NoError(t, json.Unmarshal([]byte(payload), &c))
	assert.Equal(t, Position(2), c.Position)
	assert.Equal(t, Labels{"documentation"}, c.Labels)
	require.NotNil(t, c.DueDate)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), c.DueDate.Time)
	assert.Equal(t, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), c.InsertedAt.Time)
}

func TestIsTempID(t *testing.T) {
	assert.True(t, IsTempID("temp-abc"))
	assert.False(t, IsTempID("abc"))
	assert.False(t, IsTempID(""))
}

func TestBoard_IsArchived(t *testing.T) {
	b := Board{ID: "b1"}
	assert.False(t, b.IsArchived())

	ts := NewTimestamp(time.Now())
	b.ArchivedAt = &ts
	assert.True(t, b.IsArchived())
}

func TestLookupLabel(t *testing.T) {
	assert.Equal(t, "red", LookupLabel("bug").Color)
	unknown := LookupLabel("custom")
	assert.Equal(t, "custom", unknown.Name)
	assert.Equal(t, "gray", unknown.Color)
}

package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvelope_HasData(t *testing.T) {
	assert.False(t, Envelope{}.HasData())
	assert.False(t, Envelope{Data: json.RawMessage(`null`)}.HasData())
	assert.False(t, Envelope{Data: json.RawMessage(`  `)}.HasData())
	assert.True(t, Envelope{Data: json.RawMessage(`[]`)}.HasData())
	assert.True(t, Envelope{Data: json.RawMessage(`"x"`)}.HasData())
}

func TestEnvelope_DataText(t *testing.T) {
	assert.Equal(t, "", Envelope{}.DataText())
	assert.Equal(t, "name is required", Envelope{Data: json.RawMessage(`"name is required"`)}.DataText())
	assert.Equal(t, `{"field":"name"}`, Envelope{Data: json.RawMessage(`{ "field" : "name" }`)}.DataText())
}

func TestSection_HasResources(t *testing.T) {
	assert.True(t, Section("widgets").HasResources())
	assert.True(t, SectionRegistration.HasResources())
	assert.False(t, SectionSettings.HasResources())
	assert.False(t, Section("").HasResources())
}

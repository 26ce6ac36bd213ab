package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestSwaggerDocIsRegistered(t *testing.T) {
	raw, err := swag.ReadDoc()
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "2.0", doc["swagger"])

	paths, ok := doc["paths"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, paths, "/api/v1/weather/")
	assert.Contains(t, paths, "/health")
}

func TestSwaggerInfoCanBeOverridden(t *testing.T) {
	orig := SwaggerInfo.Title
	defer func() { SwaggerInfo.Title = orig }()

	SwaggerInfo.Title = "Renamed"
	raw := SwaggerInfo.ReadDoc()
	assert.Contains(t, raw, `"title": "Renamed"`)
}

package grpc

import (
	"testing"

	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

func TestCodec_Registered(t *testing.T) {
	c := encoding.GetCodec(codecName)
	require.NotNil(t, c)
	assert.Equal(t, "json", c.Name())
}

func TestCodec_WireFormat(t *testing.T) {
	c := jsonCodec{}
	cat := "c1"

	data, err := c.Marshal(&IngredientRequest{Name: "Leek", CategoryID: &cat})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Leek","category_id":"c1"}`, string(data))

	data, err = c.Marshal(&ListUsersResponse{Users: []models.User{{ID: "u1", UserName: "bob", PasswordHash: []byte("h"), Role: models.RoleUser}}})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "password")
	assert.Contains(t, string(data), `"username":"bob"`)

	var req StatusRequest
	require.NoError(t, c.Unmarshal([]byte(`{"id":"r1","status":"pending"}`), &req))
	assert.Equal(t, StatusRequest{ID: "r1", Status: "pending"}, req)

	assert.Error(t, c.Unmarshal([]byte(`{"id":`), &req))
}

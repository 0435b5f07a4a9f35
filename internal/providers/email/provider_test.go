package email

import (
	"context"
	"testing"

	"github.com/smallbiznis/campusswap/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEmbeddedTemplates(t *testing.T) {
	for _, name := range []string{"payment_received", "order_confirmed", "payment_failed"} {
		subject, body, err := Render(name, map[string]interface{}{
			"name":       "Ada",
			"order_id":   "ORD_1",
			"payment_id": "PAY_1",
			"amount":     "189.75",
		})
		require.NoError(t, err, name)
		assert.Equal(t, subjects[name], subject)
		assert.Contains(t, body, "ORD_1")
		assert.Contains(t, body, "Ada")
	}
}

func TestRenderSubjectOverride(t *testing.T) {
	subject, _, err := Render("payment_failed", map[string]interface{}{"subject": "custom"})
	require.NoError(t, err)
	assert.Equal(t, "custom", subject)
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, err := Render("missing", nil)
	assert.Error(t, err)
}

func TestSendRequiresRecipients(t *testing.T) {
	p := NewSMTP(Config{Host: "localhost", Port: 2525})
	assert.Error(t, p.Send(context.Background(), nil, "s", "b"))
}

func TestNewFromConfigWithoutHostIsNoOp(t *testing.T) {
	p := NewFromConfig(config.Config{}, nil)
	_, ok := p.(*NoOpProvider)
	assert.True(t, ok)
	assert.NoError(t, p.Send(context.Background(), []string{"a@b.c"}, "s", "b"))
}
